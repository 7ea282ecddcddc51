// Package memory implements the canonical in-memory transactional store for
// the stillcore domain. Persistent backends embed it and snapshot its state.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"stillcore/pkg/domain"

	"github.com/shopspring/decimal"
)

type memoryState struct {
	stock     map[int]domain.StockItem
	customers map[int]domain.Customer
	runs      map[int]domain.ProductionRun
	invoices  map[int]domain.Invoice
}

func newMemoryState() memoryState {
	return memoryState{
		stock:     make(map[int]domain.StockItem),
		customers: make(map[int]domain.Customer),
		runs:      make(map[int]domain.ProductionRun),
		invoices:  make(map[int]domain.Invoice),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.stock {
		cloned.stock[k] = cloneStockItem(v)
	}
	for k, v := range s.customers {
		cloned.customers[k] = v
	}
	for k, v := range s.runs {
		cloned.runs[k] = cloneProductionRun(v)
	}
	for k, v := range s.invoices {
		cloned.invoices[k] = cloneInvoice(v)
	}
	return cloned
}

func cloneStockItem(item domain.StockItem) domain.StockItem {
	cp := item
	if item.UnitPrice != nil {
		price := *item.UnitPrice
		cp.UnitPrice = &price
	}
	return cp
}

func cloneProductionRun(run domain.ProductionRun) domain.ProductionRun {
	cp := run
	if run.EndDate != nil {
		end := *run.EndDate
		cp.EndDate = &end
	}
	if run.QuantityProduced != nil {
		qty := *run.QuantityProduced
		cp.QuantityProduced = &qty
	}
	if run.Notes != nil {
		notes := *run.Notes
		cp.Notes = &notes
	}
	return cp
}

func cloneInvoice(inv domain.Invoice) domain.Invoice {
	cp := inv
	cp.Lines = append([]domain.InvoiceLine(nil), inv.Lines...)
	return cp
}

// nextID allocates max(existing)+1, or 1 for an empty table. Removal is not
// supported, so ids are dense for fresh tables and continue from the current
// max for seeded ones.
func nextID[T any](table map[int]T) int {
	max := 0
	for id := range table {
		if id > max {
			max = id
		}
	}
	return max + 1
}

func sortedIDs[T any](table map[int]T) []int {
	ids := make([]int, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Store provides an in-memory transactional store for the four domain tables.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *domain.RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *domain.RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Compile-time contract assertion.
var _ domain.PersistentStore = (*Store)(nil)

// Transaction is a mutation set applied to a cloned copy of the store state.
type Transaction struct {
	state   memoryState
	changes []domain.Change
}

// TransactionView exposes a read-only snapshot of transactional state.
type TransactionView struct {
	state *memoryState
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The rules engine evaluates the recorded change set before commit; blocking
// violations abort with RuleViolationError.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Transaction{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return domain.Result{}, err
	}

	var result domain.Result
	if s.engine != nil {
		view := TransactionView{state: &tx.state}
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return domain.Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(domain.TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(TransactionView{state: &snapshot})
}

func (tx *Transaction) recordChange(change domain.Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *Transaction) Snapshot() domain.TransactionView {
	return TransactionView{state: &tx.state}
}

// CreateStockItem inserts a stock record under a freshly allocated id.
func (tx *Transaction) CreateStockItem(item domain.StockItem) (domain.StockItem, error) {
	item.ID = nextID(tx.state.stock)
	tx.state.stock[item.ID] = cloneStockItem(item)
	tx.recordChange(domain.Change{Entity: domain.EntityStockItem, Action: domain.ActionCreate, After: cloneStockItem(item)})
	return cloneStockItem(item), nil
}

// UpdateStockItem mutates a stock record. ID and IsSpirit are immutable and
// restored after the mutator runs.
func (tx *Transaction) UpdateStockItem(id int, mutator func(*domain.StockItem) error) (domain.StockItem, error) {
	current, ok := tx.state.stock[id]
	if !ok {
		return domain.StockItem{}, domain.ErrNotFound{Entity: domain.EntityStockItem, ID: id}
	}
	before := cloneStockItem(current)
	if err := mutator(&current); err != nil {
		return domain.StockItem{}, err
	}
	current.ID = id
	current.IsSpirit = before.IsSpirit
	tx.state.stock[id] = cloneStockItem(current)
	tx.recordChange(domain.Change{Entity: domain.EntityStockItem, Action: domain.ActionUpdate, Before: before, After: cloneStockItem(current)})
	return cloneStockItem(current), nil
}

// CreateCustomer inserts a customer record.
func (tx *Transaction) CreateCustomer(customer domain.Customer) (domain.Customer, error) {
	customer.ID = nextID(tx.state.customers)
	tx.state.customers[customer.ID] = customer
	tx.recordChange(domain.Change{Entity: domain.EntityCustomer, Action: domain.ActionCreate, After: customer})
	return customer, nil
}

// CreateProductionRun inserts a run record. Runs default to the production-run
// process type when unset.
func (tx *Transaction) CreateProductionRun(run domain.ProductionRun) (domain.ProductionRun, error) {
	if run.ProcessType == "" {
		run.ProcessType = domain.ProcessProductionRun
	}
	run.ID = nextID(tx.state.runs)
	tx.state.runs[run.ID] = cloneProductionRun(run)
	tx.recordChange(domain.Change{Entity: domain.EntityProductionRun, Action: domain.ActionCreate, After: cloneProductionRun(run)})
	return cloneProductionRun(run), nil
}

// UpdateProductionRun mutates a run. ID, ProcessType, SpiritID, and StartDate
// are immutable and restored after the mutator runs, so only EndDate,
// QuantityProduced, and Notes can change.
func (tx *Transaction) UpdateProductionRun(id int, mutator func(*domain.ProductionRun) error) (domain.ProductionRun, error) {
	current, ok := tx.state.runs[id]
	if !ok {
		return domain.ProductionRun{}, domain.ErrNotFound{Entity: domain.EntityProductionRun, ID: id}
	}
	before := cloneProductionRun(current)
	if err := mutator(&current); err != nil {
		return domain.ProductionRun{}, err
	}
	current.ID = id
	current.ProcessType = before.ProcessType
	current.SpiritID = before.SpiritID
	current.StartDate = before.StartDate
	tx.state.runs[id] = cloneProductionRun(current)
	tx.recordChange(domain.Change{Entity: domain.EntityProductionRun, Action: domain.ActionUpdate, Before: before, After: cloneProductionRun(current)})
	return cloneProductionRun(current), nil
}

// CreateInvoice inserts an invoice record.
func (tx *Transaction) CreateInvoice(inv domain.Invoice) (domain.Invoice, error) {
	inv.ID = nextID(tx.state.invoices)
	tx.state.invoices[inv.ID] = cloneInvoice(inv)
	tx.recordChange(domain.Change{Entity: domain.EntityInvoice, Action: domain.ActionCreate, After: cloneInvoice(inv)})
	return cloneInvoice(inv), nil
}

// FindStockItem retrieves a stock record from the transactional state.
func (tx *Transaction) FindStockItem(id int) (domain.StockItem, bool) {
	item, ok := tx.state.stock[id]
	if !ok {
		return domain.StockItem{}, false
	}
	return cloneStockItem(item), true
}

// FindCustomer retrieves a customer from the transactional state.
func (tx *Transaction) FindCustomer(id int) (domain.Customer, bool) {
	customer, ok := tx.state.customers[id]
	return customer, ok
}

// FindProductionRun retrieves a run from the transactional state.
func (tx *Transaction) FindProductionRun(id int) (domain.ProductionRun, bool) {
	run, ok := tx.state.runs[id]
	if !ok {
		return domain.ProductionRun{}, false
	}
	return cloneProductionRun(run), true
}

// View accessors -------------------------------------------------------------

// ListStockItems returns all stock records ordered by id.
func (v TransactionView) ListStockItems() []domain.StockItem {
	out := make([]domain.StockItem, 0, len(v.state.stock))
	for _, id := range sortedIDs(v.state.stock) {
		out = append(out, cloneStockItem(v.state.stock[id]))
	}
	return out
}

// ListCustomers returns all customers ordered by id.
func (v TransactionView) ListCustomers() []domain.Customer {
	out := make([]domain.Customer, 0, len(v.state.customers))
	for _, id := range sortedIDs(v.state.customers) {
		out = append(out, v.state.customers[id])
	}
	return out
}

// ListProductionRuns returns all runs ordered by id.
func (v TransactionView) ListProductionRuns() []domain.ProductionRun {
	out := make([]domain.ProductionRun, 0, len(v.state.runs))
	for _, id := range sortedIDs(v.state.runs) {
		out = append(out, cloneProductionRun(v.state.runs[id]))
	}
	return out
}

// ListInvoices returns all invoices ordered by id.
func (v TransactionView) ListInvoices() []domain.Invoice {
	out := make([]domain.Invoice, 0, len(v.state.invoices))
	for _, id := range sortedIDs(v.state.invoices) {
		out = append(out, cloneInvoice(v.state.invoices[id]))
	}
	return out
}

// FindStockItem retrieves a stock record by id from the snapshot.
func (v TransactionView) FindStockItem(id int) (domain.StockItem, bool) {
	item, ok := v.state.stock[id]
	if !ok {
		return domain.StockItem{}, false
	}
	return cloneStockItem(item), true
}

// FindCustomer retrieves a customer by id from the snapshot.
func (v TransactionView) FindCustomer(id int) (domain.Customer, bool) {
	customer, ok := v.state.customers[id]
	return customer, ok
}

// FindProductionRun retrieves a run by id from the snapshot.
func (v TransactionView) FindProductionRun(id int) (domain.ProductionRun, bool) {
	run, ok := v.state.runs[id]
	if !ok {
		return domain.ProductionRun{}, false
	}
	return cloneProductionRun(run), true
}

// FindInvoice retrieves an invoice by id from the snapshot.
func (v TransactionView) FindInvoice(id int) (domain.Invoice, bool) {
	inv, ok := v.state.invoices[id]
	if !ok {
		return domain.Invoice{}, false
	}
	return cloneInvoice(inv), true
}

// SpiritNames maps spirit stock ids to their names. Recomputed on every call.
func (v TransactionView) SpiritNames() map[int]string {
	return spiritNames(v.state)
}

// SpiritPrices maps spirit stock ids to their unit prices. Recomputed on every call.
func (v TransactionView) SpiritPrices() map[int]decimal.Decimal {
	return spiritPrices(v.state)
}

// OpenProductionRunIDs lists ids of runs without an end date, ascending.
func (v TransactionView) OpenProductionRunIDs() []int {
	return openProductionRunIDs(v.state)
}

func spiritNames(state *memoryState) map[int]string {
	names := make(map[int]string)
	for id, item := range state.stock {
		if item.IsSpirit {
			names[id] = item.Name
		}
	}
	return names
}

func spiritPrices(state *memoryState) map[int]decimal.Decimal {
	prices := make(map[int]decimal.Decimal)
	for id, item := range state.stock {
		if item.IsSpirit && item.UnitPrice != nil {
			prices[id] = *item.UnitPrice
		}
	}
	return prices
}

func openProductionRunIDs(state *memoryState) []int {
	var ids []int
	for id, run := range state.runs {
		if run.Open() {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

// Committed-state read helpers -----------------------------------------------

// GetStockItem retrieves a stock record by id from committed state.
func (s *Store) GetStockItem(id int) (domain.StockItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.state.stock[id]
	if !ok {
		return domain.StockItem{}, false
	}
	return cloneStockItem(item), true
}

// GetCustomer retrieves a customer by id from committed state.
func (s *Store) GetCustomer(id int) (domain.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	customer, ok := s.state.customers[id]
	return customer, ok
}

// GetProductionRun retrieves a run by id from committed state.
func (s *Store) GetProductionRun(id int) (domain.ProductionRun, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.state.runs[id]
	if !ok {
		return domain.ProductionRun{}, false
	}
	return cloneProductionRun(run), true
}

// GetInvoice retrieves an invoice by id from committed state.
func (s *Store) GetInvoice(id int) (domain.Invoice, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.state.invoices[id]
	if !ok {
		return domain.Invoice{}, false
	}
	return cloneInvoice(inv), true
}

// ListStockItems returns all stock records from committed state, ordered by id.
func (s *Store) ListStockItems() []domain.StockItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StockItem, 0, len(s.state.stock))
	for _, id := range sortedIDs(s.state.stock) {
		out = append(out, cloneStockItem(s.state.stock[id]))
	}
	return out
}

// ListCustomers returns all customers from committed state, ordered by id.
func (s *Store) ListCustomers() []domain.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Customer, 0, len(s.state.customers))
	for _, id := range sortedIDs(s.state.customers) {
		out = append(out, s.state.customers[id])
	}
	return out
}

// ListProductionRuns returns all runs from committed state, ordered by id.
func (s *Store) ListProductionRuns() []domain.ProductionRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ProductionRun, 0, len(s.state.runs))
	for _, id := range sortedIDs(s.state.runs) {
		out = append(out, cloneProductionRun(s.state.runs[id]))
	}
	return out
}

// ListInvoices returns all invoices from committed state, ordered by id.
func (s *Store) ListInvoices() []domain.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Invoice, 0, len(s.state.invoices))
	for _, id := range sortedIDs(s.state.invoices) {
		out = append(out, cloneInvoice(s.state.invoices[id]))
	}
	return out
}

// SpiritNames maps spirit stock ids to names from committed state.
func (s *Store) SpiritNames() map[int]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return spiritNames(&s.state)
}

// SpiritPrices maps spirit stock ids to unit prices from committed state.
func (s *Store) SpiritPrices() map[int]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return spiritPrices(&s.state)
}

// OpenProductionRunIDs lists open run ids from committed state, ascending.
func (s *Store) OpenProductionRunIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return openProductionRunIDs(&s.state)
}
