package memory

import "stillcore/pkg/domain"

// Snapshot is the serialisable representation of the in-memory state. Keys are
// the table ids, so seeded fixtures keep their original identifiers.
type Snapshot struct {
	StockItems     map[int]domain.StockItem     `json:"stock_items"`
	Customers      map[int]domain.Customer      `json:"customers"`
	ProductionRuns map[int]domain.ProductionRun `json:"production_runs"`
	Invoices       map[int]domain.Invoice       `json:"invoices"`
}

// ExportState copies the committed state into a snapshot.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		StockItems:     make(map[int]domain.StockItem, len(s.state.stock)),
		Customers:      make(map[int]domain.Customer, len(s.state.customers)),
		ProductionRuns: make(map[int]domain.ProductionRun, len(s.state.runs)),
		Invoices:       make(map[int]domain.Invoice, len(s.state.invoices)),
	}
	for id, item := range s.state.stock {
		snap.StockItems[id] = cloneStockItem(item)
	}
	for id, customer := range s.state.customers {
		snap.Customers[id] = customer
	}
	for id, run := range s.state.runs {
		snap.ProductionRuns[id] = cloneProductionRun(run)
	}
	for id, inv := range s.state.invoices {
		snap.Invoices[id] = cloneInvoice(inv)
	}
	return snap
}

// ImportState replaces the committed state with the snapshot contents. Used by
// persistent backends on hydrate and by seeding; bypasses the rules engine.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := newMemoryState()
	for id, item := range snap.StockItems {
		item.ID = id
		state.stock[id] = cloneStockItem(item)
	}
	for id, customer := range snap.Customers {
		customer.ID = id
		state.customers[id] = customer
	}
	for id, run := range snap.ProductionRuns {
		run.ID = id
		state.runs[id] = cloneProductionRun(run)
	}
	for id, inv := range snap.Invoices {
		inv.ID = id
		state.invoices[id] = cloneInvoice(inv)
	}
	s.state = state
}
