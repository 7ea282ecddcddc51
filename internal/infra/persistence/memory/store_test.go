package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"stillcore/pkg/domain"

	"github.com/shopspring/decimal"
)

func mustPrice(t *testing.T, value string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse price %s: %v", value, err)
	}
	return &d
}

func TestIDAllocationDenseFromEmpty(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	var ids []int
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		for i := 0; i < 3; i++ {
			created, err := tx.CreateCustomer(domain.Customer{FirstName: "A", LastName: "B"})
			if err != nil {
				return err
			}
			ids = append(ids, created.ID)
		}
		return nil
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	for i, id := range ids {
		if id != i+1 {
			t.Fatalf("expected dense ids 1..3, got %v", ids)
		}
	}
}

func TestIDAllocationContinuesFromSparseMax(t *testing.T) {
	store := NewStore(nil)
	store.ImportState(Snapshot{
		StockItems: map[int]domain.StockItem{
			54:  {Name: "Whiskey", IsSpirit: true, UnitPrice: mustPrice(t, "48.99")},
			957: {Name: "Tequila", IsSpirit: true, UnitPrice: mustPrice(t, "39.99")},
			5:   {Name: "Sugar"},
		},
	})
	var created domain.StockItem
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateStockItem(domain.StockItem{Name: "Vodka", IsSpirit: true})
		return err
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if created.ID != 958 {
		t.Fatalf("expected id 958 (max+1), got %d", created.ID)
	}
}

func TestUpdateStockItemRestoresImmutableFields(t *testing.T) {
	store := NewStore(nil)
	store.ImportState(Snapshot{
		StockItems: map[int]domain.StockItem{
			190: {Name: "Rum", Quantity: 32, IsSpirit: true, UnitPrice: mustPrice(t, "31.99")},
		},
	})
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		updated, err := tx.UpdateStockItem(190, func(item *domain.StockItem) error {
			item.ID = 999
			item.IsSpirit = false
			item.Quantity = 40
			return nil
		})
		if err != nil {
			return err
		}
		if updated.ID != 190 || !updated.IsSpirit {
			t.Fatalf("immutable fields not restored: %+v", updated)
		}
		return nil
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	item, ok := store.GetStockItem(190)
	if !ok || item.Quantity != 40 || !item.IsSpirit {
		t.Fatalf("unexpected committed item: %+v ok=%v", item, ok)
	}
}

func TestUpdateProductionRunRestoresImmutableFields(t *testing.T) {
	start := time.Date(2016, time.May, 24, 9, 30, 0, 0, time.UTC)
	store := NewStore(nil)
	store.ImportState(Snapshot{
		StockItems: map[int]domain.StockItem{
			2: {Name: "Gin", Quantity: 22, IsSpirit: true, UnitPrice: mustPrice(t, "33.99")},
		},
		ProductionRuns: map[int]domain.ProductionRun{
			4: {ProcessType: domain.ProcessProductionRun, SpiritID: 2, StartDate: start},
		},
	})
	end := start.Add(48 * time.Hour)
	qty := 15.0
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateProductionRun(4, func(r *domain.ProductionRun) error {
			r.SpiritID = 190
			r.StartDate = r.StartDate.Add(time.Hour)
			r.EndDate = &end
			r.QuantityProduced = &qty
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	run, ok := store.GetProductionRun(4)
	if !ok {
		t.Fatalf("run missing")
	}
	if run.SpiritID != 2 || !run.StartDate.Equal(start) {
		t.Fatalf("immutable fields changed: %+v", run)
	}
	if run.Open() || run.QuantityProduced == nil || *run.QuantityProduced != 15 {
		t.Fatalf("close-out fields not applied: %+v", run)
	}
}

func TestUpdateMissingIDReturnsNotFound(t *testing.T) {
	store := NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateStockItem(42, func(*domain.StockItem) error { return nil })
		return err
	})
	var notFound domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if notFound.Entity != domain.EntityStockItem || notFound.ID != 42 {
		t.Fatalf("unexpected ErrNotFound payload: %+v", notFound)
	}
}

type blockAllRule struct{}

func (blockAllRule) Name() string { return "block_all" }

func (blockAllRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for range changes {
		res.Violations = append(res.Violations, domain.Violation{Rule: "block_all", Severity: domain.SeverityBlock})
	}
	return res, nil
}

func TestBlockingViolationAbortsCommit(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockAllRule{})
	store := NewStore(engine)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateCustomer(domain.Customer{FirstName: "X"})
		return err
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	if len(store.ListCustomers()) != 0 {
		t.Fatalf("blocked transaction must not commit")
	}
}

func TestFailedTransactionLeavesStateUntouched(t *testing.T) {
	store := NewStore(nil)
	boom := errors.New("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateCustomer(domain.Customer{FirstName: "X"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected propagated error, got %v", err)
	}
	if len(store.ListCustomers()) != 0 {
		t.Fatalf("failed transaction must roll back")
	}
}

func TestDerivedLookups(t *testing.T) {
	store := NewStore(nil)
	store.ImportState(Snapshot{
		StockItems: map[int]domain.StockItem{
			54: {Name: "Whiskey", IsSpirit: true, UnitPrice: mustPrice(t, "48.99")},
			43: {Name: "Corn"},
			2:  {Name: "Gin", IsSpirit: true},
		},
		ProductionRuns: map[int]domain.ProductionRun{
			3: {SpiritID: 54, StartDate: time.Now(), EndDate: timePtr(time.Now())},
			4: {SpiritID: 2, StartDate: time.Now()},
			7: {SpiritID: 54, StartDate: time.Now()},
		},
	})

	names := store.SpiritNames()
	if len(names) != 2 || names[54] != "Whiskey" || names[2] != "Gin" {
		t.Fatalf("unexpected spirit names: %v", names)
	}
	if _, ok := names[43]; ok {
		t.Fatalf("raw material must not appear in spirit names")
	}

	prices := store.SpiritPrices()
	if len(prices) != 1 {
		t.Fatalf("unpriced spirit must not appear in prices: %v", prices)
	}
	if !prices[54].Equal(decimal.RequireFromString("48.99")) {
		t.Fatalf("unexpected whiskey price: %s", prices[54])
	}

	open := store.OpenProductionRunIDs()
	if len(open) != 2 || open[0] != 4 || open[1] != 7 {
		t.Fatalf("unexpected open runs: %v", open)
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestListOrderingAndCloneIsolation(t *testing.T) {
	store := NewStore(nil)
	store.ImportState(Snapshot{
		StockItems: map[int]domain.StockItem{
			957: {Name: "Tequila", Quantity: 2346, IsSpirit: true, UnitPrice: mustPrice(t, "39.99")},
			5:   {Name: "Sugar", Quantity: 500},
			54:  {Name: "Whiskey", Quantity: 236, IsSpirit: true, UnitPrice: mustPrice(t, "48.99")},
		},
	})
	items := store.ListStockItems()
	if len(items) != 3 || items[0].ID != 5 || items[1].ID != 54 || items[2].ID != 957 {
		t.Fatalf("expected ascending id order, got %+v", items)
	}

	// Mutating a returned clone must not leak into committed state.
	items[1].Quantity = 0
	*items[1].UnitPrice = decimal.Zero
	fresh, _ := store.GetStockItem(54)
	if fresh.Quantity != 236 || !fresh.UnitPrice.Equal(decimal.RequireFromString("48.99")) {
		t.Fatalf("committed state mutated through clone: %+v", fresh)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := NewStore(nil)
	store.ImportState(Snapshot{
		StockItems: map[int]domain.StockItem{54: {Name: "Whiskey", Quantity: 236, IsSpirit: true, UnitPrice: mustPrice(t, "48.99")}},
		Customers:  map[int]domain.Customer{3: {FirstName: "Agustus", LastName: "Gloop"}},
		Invoices: map[int]domain.Invoice{1: {
			CustomerID: 3,
			Total:      decimal.RequireFromString("98.43"),
			Lines:      []domain.InvoiceLine{{ProductID: 54, Quantity: 2, UnitPrice: decimal.RequireFromString("48.99")}},
		}},
	})

	restored := NewStore(nil)
	restored.ImportState(store.ExportState())

	inv, ok := restored.GetInvoice(1)
	if !ok || inv.ID != 1 || inv.CustomerID != 3 || !inv.Total.Equal(decimal.RequireFromString("98.43")) {
		t.Fatalf("invoice not restored: %+v ok=%v", inv, ok)
	}
	if len(inv.Lines) != 1 || inv.Lines[0].ProductID != 54 {
		t.Fatalf("invoice lines not restored: %+v", inv.Lines)
	}
	customer, ok := restored.GetCustomer(3)
	if !ok || customer.LastName != "Gloop" {
		t.Fatalf("customer not restored: %+v", customer)
	}
}

func TestViewSnapshotIsolation(t *testing.T) {
	store := NewStore(nil)
	store.ImportState(Snapshot{
		StockItems: map[int]domain.StockItem{5: {Name: "Sugar", Quantity: 500}},
	})
	if err := store.View(context.Background(), func(view domain.TransactionView) error {
		items := view.ListStockItems()
		if len(items) != 1 || items[0].Name != "Sugar" {
			t.Fatalf("unexpected view contents: %+v", items)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}
