package postgres

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"stillcore/internal/infra/persistence/memory"
	"stillcore/pkg/domain"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// The store only issues portable bucket upserts, so tests redirect sqlOpen to
// an embedded sqlite file and exercise the real persist and hydrate paths
// without a running server.
func overrideToSQLite(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pgstub.db")
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return sql.Open("sqlite", path)
	})
	t.Cleanup(restore)
}

func TestRunInTransactionPersistsSnapshot(t *testing.T) {
	overrideToSQLite(t)

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateStockItem(domain.StockItem{Name: "Rum", Quantity: 32, IsSpirit: true})
		return err
	}); err != nil {
		t.Fatalf("RunInTransaction: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	item, ok := reopened.GetStockItem(1)
	if !ok || item.Name != "Rum" || !item.IsSpirit {
		t.Fatalf("stock item not hydrated: %+v ok=%v", item, ok)
	}
}

func TestSeedWritesThrough(t *testing.T) {
	overrideToSQLite(t)

	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	price := decimal.RequireFromString("39.99")
	if err := store.Seed(context.Background(), memory.Snapshot{
		StockItems: map[int]domain.StockItem{
			957: {Name: "Tequila", Quantity: 2346, IsSpirit: true, UnitPrice: &price},
		},
		Customers: map[int]domain.Customer{
			2: {FirstName: "Mike", LastName: "Teavee"},
		},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	item, ok := reopened.GetStockItem(957)
	if !ok || item.UnitPrice == nil || !item.UnitPrice.Equal(price) {
		t.Fatalf("seeded stock not hydrated: %+v ok=%v", item, ok)
	}
	customer, ok := reopened.GetCustomer(2)
	if !ok || customer.LastName != "Teavee" {
		t.Fatalf("seeded customer not hydrated: %+v ok=%v", customer, ok)
	}
}

func TestOpenFailsWhenDriverErrors(t *testing.T) {
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) {
		return nil, sql.ErrConnDone
	})
	t.Cleanup(restore)

	if _, err := NewStore("", nil); err == nil {
		t.Fatalf("expected open error")
	}
}
