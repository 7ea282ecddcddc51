package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"stillcore/internal/infra/persistence/memory"
	"stillcore/pkg/domain"
)

func TestInsertDispatchesByEntityKind(t *testing.T) {
	store := memory.NewStore(NewDefaultRulesEngine())
	ctx := context.Background()

	var spiritID int
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		spiritID, err = Insert(tx, domain.StockItem{Name: "Whiskey", Quantity: 100, IsSpirit: true})
		return err
	}); err != nil {
		t.Fatalf("insert stock: %v", err)
	}
	if spiritID != 1 {
		t.Fatalf("expected id 1, got %d", spiritID)
	}

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := Insert(tx, domain.Customer{FirstName: "Veruca", LastName: "Salt"}); err != nil {
			return err
		}
		if _, err := Insert(tx, domain.ProductionRun{SpiritID: spiritID, StartDate: time.Now()}); err != nil {
			return err
		}
		_, err := Insert(tx, domain.Invoice{CustomerID: 1, InvoiceDate: time.Now()})
		return err
	}); err != nil {
		t.Fatalf("insert remaining kinds: %v", err)
	}

	if len(store.ListCustomers()) != 1 || len(store.ListProductionRuns()) != 1 || len(store.ListInvoices()) != 1 {
		t.Fatalf("expected one record per table")
	}
}

func TestInsertRejectsUnknownType(t *testing.T) {
	store := memory.NewStore(nil)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := Insert(tx, struct{ Name string }{Name: "mystery"})
		return err
	})
	var unsupported domain.ErrUnsupportedEntity
	if !errors.As(err, &unsupported) {
		t.Fatalf("expected ErrUnsupportedEntity, got %v", err)
	}
}
