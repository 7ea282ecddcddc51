package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSeededServiceDataset(t *testing.T) {
	svc := NewSeededService()
	store := svc.Store()

	items := store.ListStockItems()
	if len(items) != 7 {
		t.Fatalf("expected 7 stock items, got %d", len(items))
	}
	whiskey, ok := store.GetStockItem(54)
	if !ok || whiskey.Name != "Whiskey" || whiskey.Quantity != 236 || !whiskey.IsSpirit {
		t.Fatalf("unexpected whiskey record: %+v ok=%v", whiskey, ok)
	}
	if whiskey.UnitPrice == nil || !whiskey.UnitPrice.Equal(decimal.RequireFromString("48.99")) {
		t.Fatalf("unexpected whiskey price: %+v", whiskey.UnitPrice)
	}

	if len(store.ListCustomers()) != 5 {
		t.Fatalf("expected 5 customers")
	}
	if len(store.ListProductionRuns()) != 4 {
		t.Fatalf("expected 4 production runs")
	}

	names := store.SpiritNames()
	if len(names) != 4 {
		t.Fatalf("expected 4 spirits, got %v", names)
	}
	for id, want := range map[int]string{54: "Whiskey", 190: "Rum", 957: "Tequila", 2: "Gin"} {
		if names[id] != want {
			t.Fatalf("expected spirit %d=%s, got %v", id, want, names)
		}
	}

	prices := store.SpiritPrices()
	if len(prices) != 4 || !prices[2].Equal(decimal.RequireFromString("33.99")) {
		t.Fatalf("unexpected spirit prices: %v", prices)
	}

	open := store.OpenProductionRunIDs()
	if len(open) != 1 || open[0] != 4 {
		t.Fatalf("expected only run 4 open, got %v", open)
	}

	invoice, ok := store.GetInvoice(1)
	if !ok || invoice.CustomerID != 3 || !invoice.Total.Equal(decimal.RequireFromString("98.43")) {
		t.Fatalf("unexpected seeded invoice: %+v ok=%v", invoice, ok)
	}
}
