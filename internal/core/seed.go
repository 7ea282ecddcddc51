package core

import (
	"time"

	"stillcore/internal/infra/persistence/memory"
	"stillcore/pkg/domain"

	"github.com/shopspring/decimal"
)

// SeedSnapshot returns the sample dataset: seven stock items, five customers,
// three closed production runs plus one open Gin run, and one historical
// invoice. Fixture ids are deliberately sparse so id allocation is exercised
// against non-dense tables.
func SeedSnapshot() memory.Snapshot {
	price := func(value string) *decimal.Decimal {
		d := decimal.RequireFromString(value)
		return &d
	}
	at := func(year int, month time.Month, day, hour, min int) time.Time {
		return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
	}
	timePtr := func(t time.Time) *time.Time { return &t }
	floatPtr := func(f float64) *float64 { return &f }
	strPtr := func(s string) *string { return &s }

	return memory.Snapshot{
		StockItems: map[int]domain.StockItem{
			54:  {Name: "Whiskey", Quantity: 236, IsSpirit: true, UnitPrice: price("48.99")},
			43:  {Name: "Corn", Quantity: 367},
			76:  {Name: "Molasses", Quantity: 926},
			190: {Name: "Rum", Quantity: 32, IsSpirit: true, UnitPrice: price("31.99")},
			957: {Name: "Tequila", Quantity: 2346, IsSpirit: true, UnitPrice: price("39.99")},
			5:   {Name: "Sugar", Quantity: 500},
			2:   {Name: "Gin", Quantity: 22, IsSpirit: true, UnitPrice: price("33.99")},
		},
		Customers: map[int]domain.Customer{
			1: {FirstName: "Charlie", LastName: "Bucket", Address: "23 Middle Street, Denver, CO, USA. 80014.", Phone: "303-123-5421", Email: "chocolatelover@hotmail.com"},
			2: {FirstName: "Mike", LastName: "Teavee", Address: "363 Pearl Street, Boulder, CO, USA. 80301.", Phone: "303-630-5159", Email: "boomboomkaboom@gmail.com"},
			3: {FirstName: "Agustus", LastName: "Gloop", Address: "8993 Turtle Nest Avenue, Fort Collins, CO, USA. 80526.", Phone: "970-023-1047", Email: "greedynincompoop@yahoo.com"},
			4: {FirstName: "Veruca", LastName: "Salt", Address: "24 Willow Way, Greeley, CO, USA. 80543.", Phone: "970-197-9835", Email: "iwantapony@elitemail.com"},
			5: {FirstName: "Violet", LastName: "Beuaregarde", Address: "2099 Goldrush Road, Golden, CO, USA. 80401.", Phone: "303-182-7881", Email: "alltimegumchamp@aol.com"},
		},
		ProductionRuns: map[int]domain.ProductionRun{
			1: {
				ProcessType:      domain.ProcessProductionRun,
				SpiritID:         190,
				StartDate:        at(2016, time.April, 20, 14, 30),
				EndDate:          timePtr(at(2016, time.May, 12, 15, 30)),
				QuantityProduced: floatPtr(56),
				Notes:            strPtr("Shiver me timbers! This here rum got me about to walk the plank."),
			},
			2: {
				ProcessType:      domain.ProcessProductionRun,
				SpiritID:         957,
				StartDate:        at(2016, time.May, 12, 16, 30),
				EndDate:          timePtr(at(2016, time.May, 24, 8, 30)),
				QuantityProduced: floatPtr(34),
				Notes:            strPtr("Y this tequila come out stinky tho?"),
			},
			3: {
				ProcessType:      domain.ProcessProductionRun,
				SpiritID:         54,
				StartDate:        at(2016, time.May, 24, 9, 30),
				EndDate:          timePtr(at(2016, time.June, 13, 11, 45)),
				QuantityProduced: floatPtr(69),
				Notes:            strPtr("This whisky tastes like cowboy boots."),
			},
			4: {
				ProcessType: domain.ProcessProductionRun,
				SpiritID:    2,
				StartDate:   at(2016, time.May, 24, 9, 30),
			},
		},
		Invoices: map[int]domain.Invoice{
			1: {
				CustomerID:     3,
				InvoiceDate:    at(2016, time.May, 24, 9, 30),
				BillingAddress: "8993 Turtle Nest Avenue, Fort Collins, CO, USA. 80526.",
				Total:          decimal.RequireFromString("98.43"),
			},
		},
	}
}

// NewSeededService builds an in-memory service pre-populated with the sample
// dataset and the default rules engine. Intended for tests and demos.
func NewSeededService(opts ...Option) *Service {
	store := memory.NewStore(NewDefaultRulesEngine())
	store.ImportState(SeedSnapshot())
	return NewService(store, opts...)
}
