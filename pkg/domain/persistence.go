package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Transaction exposes the mutations a persistence implementation must support
// within an atomic scope. Identifiers are always allocated by the store.
type Transaction interface {
	Snapshot() TransactionView
	CreateStockItem(StockItem) (StockItem, error)
	UpdateStockItem(id int, mutator func(*StockItem) error) (StockItem, error)
	CreateCustomer(Customer) (Customer, error)
	CreateProductionRun(ProductionRun) (ProductionRun, error)
	UpdateProductionRun(id int, mutator func(*ProductionRun) error) (ProductionRun, error)
	CreateInvoice(Invoice) (Invoice, error)
	FindStockItem(id int) (StockItem, bool)
	FindCustomer(id int) (Customer, bool)
	FindProductionRun(id int) (ProductionRun, bool)
}

// TransactionView provides read-only access to snapshot data.
type TransactionView interface {
	RuleView
	ListCustomers() []Customer
	ListInvoices() []Invoice
	FindCustomer(id int) (Customer, bool)
	FindInvoice(id int) (Invoice, bool)
	SpiritNames() map[int]string
	SpiritPrices() map[int]decimal.Decimal
	OpenProductionRunIDs() []int
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by the workflow layer.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetStockItem(id int) (StockItem, bool)
	GetCustomer(id int) (Customer, bool)
	GetProductionRun(id int) (ProductionRun, bool)
	GetInvoice(id int) (Invoice, bool)
	ListStockItems() []StockItem
	ListCustomers() []Customer
	ListProductionRuns() []ProductionRun
	ListInvoices() []Invoice
	SpiritNames() map[int]string
	SpiritPrices() map[int]decimal.Decimal
	OpenProductionRunIDs() []int
}
