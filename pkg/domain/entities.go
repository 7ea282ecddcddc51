// Package domain defines the persistent entities, value types, and rule
// evaluation primitives used by stillcore.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies the type of record stored in a table.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityStockItem identifies a raw-material or finished-spirit stock record.
	EntityStockItem EntityType = "stock_item"
	// EntityCustomer identifies a customer record.
	EntityCustomer EntityType = "customer"
	// EntityProductionRun identifies a production run record.
	EntityProductionRun EntityType = "production_run"
	// EntityInvoice identifies an invoice record.
	EntityInvoice EntityType = "invoice"
)

// ProcessType distinguishes production processes tracked by the system.
type ProcessType string

const (
	// ProcessProductionRun is a full input-to-spirit production run.
	ProcessProductionRun ProcessType = "production_run"
	// ProcessSubProcess is reserved for brewing/fermenting/distilling stages.
	// No workflow populates it yet.
	ProcessSubProcess ProcessType = "sub_process"
)

// BottleLiters is the volume of one retail unit in liters. Invoice line
// quantities are counted in bottles while stock is held in liters.
const BottleLiters = 0.75

// StockItem is an inventory record. Quantity is liters on hand. UnitPrice is
// set only for spirits; raw materials carry no price.
type StockItem struct {
	ID        int              `json:"id"`
	Name      string           `json:"name"`
	Quantity  float64          `json:"quantity"`
	IsSpirit  bool             `json:"is_spirit"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// Customer holds contact details for an invoice recipient. No update path
// exists in this version.
type Customer struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// ProductionRun tracks one conversion of inputs into finished spirit.
// A run with a nil EndDate is open; close-out sets EndDate, QuantityProduced,
// and Notes exactly once. SpiritID never changes after creation.
type ProductionRun struct {
	ID               int         `json:"id"`
	ProcessType      ProcessType `json:"process_type"`
	SpiritID         int         `json:"spirit_id"`
	StartDate        time.Time   `json:"start_date"`
	EndDate          *time.Time  `json:"end_date,omitempty"`
	QuantityProduced *float64    `json:"quantity_produced,omitempty"`
	Notes            *string     `json:"notes,omitempty"`
}

// Open reports whether the run is still eligible for close-out.
func (r ProductionRun) Open() bool { return r.EndDate == nil }

// InvoiceLine is one priced sale position on an invoice. UnitPrice is a
// snapshot taken at sale time; Unpriced marks lines whose product had no
// resolvable price when the invoice was created (they contribute zero to the
// total but still debit stock).
type InvoiceLine struct {
	ProductID int             `json:"product_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Unpriced  bool            `json:"unpriced,omitempty"`
}

// Invoice records a sale to a customer. BillingAddress is an independent copy,
// not a live reference to the customer's address.
type Invoice struct {
	ID             int             `json:"id"`
	CustomerID     int             `json:"customer_id"`
	InvoiceDate    time.Time       `json:"invoice_date"`
	BillingAddress string          `json:"billing_address"`
	Total          decimal.Decimal `json:"total"`
	Lines          []InvoiceLine   `json:"lines,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions captured for rule evaluation.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn surfaces a violation but allows commit.
	SeverityWarn Severity = "warn"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID int
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityWarn {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
