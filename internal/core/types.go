package core

import "stillcore/pkg/domain"

type (
	EntityType         = domain.EntityType
	ProcessType        = domain.ProcessType
	StockItem          = domain.StockItem
	Customer           = domain.Customer
	ProductionRun      = domain.ProductionRun
	Invoice            = domain.Invoice
	InvoiceLine        = domain.InvoiceLine
	Change             = domain.Change
	Action             = domain.Action
	Severity           = domain.Severity
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	ErrNotFound        = domain.ErrNotFound
	ErrValidation      = domain.ErrValidation
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityStockItem     = domain.EntityStockItem
	EntityCustomer      = domain.EntityCustomer
	EntityProductionRun = domain.EntityProductionRun
	EntityInvoice       = domain.EntityInvoice
)

const (
	ProcessProductionRun = domain.ProcessProductionRun
	ProcessSubProcess    = domain.ProcessSubProcess
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
)

// BottleLiters is re-exported for workflow callers.
const BottleLiters = domain.BottleLiters
