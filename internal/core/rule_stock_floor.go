package core

import (
	"context"
	"fmt"

	"stillcore/pkg/domain"
)

// NewStockFloorRule flags stock items whose quantity drops below zero. The
// invoice workflow inherits a debit with no floor check, so this surfaces the
// condition as a warning without rejecting the sale.
func NewStockFloorRule() domain.Rule {
	return stockFloorRule{}
}

type stockFloorRule struct{}

func (stockFloorRule) Name() string { return "stock_floor" }

func (stockFloorRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityStockItem {
			continue
		}
		item, ok := payloadAs[domain.StockItem](change.After)
		if !ok {
			continue
		}
		if item.Quantity < 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "stock_floor",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("stock item %d (%s) is below zero at %.2f liters", item.ID, item.Name, item.Quantity),
				Entity:   domain.EntityStockItem,
				EntityID: item.ID,
			})
		}
	}
	return res, nil
}
