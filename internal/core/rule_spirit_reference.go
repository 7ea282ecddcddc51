package core

import (
	"context"
	"fmt"

	"stillcore/pkg/domain"
)

// NewSpiritReferenceRule blocks production runs whose spirit id does not
// reference a spirit stock item within the transaction snapshot.
func NewSpiritReferenceRule() domain.Rule {
	return spiritReferenceRule{}
}

type spiritReferenceRule struct{}

func (spiritReferenceRule) Name() string { return "spirit_reference" }

func (spiritReferenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityProductionRun || change.Action != domain.ActionCreate {
			continue
		}
		run, ok := payloadAs[domain.ProductionRun](change.After)
		if !ok {
			continue
		}
		item, found := view.FindStockItem(run.SpiritID)
		if !found || !item.IsSpirit {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "spirit_reference",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("production run %d references non-spirit stock id %d", run.ID, run.SpiritID),
				Entity:   domain.EntityProductionRun,
				EntityID: run.ID,
			})
		}
	}
	return res, nil
}
