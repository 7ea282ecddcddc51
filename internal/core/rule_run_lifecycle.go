package core

import (
	"context"
	"fmt"

	"stillcore/pkg/domain"
)

// NewRunLifecycleRule blocks writes to production runs that have already been
// closed out. Closed is terminal: close-out happens exactly once, so the stock
// credit can never be applied twice. The rule also rejects a close-out with a
// negative produced quantity.
func NewRunLifecycleRule() domain.Rule {
	return runLifecycleRule{}
}

type runLifecycleRule struct{}

func (runLifecycleRule) Name() string { return "run_lifecycle" }

func (runLifecycleRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityProductionRun {
			continue
		}
		after, ok := payloadAs[domain.ProductionRun](change.After)
		if !ok {
			continue
		}
		if after.QuantityProduced != nil && *after.QuantityProduced < 0 {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "run_lifecycle",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("production run %d closed with negative quantity %v", after.ID, *after.QuantityProduced),
				Entity:   domain.EntityProductionRun,
				EntityID: after.ID,
			})
		}
		if change.Action != domain.ActionUpdate {
			continue
		}
		before, ok := payloadAs[domain.ProductionRun](change.Before)
		if !ok {
			continue
		}
		if !before.Open() {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "run_lifecycle",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("production run %d is already closed", before.ID),
				Entity:   domain.EntityProductionRun,
				EntityID: before.ID,
			})
		}
	}
	return res, nil
}
