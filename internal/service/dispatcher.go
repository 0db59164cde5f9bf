package service

import (
	"context"
	"errors"

	"github.com/sentriq/sentriq-backend/internal/authz"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/telemetry"
)

// ErrNotAllowed means a caller handed the dispatcher a deny decision. That is
// a programming error in the call chain, not a policy outcome.
var ErrNotAllowed = errors.New("dispatcher requires an allowed decision")

// Dispatcher restricts telemetry queries to an allowed decision's agent scope.
// It trusts the decision's scope without re-deriving it: the evaluator is the
// single source of truth. Filtering is pushed into the store's SQL predicate.
type Dispatcher struct {
	store telemetry.Store
}

func NewDispatcher(store telemetry.Store) *Dispatcher {
	return &Dispatcher{store: store}
}

// runScoped guards the decision and runs one scoped fetch. The time window is
// always applied regardless of scope.
func runScoped[T any](ctx context.Context, decision authz.Decision, window models.TimeWindow,
	fetch func(context.Context, authz.AgentScope, models.TimeWindow) ([]T, error)) ([]T, error) {
	if !decision.Allowed {
		return nil, ErrNotAllowed
	}
	return fetch(ctx, decision.Scope, window)
}

func (d *Dispatcher) MitreEvents(ctx context.Context, decision authz.Decision, window models.TimeWindow) ([]models.MitreEvent, error) {
	return runScoped(ctx, decision, window, d.store.MitreEvents)
}

func (d *Dispatcher) RansomwareAlerts(ctx context.Context, decision authz.Decision, window models.TimeWindow) ([]models.RansomwareAlert, error) {
	return runScoped(ctx, decision, window, d.store.RansomwareAlerts)
}

func (d *Dispatcher) CVERecords(ctx context.Context, decision authz.Decision, window models.TimeWindow) ([]models.CVERecord, error) {
	return runScoped(ctx, decision, window, d.store.CVERecords)
}

func (d *Dispatcher) IoCRecords(ctx context.Context, decision authz.Decision, window models.TimeWindow) ([]models.IoCRecord, error) {
	return runScoped(ctx, decision, window, d.store.IoCRecords)
}

func (d *Dispatcher) ComplianceFindings(ctx context.Context, decision authz.Decision, window models.TimeWindow) ([]models.ComplianceFinding, error) {
	return runScoped(ctx, decision, window, d.store.ComplianceFindings)
}

// CountByCategory counts one category inside the decision's scope.
func (d *Dispatcher) CountByCategory(ctx context.Context, decision authz.Decision, category string, window models.TimeWindow) (int, error) {
	if !decision.Allowed {
		return 0, ErrNotAllowed
	}
	return d.store.CountByCategory(ctx, category, decision.Scope, window)
}
