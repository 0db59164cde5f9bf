package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/sentriq/sentriq-backend/internal/authz"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/telemetry"
)

// OverviewService computes the dashboard landing summary over the caller's
// effective scope.
type OverviewService struct {
	evaluator  *authz.Evaluator
	dispatcher *Dispatcher
}

func NewOverviewService(evaluator *authz.Evaluator, dispatcher *Dispatcher) *OverviewService {
	return &OverviewService{evaluator: evaluator, dispatcher: dispatcher}
}

// Summary evaluates the aggregate target and counts every category inside the
// resulting scope concurrently. An operator whose groups currently report zero
// live agents gets an all-zero summary, not a deny.
func (s *OverviewService) Summary(ctx context.Context, ident *models.Identity, window models.TimeWindow) (*models.OverviewSummary, error) {
	decision, err := s.evaluator.Evaluate(ctx, ident, authz.TargetAll(), window)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, authz.ErrForbidden
	}

	var summary models.OverviewSummary
	targets := []struct {
		category string
		dest     *int
	}{
		{telemetry.CategoryMitre, &summary.MitreCount},
		{telemetry.CategoryRansomware, &summary.RansomwareCount},
		{telemetry.CategoryCVE, &summary.CVECount},
		{telemetry.CategoryIoC, &summary.IoCCount},
		{telemetry.CategoryCompliance, &summary.ComplianceCount},
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, t := range targets {
		t := t
		group.Go(func() error {
			count, err := s.dispatcher.CountByCategory(groupCtx, decision, t.category, window)
			if err != nil {
				return err
			}
			*t.dest = count
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return &summary, nil
}
