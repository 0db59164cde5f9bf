package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sentriq/sentriq-backend/internal/authz"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/telemetry"
)

// fakeStore records the scope each fetch received.
type fakeStore struct {
	lastScope authz.AgentScope
	mitre     []models.MitreEvent
	counts    map[string]int
	err       error
}

func (f *fakeStore) MitreEvents(ctx context.Context, scope authz.AgentScope, w models.TimeWindow) ([]models.MitreEvent, error) {
	f.lastScope = scope
	return f.mitre, f.err
}

func (f *fakeStore) RansomwareAlerts(ctx context.Context, scope authz.AgentScope, w models.TimeWindow) ([]models.RansomwareAlert, error) {
	f.lastScope = scope
	return nil, f.err
}

func (f *fakeStore) CVERecords(ctx context.Context, scope authz.AgentScope, w models.TimeWindow) ([]models.CVERecord, error) {
	f.lastScope = scope
	return nil, f.err
}

func (f *fakeStore) IoCRecords(ctx context.Context, scope authz.AgentScope, w models.TimeWindow) ([]models.IoCRecord, error) {
	f.lastScope = scope
	return nil, f.err
}

func (f *fakeStore) ComplianceFindings(ctx context.Context, scope authz.AgentScope, w models.TimeWindow) ([]models.ComplianceFinding, error) {
	f.lastScope = scope
	return nil, f.err
}

func (f *fakeStore) CountByCategory(ctx context.Context, category string, scope authz.AgentScope, w models.TimeWindow) (int, error) {
	f.lastScope = scope
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[category], nil
}

func (f *fakeStore) ModbusEvents(ctx context.Context, w models.TimeWindow) ([]models.ModbusEvent, error) {
	return nil, f.err
}

func (f *fakeStore) InsertModbusEvent(ctx context.Context, event *models.ModbusEvent) (string, error) {
	return "", f.err
}

func serviceWindow() models.TimeWindow {
	end := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	return models.TimeWindow{Start: end.AddDate(0, 0, -30), End: end}
}

func allowDecision(agents ...string) authz.Decision {
	return authz.Decision{Allowed: true, Reason: authz.ReasonGroupMatch, Scope: authz.ScopeOf(agents)}
}

func TestDispatcherRejectsDenyDecision(t *testing.T) {
	d := NewDispatcher(&fakeStore{})
	deny := authz.Decision{Allowed: false, Reason: authz.ReasonNoMatch}

	if _, err := d.MitreEvents(context.Background(), deny, serviceWindow()); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed, got %v", err)
	}
	if _, err := d.CountByCategory(context.Background(), deny, telemetry.CategoryMitre, serviceWindow()); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed from count, got %v", err)
	}
}

func TestDispatcherPassesScopeThrough(t *testing.T) {
	store := &fakeStore{}
	d := NewDispatcher(store)

	decision := allowDecision("a1", "a2")
	if _, err := d.MitreEvents(context.Background(), decision, serviceWindow()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.lastScope.All || len(store.lastScope.Agents) != 2 {
		t.Fatalf("scope not forwarded, got %+v", store.lastScope)
	}
}

func TestOverviewSummary(t *testing.T) {
	store := &fakeStore{counts: map[string]int{
		telemetry.CategoryMitre:      7,
		telemetry.CategoryRansomware: 2,
		telemetry.CategoryCVE:        5,
		telemetry.CategoryIoC:        1,
		telemetry.CategoryCompliance: 9,
	}}
	overview := NewOverviewService(newAllowAllEvaluator(t), NewDispatcher(store))

	summary, err := overview.Summary(context.Background(), &models.Identity{ID: "adm", Role: "admin"}, serviceWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.MitreCount != 7 || summary.RansomwareCount != 2 || summary.CVECount != 5 ||
		summary.IoCCount != 1 || summary.ComplianceCount != 9 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestOverviewDenied(t *testing.T) {
	overview := NewOverviewService(newAllowAllEvaluator(t), NewDispatcher(&fakeStore{}))

	disabled := &models.Identity{ID: "op", Role: "operator", Disabled: true}
	if _, err := overview.Summary(context.Background(), disabled, serviceWindow()); !errors.Is(err, authz.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

// stub resolvers backing a real evaluator, so service tests exercise the
// actual rule order.
type stubGroups struct{}

func (stubGroups) GroupsOwnedBy(ctx context.Context, identityID string) ([]string, error) {
	return []string{"g1"}, nil
}

func (stubGroups) AgentsInGroups(ctx context.Context, groupNames []string) ([]string, error) {
	return []string{"a1", "a2"}, nil
}

type stubDirectory struct{}

func (stubDirectory) ResolveAgentRef(ctx context.Context, ref string) (models.AgentRef, error) {
	return models.AgentRef{AgentID: ref, AgentName: ref}, nil
}

func newAllowAllEvaluator(t *testing.T) *authz.Evaluator {
	t.Helper()
	return authz.NewEvaluator(stubGroups{}, stubDirectory{})
}
