package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sentriq/sentriq-backend/internal/models"
)

type fakeGroups struct {
	groups    []string
	groupsErr error
	agents    []string
	agentsErr error
}

func (f *fakeGroups) GroupsOwnedBy(ctx context.Context, identityID string) ([]string, error) {
	return f.groups, f.groupsErr
}

func (f *fakeGroups) AgentsInGroups(ctx context.Context, groupNames []string) ([]string, error) {
	return f.agents, f.agentsErr
}

type fakeDirectory struct {
	refs map[string]models.AgentRef
	err  error
}

func (f *fakeDirectory) ResolveAgentRef(ctx context.Context, ref string) (models.AgentRef, error) {
	if f.err != nil {
		return models.AgentRef{}, f.err
	}
	if r, ok := f.refs[ref]; ok {
		return r, nil
	}
	return models.AgentRef{}, ErrAgentNotFound
}

func testWindow() models.TimeWindow {
	end := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	return models.TimeWindow{Start: end.AddDate(0, 0, -7), End: end}
}

func operator(id string) *models.Identity {
	return &models.Identity{ID: id, Username: id, Role: "operator"}
}

func admin(id string) *models.Identity {
	return &models.Identity{ID: id, Username: id, Role: "admin"}
}

func TestEvaluateNilIdentity(t *testing.T) {
	e := NewEvaluator(&fakeGroups{}, &fakeDirectory{})
	_, err := e.Evaluate(context.Background(), nil, TargetAll(), testWindow())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestEvaluateDisabledAccount(t *testing.T) {
	e := NewEvaluator(&fakeGroups{groups: []string{"g1"}, agents: []string{"a1"}}, &fakeDirectory{})

	ident := operator("op1")
	ident.Disabled = true
	d, err := e.Evaluate(context.Background(), ident, TargetAll(), testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatal("disabled account must be denied")
	}
	if d.Reason != ReasonDisabledAccount {
		t.Fatalf("expected reason %q, got %q", ReasonDisabledAccount, d.Reason)
	}
}

func TestEvaluateDisabledAdmin(t *testing.T) {
	e := NewEvaluator(&fakeGroups{}, &fakeDirectory{})

	ident := admin("adm1")
	ident.Disabled = true
	d, err := e.Evaluate(context.Background(), ident, TargetAll(), testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatal("disabled admin must be denied, the override does not apply")
	}
}

func TestEvaluateDisabledBeforeWindowValidation(t *testing.T) {
	e := NewEvaluator(&fakeGroups{}, &fakeDirectory{})

	ident := operator("op1")
	ident.Disabled = true
	invalid := models.TimeWindow{Start: time.Now(), End: time.Now().AddDate(0, 0, -1)}
	d, err := e.Evaluate(context.Background(), ident, TargetAll(), invalid)
	if err != nil {
		t.Fatalf("disabled check should precede window validation, got error %v", err)
	}
	if d.Allowed || d.Reason != ReasonDisabledAccount {
		t.Fatalf("expected disabled deny, got %+v", d)
	}
}

func TestEvaluateInvalidWindow(t *testing.T) {
	e := NewEvaluator(&fakeGroups{}, &fakeDirectory{})

	invalid := models.TimeWindow{Start: time.Now(), End: time.Now().AddDate(0, 0, -1)}
	_, err := e.Evaluate(context.Background(), admin("adm1"), TargetAll(), invalid)
	if !errors.Is(err, models.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestEvaluateAdminOverride(t *testing.T) {
	// Resolvers must not be consulted for admins.
	groups := &fakeGroups{groupsErr: errors.New("must not be called")}
	e := NewEvaluator(groups, &fakeDirectory{err: errors.New("must not be called")})

	d, err := e.Evaluate(context.Background(), admin("adm1"), TargetAll(), testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed || d.Reason != ReasonAdminOverride {
		t.Fatalf("expected admin allow, got %+v", d)
	}
	if !d.Scope.All {
		t.Fatal("admin scope must be unrestricted")
	}
}

func TestEvaluateOperatorNoGroups(t *testing.T) {
	e := NewEvaluator(&fakeGroups{groups: nil}, &fakeDirectory{})

	d, err := e.Evaluate(context.Background(), operator("op1"), TargetAll(), testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed || d.Reason != ReasonNoMatch {
		t.Fatalf("expected no-match deny, got %+v", d)
	}
}

func TestEvaluateAggregateAllowScopedToOwnAgents(t *testing.T) {
	e := NewEvaluator(&fakeGroups{groups: []string{"g1"}, agents: []string{"a2", "a1", "a1"}}, &fakeDirectory{})

	d, err := e.Evaluate(context.Background(), operator("op1"), TargetAll(), testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed || d.Reason != ReasonGroupMatch {
		t.Fatalf("expected group-match allow, got %+v", d)
	}
	if d.Scope.All {
		t.Fatal("operator scope must be restricted")
	}
	if len(d.Scope.Agents) != 2 || d.Scope.Agents[0] != "a1" || d.Scope.Agents[1] != "a2" {
		t.Fatalf("expected deduped sorted scope [a1 a2], got %v", d.Scope.Agents)
	}
}

func TestEvaluateAggregateEmptyAgentSetStillAllows(t *testing.T) {
	// Owning groups with zero live agents is an allow with an empty scope,
	// distinct from owning no groups at all.
	e := NewEvaluator(&fakeGroups{groups: []string{"g1"}, agents: nil}, &fakeDirectory{})

	d, err := e.Evaluate(context.Background(), operator("op1"), TargetAll(), testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed {
		t.Fatal("empty agent set must still allow")
	}
	if !d.Scope.Empty() {
		t.Fatalf("expected empty scope, got %+v", d.Scope)
	}
}

func TestEvaluatePlatformFailureIsNotADeny(t *testing.T) {
	e := NewEvaluator(&fakeGroups{groups: []string{"g1"}, agentsErr: errors.New("connect refused")}, &fakeDirectory{})

	_, err := e.Evaluate(context.Background(), operator("op1"), TargetAll(), testWindow())
	if !errors.Is(err, ErrPlatformUnavailable) {
		t.Fatalf("expected ErrPlatformUnavailable, got %v", err)
	}
}

func TestEvaluateSpecificAgentByName(t *testing.T) {
	dir := &fakeDirectory{refs: map[string]models.AgentRef{
		"web-server-01": {AgentID: "a1", AgentName: "web-server-01"},
		"a1":            {AgentID: "a1", AgentName: "web-server-01"},
	}}
	e := NewEvaluator(&fakeGroups{groups: []string{"g1"}, agents: []string{"a1", "a2"}}, dir)

	d, err := e.Evaluate(context.Background(), operator("op1"), TargetAgent("web-server-01"), testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allowed {
		t.Fatal("in-scope agent must be allowed")
	}
	if len(d.Scope.Agents) != 1 || d.Scope.Agents[0] != "a1" {
		t.Fatalf("expected scope narrowed to [a1], got %v", d.Scope.Agents)
	}
}

func TestEvaluateSpecificAgentNameOutsideScope(t *testing.T) {
	// A name colliding with someone else's agent must resolve to the
	// canonical ID and then fail the membership check.
	dir := &fakeDirectory{refs: map[string]models.AgentRef{
		"web-server-01": {AgentID: "a9", AgentName: "web-server-01"},
	}}
	e := NewEvaluator(&fakeGroups{groups: []string{"g1"}, agents: []string{"a1", "a2"}}, dir)

	d, err := e.Evaluate(context.Background(), operator("op1"), TargetAgent("web-server-01"), testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allowed {
		t.Fatal("out-of-scope agent must be denied even when the name matches")
	}
	if d.Reason != ReasonNoMatch {
		t.Fatalf("expected no-match deny, got %q", d.Reason)
	}
}

func TestEvaluateUnknownAgentRef(t *testing.T) {
	e := NewEvaluator(&fakeGroups{groups: []string{"g1"}, agents: []string{"a1"}}, &fakeDirectory{})

	d, err := e.Evaluate(context.Background(), operator("op1"), TargetAgent("no-such-agent"), testWindow())
	if err != nil {
		t.Fatalf("unknown ref must be a deny, not an error: %v", err)
	}
	if d.Allowed || d.Reason != ReasonNoMatch {
		t.Fatalf("expected no-match deny, got %+v", d)
	}
}

func TestEvaluateDirectoryOutage(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("upstream timeout")}
	e := NewEvaluator(&fakeGroups{groups: []string{"g1"}, agents: []string{"a1"}}, dir)

	_, err := e.Evaluate(context.Background(), operator("op1"), TargetAgent("a1"), testWindow())
	if !errors.Is(err, ErrPlatformUnavailable) {
		t.Fatalf("expected ErrPlatformUnavailable, got %v", err)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	e := NewEvaluator(&fakeGroups{groups: []string{"g1"}, agents: []string{"a1", "a2"}}, &fakeDirectory{})

	first, err := e.Evaluate(context.Background(), operator("op1"), TargetAll(), testWindow())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		d, err := e.Evaluate(context.Background(), operator("op1"), TargetAll(), testWindow())
		if err != nil {
			t.Fatalf("unexpected error on repeat: %v", err)
		}
		if d.Allowed != first.Allowed || d.Reason != first.Reason || len(d.Scope.Agents) != len(first.Scope.Agents) {
			t.Fatalf("decision changed between identical calls: %+v vs %+v", first, d)
		}
	}
}
