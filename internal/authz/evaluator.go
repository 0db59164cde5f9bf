// Package authz decides whether an identity may read telemetry for a target
// agent set, and which agents any resulting query is allowed to touch.
package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/pkg/metrics"
)

// GroupResolver supplies the caller's group ownership and the platform-reported
// agent membership of those groups.
type GroupResolver interface {
	GroupsOwnedBy(ctx context.Context, identityID string) ([]string, error)
	AgentsInGroups(ctx context.Context, groupNames []string) ([]string, error)
}

// AgentDirectory resolves a caller-supplied agent reference (id or display
// name) to the canonical agent ID. Names are labels, not membership facts:
// every specific-agent request goes through this before the scope check.
type AgentDirectory interface {
	ResolveAgentRef(ctx context.Context, ref string) (models.AgentRef, error)
}

// Evaluator is the permission decision engine. Stateless and safe for
// concurrent use; all collaborators are injected.
type Evaluator struct {
	groups    GroupResolver
	directory AgentDirectory
}

func NewEvaluator(groups GroupResolver, directory AgentDirectory) *Evaluator {
	return &Evaluator{groups: groups, directory: directory}
}

// Evaluate applies the scoping rules in order, first match wins:
//
//  1. disabled account denies everything, admin or not
//  2. enabled admin gets the unrestricted scope
//  3. an operator owning no groups is denied
//  4. an aggregate target is allowed, restricted to the caller's own agents
//     (an empty platform-reported agent set still allows: the query runs and
//     legitimately returns zero rows)
//  5. a specific target is resolved to its canonical agent ID first, then
//     checked against the scope
//
// The window is re-validated between rules 1 and 2 as a second line of
// defense; the HTTP handlers already reject malformed windows before calling
// Evaluate, so the check does not participate in the rule ordering above.
//
// "No access" is a Decision value, never an error. Errors are reserved for
// platform/directory failures, which surface as ErrPlatformUnavailable so the
// caller retries instead of misreading an outage as a deny.
func (e *Evaluator) Evaluate(ctx context.Context, identity *models.Identity, target Target, window models.TimeWindow) (Decision, error) {
	if identity == nil {
		return Decision{}, ErrUnauthorized
	}
	if identity.Disabled {
		return e.record(deny(ReasonDisabledAccount)), nil
	}
	if err := window.Validate(); err != nil {
		return Decision{}, err
	}
	if identity.IsAdmin() {
		return e.record(allow(ReasonAdminOverride, ScopeAll())), nil
	}

	groups, err := e.groups.GroupsOwnedBy(ctx, identity.ID)
	if err != nil {
		return Decision{}, fmt.Errorf("resolving owned groups: %w", err)
	}
	if len(groups) == 0 {
		return e.record(deny(ReasonNoMatch)), nil
	}

	agents, err := e.groups.AgentsInGroups(ctx, groups)
	if err != nil {
		metrics.PlatformLookupFailuresTotal.Inc()
		return Decision{}, fmt.Errorf("resolving group membership: %w", errors.Join(ErrPlatformUnavailable, err))
	}
	scope := ScopeOf(agents)

	if target.All {
		return e.record(allow(ReasonGroupMatch, scope)), nil
	}

	ref, err := e.directory.ResolveAgentRef(ctx, target.AgentRef)
	if err != nil {
		if errors.Is(err, ErrAgentNotFound) {
			// An unknown ref and an out-of-scope agent are indistinguishable
			// to the caller.
			return e.record(deny(ReasonNoMatch)), nil
		}
		return Decision{}, fmt.Errorf("resolving agent ref: %w", errors.Join(ErrPlatformUnavailable, err))
	}
	if !scope.Contains(ref.AgentID) {
		return e.record(deny(ReasonNoMatch)), nil
	}
	return e.record(allow(ReasonGroupMatch, ScopeOf([]string{ref.AgentID}))), nil
}

func (e *Evaluator) record(d Decision) Decision {
	outcome := "deny"
	if d.Allowed {
		outcome = "allow"
	}
	metrics.AuthzDecisionsTotal.WithLabelValues(outcome, string(d.Reason)).Inc()
	return d
}
