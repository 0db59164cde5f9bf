package authz

import "sort"

// Reason classifies why a decision allowed or denied a request. Reasons are
// internal: the API layer surfaces every deny as a plain Forbidden so callers
// cannot probe group topology or account state.
type Reason string

const (
	ReasonAdminOverride   Reason = "admin_override"
	ReasonGroupMatch      Reason = "group_match"
	ReasonNoMatch         Reason = "no_match"
	ReasonDisabledAccount Reason = "disabled_account"
)

// AgentScope is the set of agent IDs a decision permits a query to touch.
// "No filter" is the explicit All state, never a nil-slice sentinel.
type AgentScope struct {
	All    bool
	Agents []string
}

// ScopeAll returns the unrestricted scope (admin override).
func ScopeAll() AgentScope {
	return AgentScope{All: true}
}

// ScopeOf returns a scope over the given agent IDs, deduplicated and sorted so
// identical inputs always produce identical scopes.
func ScopeOf(agentIDs []string) AgentScope {
	seen := make(map[string]struct{}, len(agentIDs))
	ids := make([]string, 0, len(agentIDs))
	for _, id := range agentIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return AgentScope{Agents: ids}
}

// Contains reports whether the scope permits the given agent ID.
func (s AgentScope) Contains(agentID string) bool {
	if s.All {
		return true
	}
	for _, id := range s.Agents {
		if id == agentID {
			return true
		}
	}
	return false
}

// Empty reports a restricted scope with zero agents. An allowed decision with
// an empty scope is a legitimate zero-row query, not a denial.
func (s AgentScope) Empty() bool {
	return !s.All && len(s.Agents) == 0
}

// Decision is the evaluator's verdict for one request. Ephemeral: computed per
// request and never persisted.
type Decision struct {
	Allowed bool
	Reason  Reason
	Scope   AgentScope
}

func allow(reason Reason, scope AgentScope) Decision {
	return Decision{Allowed: true, Reason: reason, Scope: scope}
}

func deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Target describes the resource a request is asking for: either every agent
// the caller can see (All) or one specific agent by id or name.
type Target struct {
	All      bool
	AgentRef string // caller-supplied id or display name; resolved before any membership check
}

// TargetAll is an aggregate request with no specific agent.
func TargetAll() Target {
	return Target{All: true}
}

// TargetAgent targets one agent by id or name.
func TargetAgent(ref string) Target {
	return Target{AgentRef: ref}
}
