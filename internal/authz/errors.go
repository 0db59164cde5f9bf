package authz

import "errors"

var (
	// ErrUnauthorized means no valid identity could be established.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is the API-facing form of any deny decision.
	ErrForbidden = errors.New("forbidden")

	// ErrPlatformUnavailable means the agent-management platform could not be
	// reached while resolving scope. Retryable; never converted into a deny.
	ErrPlatformUnavailable = errors.New("agent platform unavailable")

	// ErrAgentNotFound means the directory has no agent for the supplied ref.
	ErrAgentNotFound = errors.New("agent not found")
)
