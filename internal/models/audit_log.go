package models

import "time"

// AuditLogEntry is a single audit record for an authenticated API call.
// Append-only: no UPDATE or DELETE on audit records.
type AuditLogEntry struct {
	ID         string    `json:"id" db:"id"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
	IdentityID *string   `json:"identity_id,omitempty" db:"identity_id"`
	Username   string    `json:"username" db:"username"`
	Action     string    `json:"action" db:"action"`
	AgentID    *string   `json:"agent_id,omitempty" db:"agent_id"`
	Decision   string    `json:"decision,omitempty" db:"decision"` // allow | deny, empty for unauthenticated paths
	StatusCode *int      `json:"status_code,omitempty" db:"status_code"`
	RequestIP  string    `json:"request_ip" db:"request_ip"`
	Details    string    `json:"details,omitempty" db:"details"`
}

// AuthEvent is an authentication event (login success/failure, logout).
type AuthEvent struct {
	ID         string    `json:"id" db:"id"`
	IdentityID *string   `json:"identity_id,omitempty" db:"identity_id"`
	Username   string    `json:"username" db:"username"`
	EventType  string    `json:"event_type" db:"event_type"` // login_success, login_failure, logout
	IPAddress  string    `json:"ip_address" db:"ip_address"`
	UserAgent  string    `json:"user_agent,omitempty" db:"user_agent"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}
