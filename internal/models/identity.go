package models

import "time"

// Identity is a dashboard account. Agents report telemetry on their own channel;
// this is the operator-facing identity the permission evaluator reads.
type Identity struct {
	ID           string     `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         string     `json:"role" db:"role"` // operator | admin
	Disabled     bool       `json:"disabled" db:"disabled"`
	LicenseCount int        `json:"license_count" db:"license_count"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// IsAdmin returns true for admin accounts. Admins bypass group scoping entirely.
func (i *Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
