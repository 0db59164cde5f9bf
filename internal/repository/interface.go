package repository

import (
	"context"

	"github.com/sentriq/sentriq-backend/internal/models"
)

// IdentityRepository defines identity data access. Identities are soft-disabled,
// never deleted.
type IdentityRepository interface {
	CreateIdentity(ctx context.Context, identity *models.Identity) error
	GetIdentity(ctx context.Context, id string) (*models.Identity, error)
	GetIdentityByUsername(ctx context.Context, username string) (*models.Identity, error)
	ListIdentities(ctx context.Context) ([]*models.Identity, error)
	SetDisabled(ctx context.Context, id string, disabled bool) error
	SetLicenseCount(ctx context.Context, id string, count int) error
	TotalLicenseCount(ctx context.Context) (int, error)
	UpdateLastLogin(ctx context.Context, id string) error
}

// GroupRepository defines group ownership access. Group rows are written by the
// out-of-scope signup flow; this service only reads them.
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	GroupsOwnedBy(ctx context.Context, identityID string) ([]string, error)
	GroupOwnerEmails(ctx context.Context) (map[string]string, error)
}

// AuditRepository defines append-only audit writes.
type AuditRepository interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLogEntry) error
	CreateAuthEvent(ctx context.Context, event *models.AuthEvent) error
	ListAuditLogs(ctx context.Context, limit int) ([]*models.AuditLogEntry, error)
}

// Repository aggregates all repositories.
type Repository interface {
	IdentityRepository
	GroupRepository
	AuditRepository
	Ping(ctx context.Context) error
	Close() error
}
