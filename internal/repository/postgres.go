package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sentriq/sentriq-backend/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository connects using the given DSN.
func NewPostgresRepository(connectionString string) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &PostgresRepository{db: db}, nil
}

// DB exposes the underlying handle for the telemetry store.
func (r *PostgresRepository) DB() *sqlx.DB {
	return r.db
}

// Close closes the database connection.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping verifies database connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RunMigrations runs database migrations.
func (r *PostgresRepository) RunMigrations(migrationSQL string) error {
	_, err := r.db.Exec(migrationSQL)
	return err
}

// IdentityRepository implementation

func (r *PostgresRepository) CreateIdentity(ctx context.Context, identity *models.Identity) error {
	if identity.ID == "" {
		identity.ID = uuid.New().String()
	}
	if identity.Role == "" {
		identity.Role = models.RoleOperator
	}
	query := `
		INSERT INTO identities (id, username, email, password_hash, role, disabled, license_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		identity.ID,
		identity.Username,
		identity.Email,
		identity.PasswordHash,
		identity.Role,
		identity.Disabled,
		identity.LicenseCount,
		time.Now(),
	)
	return err
}

func (r *PostgresRepository) GetIdentity(ctx context.Context, id string) (*models.Identity, error) {
	var identity models.Identity
	err := r.db.GetContext(ctx, &identity, `SELECT * FROM identities WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *PostgresRepository) GetIdentityByUsername(ctx context.Context, username string) (*models.Identity, error) {
	var identity models.Identity
	err := r.db.GetContext(ctx, &identity, `SELECT * FROM identities WHERE username = $1`, username)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *PostgresRepository) ListIdentities(ctx context.Context) ([]*models.Identity, error) {
	identities := []*models.Identity{}
	err := r.db.SelectContext(ctx, &identities, `SELECT * FROM identities ORDER BY created_at`)
	return identities, err
}

func (r *PostgresRepository) SetDisabled(ctx context.Context, id string, disabled bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE identities SET disabled = $1 WHERE id = $2`, disabled, id)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(res)
}

func (r *PostgresRepository) SetLicenseCount(ctx context.Context, id string, count int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE identities SET license_count = $1 WHERE id = $2`, count, id)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(res)
}

func (r *PostgresRepository) TotalLicenseCount(ctx context.Context) (int, error) {
	var total sql.NullInt64
	err := r.db.GetContext(ctx, &total, `SELECT SUM(license_count) FROM identities`)
	if err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE identities SET last_login = $1 WHERE id = $2`, time.Now(), id)
	return err
}

// GroupRepository implementation

func (r *PostgresRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	query := `INSERT INTO groups (id, group_name, owner_id, created_at) VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, group.ID, group.GroupName, group.OwnerID, time.Now())
	return err
}

func (r *PostgresRepository) GroupsOwnedBy(ctx context.Context, identityID string) ([]string, error) {
	names := []string{}
	err := r.db.SelectContext(ctx, &names,
		`SELECT group_name FROM groups WHERE owner_id = $1 ORDER BY group_name`, identityID)
	return names, err
}

func (r *PostgresRepository) GroupOwnerEmails(ctx context.Context) (map[string]string, error) {
	rows := []struct {
		GroupName string `db:"group_name"`
		Email     string `db:"email"`
	}{}
	query := `
		SELECT g.group_name AS group_name, i.email AS email
		FROM groups g
		JOIN identities i ON g.owner_id = i.id
	`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.GroupName] = row.Email
	}
	return out, nil
}

// AuditRepository implementation

func (r *PostgresRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	query := `
		INSERT INTO audit_logs (id, timestamp, identity_id, username, action, agent_id, decision, status_code, request_ip, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Timestamp, entry.IdentityID, entry.Username, entry.Action,
		entry.AgentID, entry.Decision, entry.StatusCode, entry.RequestIP, entry.Details,
	)
	return err
}

func (r *PostgresRepository) CreateAuthEvent(ctx context.Context, event *models.AuthEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	query := `
		INSERT INTO auth_events (id, identity_id, username, event_type, ip_address, user_agent, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.IdentityID, event.Username, event.EventType,
		event.IPAddress, event.UserAgent, event.Timestamp,
	)
	return err
}

func (r *PostgresRepository) ListAuditLogs(ctx context.Context, limit int) ([]*models.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	entries := []*models.AuditLogEntry{}
	err := r.db.SelectContext(ctx, &entries,
		`SELECT * FROM audit_logs ORDER BY timestamp DESC LIMIT $1`, limit)
	return entries, err
}
