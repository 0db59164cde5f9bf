package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sentriq/sentriq-backend/internal/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository opens the database at dbPath (":memory:" in tests).
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// DB exposes the underlying handle for the telemetry store, which shares the
// connection but owns its own queries.
func (r *SQLiteRepository) DB() *sqlx.DB {
	return r.db
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ping verifies database connectivity.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RunMigrations runs database migrations.
func (r *SQLiteRepository) RunMigrations(migrationSQL string) error {
	_, err := r.db.Exec(migrationSQL)
	return err
}

// IdentityRepository implementation

func (r *SQLiteRepository) CreateIdentity(ctx context.Context, identity *models.Identity) error {
	if identity.ID == "" {
		identity.ID = uuid.New().String()
	}
	if identity.Role == "" {
		identity.Role = models.RoleOperator
	}
	query := `
		INSERT INTO identities (id, username, email, password_hash, role, disabled, license_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
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

func (r *SQLiteRepository) GetIdentity(ctx context.Context, id string) (*models.Identity, error) {
	var identity models.Identity
	err := r.db.GetContext(ctx, &identity, `SELECT * FROM identities WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *SQLiteRepository) GetIdentityByUsername(ctx context.Context, username string) (*models.Identity, error) {
	var identity models.Identity
	err := r.db.GetContext(ctx, &identity, `SELECT * FROM identities WHERE username = ?`, username)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *SQLiteRepository) ListIdentities(ctx context.Context) ([]*models.Identity, error) {
	identities := []*models.Identity{}
	err := r.db.SelectContext(ctx, &identities, `SELECT * FROM identities ORDER BY created_at`)
	return identities, err
}

func (r *SQLiteRepository) SetDisabled(ctx context.Context, id string, disabled bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE identities SET disabled = ? WHERE id = ?`, disabled, id)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(res)
}

func (r *SQLiteRepository) SetLicenseCount(ctx context.Context, id string, count int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE identities SET license_count = ? WHERE id = ?`, count, id)
	if err != nil {
		return err
	}
	return rowsAffectedOrNotFound(res)
}

func (r *SQLiteRepository) TotalLicenseCount(ctx context.Context) (int, error) {
	var total sql.NullInt64
	err := r.db.GetContext(ctx, &total, `SELECT SUM(license_count) FROM identities`)
	if err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}

func (r *SQLiteRepository) UpdateLastLogin(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE identities SET last_login = ? WHERE id = ?`, time.Now(), id)
	return err
}

// GroupRepository implementation

func (r *SQLiteRepository) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	query := `INSERT INTO groups (id, group_name, owner_id, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, group.ID, group.GroupName, group.OwnerID, time.Now())
	return err
}

// GroupsOwnedBy is an indexed lookup on owner_id: O(groups owned), not
// O(all groups). An identity owning no groups returns an empty slice.
func (r *SQLiteRepository) GroupsOwnedBy(ctx context.Context, identityID string) ([]string, error) {
	names := []string{}
	err := r.db.SelectContext(ctx, &names,
		`SELECT group_name FROM groups WHERE owner_id = ? ORDER BY group_name`, identityID)
	return names, err
}

func (r *SQLiteRepository) GroupOwnerEmails(ctx context.Context) (map[string]string, error) {
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

func (r *SQLiteRepository) CreateAuditLog(ctx context.Context, entry *models.AuditLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	query := `
		INSERT INTO audit_logs (id, timestamp, identity_id, username, action, agent_id, decision, status_code, request_ip, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Timestamp, entry.IdentityID, entry.Username, entry.Action,
		entry.AgentID, entry.Decision, entry.StatusCode, entry.RequestIP, entry.Details,
	)
	return err
}

func (r *SQLiteRepository) CreateAuthEvent(ctx context.Context, event *models.AuthEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	query := `
		INSERT INTO auth_events (id, identity_id, username, event_type, ip_address, user_agent, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.IdentityID, event.Username, event.EventType,
		event.IPAddress, event.UserAgent, event.Timestamp,
	)
	return err
}

func (r *SQLiteRepository) ListAuditLogs(ctx context.Context, limit int) ([]*models.AuditLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	entries := []*models.AuditLogEntry{}
	err := r.db.SelectContext(ctx, &entries,
		`SELECT * FROM audit_logs ORDER BY timestamp DESC LIMIT ?`, limit)
	return entries, err
}

func rowsAffectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
