package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	schema, err := migrations.All()
	require.NoError(t, err)
	require.NoError(t, repo.RunMigrations(schema))
	return repo
}

func TestIdentityRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ident := &models.Identity{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$12$notarealhash",
		Role:         "admin",
		LicenseCount: 5,
	}
	require.NoError(t, repo.CreateIdentity(ctx, ident))
	assert.NotEmpty(t, ident.ID, "create should assign an id")

	got, err := repo.GetIdentity(ctx, ident.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "admin", got.Role)
	assert.Equal(t, 5, got.LicenseCount)
	assert.False(t, got.Disabled)
	assert.Nil(t, got.LastLogin)

	byName, err := repo.GetIdentityByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ident.ID, byName.ID)
}

func TestGetIdentityNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.GetIdentity(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetIdentityByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateIdentityDefaultsRole(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ident := &models.Identity{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, repo.CreateIdentity(ctx, ident))

	got, err := repo.GetIdentity(ctx, ident.ID)
	require.NoError(t, err)
	assert.Equal(t, "operator", got.Role)
}

func TestSetDisabled(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ident := &models.Identity{Username: "carol", Email: "carol@example.com"}
	require.NoError(t, repo.CreateIdentity(ctx, ident))

	require.NoError(t, repo.SetDisabled(ctx, ident.ID, true))
	got, err := repo.GetIdentity(ctx, ident.ID)
	require.NoError(t, err)
	assert.True(t, got.Disabled)

	require.NoError(t, repo.SetDisabled(ctx, ident.ID, false))
	got, err = repo.GetIdentity(ctx, ident.ID)
	require.NoError(t, err)
	assert.False(t, got.Disabled)

	assert.ErrorIs(t, repo.SetDisabled(ctx, "missing", true), ErrNotFound)
}

func TestLicenseCounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	a := &models.Identity{Username: "a", Email: "a@example.com", LicenseCount: 3}
	b := &models.Identity{Username: "b", Email: "b@example.com", LicenseCount: 7}
	require.NoError(t, repo.CreateIdentity(ctx, a))
	require.NoError(t, repo.CreateIdentity(ctx, b))

	total, err := repo.TotalLicenseCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, total)

	require.NoError(t, repo.SetLicenseCount(ctx, a.ID, 0))
	total, err = repo.TotalLicenseCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	assert.ErrorIs(t, repo.SetLicenseCount(ctx, "missing", 1), ErrNotFound)
}

func TestTotalLicenseCountEmpty(t *testing.T) {
	repo := newTestRepo(t)

	// SUM over zero rows is NULL, which must read back as zero.
	total, err := repo.TotalLicenseCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestUpdateLastLogin(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	ident := &models.Identity{Username: "dave", Email: "dave@example.com"}
	require.NoError(t, repo.CreateIdentity(ctx, ident))
	require.NoError(t, repo.UpdateLastLogin(ctx, ident.ID))

	got, err := repo.GetIdentity(ctx, ident.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLogin)
	assert.False(t, got.LastLogin.IsZero())
}

func TestGroupsOwnedBy(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	owner := &models.Identity{Username: "owner", Email: "owner@example.com"}
	other := &models.Identity{Username: "other", Email: "other@example.com"}
	require.NoError(t, repo.CreateIdentity(ctx, owner))
	require.NoError(t, repo.CreateIdentity(ctx, other))

	for _, name := range []string{"plant-b", "plant-a"} {
		require.NoError(t, repo.CreateGroup(ctx, &models.Group{GroupName: name, OwnerID: owner.ID}))
	}
	require.NoError(t, repo.CreateGroup(ctx, &models.Group{GroupName: "plant-c", OwnerID: other.ID}))

	names, err := repo.GroupsOwnedBy(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"plant-a", "plant-b"}, names)

	none, err := repo.GroupsOwnedBy(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestGroupOwnerEmails(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	owner := &models.Identity{Username: "owner", Email: "owner@example.com"}
	require.NoError(t, repo.CreateIdentity(ctx, owner))
	require.NoError(t, repo.CreateGroup(ctx, &models.Group{GroupName: "plant-a", OwnerID: owner.ID}))
	require.NoError(t, repo.CreateGroup(ctx, &models.Group{GroupName: "plant-b", OwnerID: owner.ID}))

	emails, err := repo.GroupOwnerEmails(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"plant-a": "owner@example.com",
		"plant-b": "owner@example.com",
	}, emails)
}

func TestAuditLogRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	status := 200
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateAuditLog(ctx, &models.AuditLogEntry{
			Username:   "alice",
			Action:     "post",
			Decision:   "allow",
			StatusCode: &status,
			RequestIP:  "10.0.0.1",
		}))
	}

	entries, err := repo.ListAuditLogs(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.Timestamp.IsZero())
		assert.Equal(t, "alice", e.Username)
	}
}

func TestCreateAuthEvent(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.CreateAuthEvent(context.Background(), &models.AuthEvent{
		Username:  "alice",
		EventType: "login_failure",
		IPAddress: "10.0.0.1",
	})
	require.NoError(t, err)
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
