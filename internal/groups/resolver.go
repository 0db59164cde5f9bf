// Package groups maps an identity to the agent groups it owns and those
// groups to their member agents.
package groups

import (
	"context"
	"fmt"
	"time"

	"github.com/sentriq/sentriq-backend/internal/platform"
	"github.com/sentriq/sentriq-backend/internal/repository"
)

// Resolver joins the local group-ownership table with the platform's group
// membership. Implements authz.GroupResolver.
type Resolver struct {
	repo            repository.GroupRepository
	platform        *platform.Client
	platformTimeout time.Duration
}

func NewResolver(repo repository.GroupRepository, client *platform.Client, platformTimeout time.Duration) *Resolver {
	if platformTimeout <= 0 {
		platformTimeout = 10 * time.Second
	}
	return &Resolver{repo: repo, platform: client, platformTimeout: platformTimeout}
}

// GroupsOwnedBy returns the group names owned by the identity. Owning no
// groups is a normal state, not an error.
func (r *Resolver) GroupsOwnedBy(ctx context.Context, identityID string) ([]string, error) {
	names, err := r.repo.GroupsOwnedBy(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("querying owned groups: %w", err)
	}
	return names, nil
}

// AgentsInGroups returns the member agents of the given groups as reported by
// the platform. The call is bounded by its own timeout and holds no locks, so
// a slow platform delays only the one request that asked.
func (r *Resolver) AgentsInGroups(ctx context.Context, groupNames []string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.platformTimeout)
	defer cancel()
	return r.platform.AgentsInGroups(ctx, groupNames)
}
