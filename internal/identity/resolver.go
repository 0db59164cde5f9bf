// Package identity turns an authenticated principal into a normalized identity
// record.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/sentriq/sentriq-backend/internal/auth"
	"github.com/sentriq/sentriq-backend/internal/authz"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/repository"
)

// Resolver validates bearer tokens and loads the identity row. Resolution is
// never cached across requests: disable and license changes take effect on the
// very next call.
type Resolver struct {
	jwtSecret string
	repo      repository.IdentityRepository
}

func NewResolver(jwtSecret string, repo repository.IdentityRepository) *Resolver {
	return &Resolver{jwtSecret: jwtSecret, repo: repo}
}

// Resolve verifies the token and loads the current identity state.
func (r *Resolver) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, authz.ErrUnauthorized
	}
	claims, err := auth.ValidateToken(r.jwtSecret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", authz.ErrUnauthorized, err)
	}
	if claims.Refresh {
		return nil, fmt.Errorf("%w: refresh token used as access token", authz.ErrUnauthorized)
	}
	return r.ResolveSubject(ctx, claims.SubjectID)
}

// ResolveSubject loads the identity row for an already-verified subject.
func (r *Resolver) ResolveSubject(ctx context.Context, subjectID string) (*models.Identity, error) {
	ident, err := r.repo.GetIdentity(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, authz.ErrUnauthorized
		}
		return nil, fmt.Errorf("loading identity: %w", err)
	}
	return ident, nil
}
