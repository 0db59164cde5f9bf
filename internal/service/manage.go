package service

import (
	"context"
	"fmt"

	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/platform"
	"github.com/sentriq/sentriq-backend/internal/repository"
)

// ManageService covers the admin surface: account enable/disable, license
// bookkeeping, and fleet-wide totals. Role enforcement happens at the API
// layer; these methods are mechanism only.
type ManageService struct {
	repo     repository.Repository
	platform *platform.Client
}

func NewManageService(repo repository.Repository, client *platform.Client) *ManageService {
	return &ManageService{repo: repo, platform: client}
}

// GroupEmailMap maps every group name to its owner's email.
func (s *ManageService) GroupEmailMap(ctx context.Context) (map[string]string, error) {
	return s.repo.GroupOwnerEmails(ctx)
}

// ListIdentities returns all accounts.
func (s *ManageService) ListIdentities(ctx context.Context) ([]*models.Identity, error) {
	return s.repo.ListIdentities(ctx)
}

// ToggleDisabled flips the account's disabled flag and returns the new state.
// Accounts are never deleted; disabling is the only off switch.
func (s *ManageService) ToggleDisabled(ctx context.Context, identityID string) (bool, error) {
	ident, err := s.repo.GetIdentity(ctx, identityID)
	if err != nil {
		return false, err
	}
	newState := !ident.Disabled
	if err := s.repo.SetDisabled(ctx, identityID, newState); err != nil {
		return false, err
	}
	return newState, nil
}

// UpdateLicense sets the account's license amount.
func (s *ManageService) UpdateLicense(ctx context.Context, identityID string, amount int) error {
	if amount < 0 {
		return fmt.Errorf("license amount must not be negative")
	}
	return s.repo.SetLicenseCount(ctx, identityID, amount)
}

// TotalLicenses sums the license count, for one account or fleet-wide.
func (s *ManageService) TotalLicenses(ctx context.Context, identityID string) (int, error) {
	if identityID != "" {
		ident, err := s.repo.GetIdentity(ctx, identityID)
		if err != nil {
			return 0, err
		}
		return ident.LicenseCount, nil
	}
	return s.repo.TotalLicenseCount(ctx)
}

// TotalActiveAgents counts agents active over the default window, optionally
// restricted to the given groups.
func (s *ManageService) TotalActiveAgents(ctx context.Context, groupNames []string) (int, error) {
	agents, err := s.platform.AgentsActiveBetween(ctx, models.DefaultWindow(), groupNames)
	if err != nil {
		return 0, err
	}
	return len(agents), nil
}
