// Package oidc implements single sign-on against an external identity
// provider. SSO only authenticates; group scoping still comes from the local
// ownership rows and the agent platform.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/sentriq/sentriq-backend/internal/config"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/pkg/logger"
	"github.com/sentriq/sentriq-backend/internal/repository"
)

// Provider wraps the OIDC discovery document and OAuth2 config.
type Provider struct {
	provider     *oidc.Provider
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	cfg          *config.Config
	repo         repository.Repository
	roleMapping  map[string]string // IdP group -> role
	stateStore   map[string]time.Time
	mu           sync.Mutex
}

// NewProvider creates an OIDC provider from discovery.
func NewProvider(ctx context.Context, cfg *config.Config, repo repository.Repository) (*Provider, error) {
	if !cfg.OIDCEnabled || cfg.OIDCIssuerURL == "" {
		return nil, fmt.Errorf("OIDC not enabled or issuer URL not configured")
	}

	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	scopes := strings.Split(cfg.OIDCScopes, ",")
	for i := range scopes {
		scopes[i] = strings.TrimSpace(scopes[i])
	}
	if len(scopes) == 0 || scopes[0] == "" {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.OIDCClientID,
		ClientSecret: cfg.OIDCClientSecret,
		RedirectURL:  cfg.OIDCRedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       scopes,
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.OIDCClientID})

	roleMapping := make(map[string]string)
	if cfg.OIDCRoleMapping != "" {
		if err := json.Unmarshal([]byte(cfg.OIDCRoleMapping), &roleMapping); err != nil {
			logger.StdLogger().Warn("parsing OIDC role mapping", "error", err)
		}
	}

	p := &Provider{
		provider:     provider,
		oauth2Config: oauth2Config,
		verifier:     verifier,
		cfg:          cfg,
		repo:         repo,
		roleMapping:  roleMapping,
		stateStore:   make(map[string]time.Time),
	}
	go p.cleanupStates()
	return p, nil
}

// GenerateState mints a random state token for the OAuth2 flow.
func (p *Provider) GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	state := base64.URLEncoding.EncodeToString(b)
	p.mu.Lock()
	p.stateStore[state] = time.Now().Add(10 * time.Minute)
	p.mu.Unlock()
	return state, nil
}

// ValidateState validates and consumes a state token.
func (p *Provider) ValidateState(state string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	expiry, exists := p.stateStore[state]
	delete(p.stateStore, state)
	return exists && !time.Now().After(expiry)
}

func (p *Provider) cleanupStates() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		p.mu.Lock()
		now := time.Now()
		for state, expiry := range p.stateStore {
			if now.After(expiry) {
				delete(p.stateStore, state)
			}
		}
		p.mu.Unlock()
	}
}

// AuthCodeURL returns the OAuth2 authorization URL.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCode exchanges the authorization code for tokens.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return p.oauth2Config.Exchange(ctx, code)
}

// VerifyIDToken verifies the id_token and extracts its claims.
func (p *Provider) VerifyIDToken(ctx context.Context, token *oauth2.Token) (*oidc.IDToken, map[string]interface{}, error) {
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, nil, fmt.Errorf("id_token not found in token response")
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to verify ID token: %w", err)
	}
	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, nil, fmt.Errorf("failed to parse ID token claims: %w", err)
	}
	return idToken, claims, nil
}

// ResolveIdentity maps verified claims onto an account, creating one on first
// login. SSO accounts carry no password hash; a mapped admin group grants the
// admin role, everyone else is an operator with no groups until provisioned.
func (p *Provider) ResolveIdentity(ctx context.Context, sub string, claims map[string]interface{}) (*models.Identity, error) {
	email, _ := claims["email"].(string)
	username := email
	if username == "" {
		username = sub
	}
	if username == "" {
		return nil, fmt.Errorf("no email or sub claim found")
	}

	role := roleFromClaims(claims, p.cfg.OIDCGroupClaim, p.roleMapping)

	ident, err := p.repo.GetIdentityByUsername(ctx, username)
	if err == nil && ident != nil {
		return ident, nil
	}

	ident = &models.Identity{
		ID:       "oidc-" + sub,
		Username: username,
		Email:    email,
		Role:     role,
	}
	if err := p.repo.CreateIdentity(ctx, ident); err != nil {
		return nil, fmt.Errorf("provisioning SSO identity: %w", err)
	}
	return ident, nil
}

func roleFromClaims(claims map[string]interface{}, groupClaim string, mapping map[string]string) string {
	role := models.RoleOperator
	if groupClaim == "" {
		return role
	}
	var groups []string
	switch g := claims[groupClaim].(type) {
	case []interface{}:
		for _, raw := range g {
			if s, ok := raw.(string); ok {
				groups = append(groups, s)
			}
		}
	case string:
		groups = []string{g}
	}
	for _, group := range groups {
		if mapped, ok := mapping[group]; ok {
			return mapped
		}
	}
	return role
}
