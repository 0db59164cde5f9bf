package rest

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sentriq/sentriq-backend/internal/auth"
	"github.com/sentriq/sentriq-backend/internal/auth/oidc"
	"github.com/sentriq/sentriq-backend/internal/config"
	"github.com/sentriq/sentriq-backend/internal/pkg/logger"
	"github.com/sentriq/sentriq-backend/internal/repository"
)

// OIDCHandler handles the single sign-on flow.
type OIDCHandler struct {
	provider *oidc.Provider
	cfg      *config.Config
}

// NewOIDCHandler creates an OIDC handler, or nil when SSO is not configured.
func NewOIDCHandler(cfg *config.Config, repo repository.Repository) (*OIDCHandler, error) {
	if !cfg.OIDCEnabled {
		return nil, nil
	}
	provider, err := oidc.NewProvider(context.Background(), cfg, repo)
	if err != nil {
		return nil, err
	}
	return &OIDCHandler{provider: provider, cfg: cfg}, nil
}

// RegisterRoutes registers SSO routes. Safe to call on a nil handler.
func (h *OIDCHandler) RegisterRoutes(r *mux.Router) {
	if h == nil {
		return
	}
	r.HandleFunc("/auth/oidc/login", h.Login).Methods("GET")
	r.HandleFunc("/auth/oidc/callback", h.Callback).Methods("GET")
}

// Login redirects to the identity provider.
func (h *OIDCHandler) Login(w http.ResponseWriter, r *http.Request) {
	reqID := logger.FromContext(r.Context())
	state, err := h.provider.GenerateState()
	if err != nil {
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError, "Failed to generate state", reqID)
		return
	}
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// Callback completes the flow and issues this service's own token pair.
func (h *OIDCHandler) Callback(w http.ResponseWriter, r *http.Request) {
	reqID := logger.FromContext(r.Context())

	if !h.provider.ValidateState(r.URL.Query().Get("state")) {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid state parameter", reqID)
		return
	}
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Identity provider error: "+errParam, reqID)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Authorization code not provided", reqID)
		return
	}

	ctx := r.Context()
	token, err := h.provider.ExchangeCode(ctx, code)
	if err != nil {
		respondErrorWithCode(w, http.StatusBadGateway, ErrCodeUpstreamUnavailable, "Failed to exchange authorization code", reqID)
		return
	}
	idToken, claims, err := h.provider.VerifyIDToken(ctx, token)
	if err != nil {
		respondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Failed to verify identity token", reqID)
		return
	}

	ident, err := h.provider.ResolveIdentity(ctx, idToken.Subject, claims)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if ident.Disabled {
		respondErrorWithCode(w, http.StatusForbidden, ErrCodeForbidden, "Permission denied", reqID)
		return
	}

	accessToken, err := auth.IssueAccessToken(h.cfg.JWTSecret, ident.ID, ident.Username)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	refreshToken, err := auth.IssueRefreshToken(h.cfg.JWTSecret, ident.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(auth.AccessTokenExpiry.Seconds()),
		TokenType:    "Bearer",
	})
}
