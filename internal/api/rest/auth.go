package rest

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/sentriq/sentriq-backend/internal/audit"
	"github.com/sentriq/sentriq-backend/internal/auth"
	"github.com/sentriq/sentriq-backend/internal/identity"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/pkg/logger"
	"github.com/sentriq/sentriq-backend/internal/repository"
)

const (
	loginRateLimit = 5 // per minute, per IP
	loginBurst     = 5
)

// AuthHandler handles /auth/*.
type AuthHandler struct {
	repo       repository.Repository
	identities *identity.Resolver
	jwtSecret  string

	loginLimiterMu sync.Mutex
	loginLimiters  map[string]*rate.Limiter
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(repo repository.Repository, idents *identity.Resolver, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		repo:          repo,
		identities:    idents,
		jwtSecret:     jwtSecret,
		loginLimiters: make(map[string]*rate.Limiter),
	}
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the response for POST /auth/login and /auth/refresh.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// RefreshRequest is the body for POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// MeResponse is the response for GET /auth/me.
type MeResponse struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	LicenseCount int      `json:"license_count"`
	Groups       []string `json:"groups,omitempty"`
}

// RegisterRoutes registers auth routes on the router.
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/auth/login", h.Login).Methods("POST")
	r.HandleFunc("/auth/refresh", h.Refresh).Methods("POST")
	r.HandleFunc("/auth/me", h.Me).Methods("GET")
}

func (h *AuthHandler) getIP(r *http.Request) string {
	ip := audit.ClientIP(r)
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return ip
}

// getLoginLimiter returns or creates the per-IP login limiter.
func (h *AuthHandler) getLoginLimiter(ip string) *rate.Limiter {
	h.loginLimiterMu.Lock()
	defer h.loginLimiterMu.Unlock()
	limiter, ok := h.loginLimiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(loginRateLimit)/60, loginBurst)
		h.loginLimiters[ip] = limiter
	}
	return limiter
}

func (h *AuthHandler) logAuthEvent(r *http.Request, eventType, username string, identityID *string) {
	audit.RecordAuthEvent(r.Context(), h.repo, &models.AuthEvent{
		IdentityID: identityID,
		Username:   username,
		EventType:  eventType,
		IPAddress:  h.getIP(r),
		UserAgent:  r.Header.Get("User-Agent"),
	})
}

// Login verifies credentials and issues an access/refresh token pair. Every
// credential failure gets the same response so usernames cannot be probed.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	reqID := logger.FromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Invalid request body", reqID)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Username and password required", reqID)
		return
	}

	ip := h.getIP(r)
	if !h.getLoginLimiter(ip).Allow() {
		h.logAuthEvent(r, "login_rate_limited", req.Username, nil)
		w.Header().Set("Retry-After", "60")
		respondErrorWithCode(w, http.StatusTooManyRequests, ErrCodeRateLimitExceeded,
			"Too many login attempts. Please try again later.", reqID)
		return
	}

	ident, err := h.repo.GetIdentityByUsername(r.Context(), req.Username)
	if err != nil || ident == nil || ident.Disabled || auth.CheckPassword(ident.PasswordHash, req.Password) != nil {
		h.logAuthEvent(r, "login_failure", req.Username, nil)
		respondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid username or password", reqID)
		return
	}

	accessToken, err := auth.IssueAccessToken(h.jwtSecret, ident.ID, ident.Username)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	refreshToken, err := auth.IssueRefreshToken(h.jwtSecret, ident.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	h.logAuthEvent(r, "login_success", ident.Username, &ident.ID)
	if err := h.repo.UpdateLastLogin(r.Context(), ident.ID); err != nil {
		logger.StdLogger().Warn("updating last login", "identity", ident.ID, "error", err)
	}

	respondJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(auth.AccessTokenExpiry.Seconds()),
		TokenType:    "Bearer",
	})
}

// Refresh exchanges a refresh token for a new access token. The identity row
// is re-read so a disable since issuance invalidates the refresh chain.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	reqID := logger.FromContext(r.Context())

	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		respondErrorWithCode(w, http.StatusBadRequest, ErrCodeInvalidRequest, "Refresh token required", reqID)
		return
	}

	claims, err := auth.ValidateToken(h.jwtSecret, req.RefreshToken)
	if err != nil || !claims.Refresh {
		respondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid refresh token", reqID)
		return
	}

	ident, err := h.repo.GetIdentity(r.Context(), claims.SubjectID)
	if err != nil || ident.Disabled {
		respondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid refresh token", reqID)
		return
	}

	accessToken, err := auth.IssueAccessToken(h.jwtSecret, ident.ID, ident.Username)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, LoginResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(auth.AccessTokenExpiry.Seconds()),
		TokenType:   "Bearer",
	})
}

// Me returns the caller's current account view.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ident, ok := resolveIdentity(w, r, h.identities)
	if !ok {
		return
	}
	groups, err := h.repo.GroupsOwnedBy(r.Context(), ident.ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, MeResponse{
		ID:           ident.ID,
		Username:     ident.Username,
		Email:        ident.Email,
		Role:         ident.Role,
		LicenseCount: ident.LicenseCount,
		Groups:       groups,
	})
}
