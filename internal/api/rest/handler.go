// Package rest exposes the dashboard API. Handlers resolve the caller's
// identity fresh on every request, hand policy to the service layer, and map
// outcomes onto the error taxonomy in errors.go.
package rest

import (
	"net/http"

	"github.com/sentriq/sentriq-backend/internal/auth"
	"github.com/sentriq/sentriq-backend/internal/identity"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/pkg/logger"
	"github.com/sentriq/sentriq-backend/internal/pkg/validate"
)

// resolveIdentity loads the caller's current identity row from the verified
// claims. Never cached: a disable or license change applies to the next call.
func resolveIdentity(w http.ResponseWriter, r *http.Request, idents *identity.Resolver) (*models.Identity, bool) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil {
		reqID := logger.FromContext(r.Context())
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", reqID)
		return nil, false
	}
	ident, err := idents.ResolveSubject(r.Context(), claims.SubjectID)
	if err != nil {
		respondServiceError(w, r, err)
		return nil, false
	}
	return ident, true
}

// parseWindow reads start_time/end_time query params, defaulting to the last
// 30 days. A malformed or inverted window is a caller error naming the field.
func parseWindow(w http.ResponseWriter, r *http.Request) (models.TimeWindow, bool) {
	window, badField := validate.Window(r.URL.Query().Get("start_time"), r.URL.Query().Get("end_time"))
	if badField != "" {
		reqID := logger.FromContext(r.Context())
		respondStructuredError(w, http.StatusUnprocessableEntity, ErrCodeValidationFailed,
			"Invalid time window", reqID, map[string]string{"field": badField})
		return models.TimeWindow{}, false
	}
	return window, true
}

// parseAgentRef validates the path's agent reference syntax before it goes
// anywhere near the directory.
func parseAgentRef(w http.ResponseWriter, r *http.Request, ref string) bool {
	if !validate.AgentRef(ref) {
		reqID := logger.FromContext(r.Context())
		respondStructuredError(w, http.StatusUnprocessableEntity, ErrCodeValidationFailed,
			"Invalid agent reference", reqID, map[string]string{"field": "agent"})
		return false
	}
	return true
}
