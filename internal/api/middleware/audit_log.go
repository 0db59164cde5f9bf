package middleware

import (
	"net/http"
	"strings"

	"github.com/sentriq/sentriq-backend/internal/audit"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/repository"
)

// responseRecorder wraps http.ResponseWriter to capture the status code.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// AuditLog records mutating operations (POST, PUT, PATCH, DELETE) in the
// append-only trail. Auth routes keep their own dedicated event log.
func AuditLog(repo repository.AuditRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}
			if strings.Contains(r.URL.Path, "/auth/") {
				next.ServeHTTP(w, r)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if repo == nil {
				return
			}
			identityID, username, requestIP := audit.RequestInfo(r, rec.statusCode)
			action, agentID := audit.ActionFromRequest(r, "")
			decision := "allow"
			if rec.statusCode == http.StatusForbidden || rec.statusCode == http.StatusUnauthorized {
				decision = "deny"
			}
			statusCode := rec.statusCode
			audit.CreateEntry(r.Context(), repo, &models.AuditLogEntry{
				IdentityID: identityID,
				Username:   username,
				Action:     action,
				AgentID:    agentID,
				Decision:   decision,
				StatusCode: &statusCode,
				RequestIP:  requestIP,
				Details:    r.Method + " " + r.URL.Path,
			})
		})
	}
}
