// Package audit writes the append-only trail for decisions and account
// changes.
package audit

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sentriq/sentriq-backend/internal/auth"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/repository"
)

// CreateEntry writes an audit log entry. Append-only; write failures never
// fail the request.
func CreateEntry(ctx context.Context, repo repository.AuditRepository, e *models.AuditLogEntry) {
	if repo == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_ = repo.CreateAuditLog(ctx, e)
}

// RecordAuthEvent stores a login/logout event. Failures are swallowed the same
// way as audit log writes.
func RecordAuthEvent(ctx context.Context, repo repository.AuditRepository, event *models.AuthEvent) {
	if repo == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = repo.CreateAuthEvent(ctx, event)
}

// RequestInfo extracts caller and request metadata for audit logging.
func RequestInfo(r *http.Request, statusCode int) (identityID *string, username string, requestIP string) {
	requestIP = ClientIP(r)
	username = "anonymous"
	if claims := auth.ClaimsFromContext(r.Context()); claims != nil {
		sid := claims.SubjectID
		identityID = &sid
		username = claims.Username
	}
	return identityID, username, requestIP
}

// ClientIP returns the originating address, preferring X-Forwarded-For.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx > 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	return r.RemoteAddr
}

// ActionFromRequest derives the audited action and target agent from the
// request path and method.
func ActionFromRequest(r *http.Request, agentRef string) (action string, agentID *string) {
	if agentRef != "" {
		agentID = &agentRef
	}
	path := r.URL.Path
	switch r.Method {
	case http.MethodPost:
		switch {
		case strings.Contains(path, "/modbus"):
			action = "modbus_ingest"
		case strings.Contains(path, "/disable"):
			action = "account_toggle"
		default:
			action = "post"
		}
	case http.MethodPut:
		if strings.Contains(path, "/license") {
			action = "license_update"
		} else {
			action = "put"
		}
	default:
		action = strings.ToLower(r.Method)
	}
	return action, agentID
}
