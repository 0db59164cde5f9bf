package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sentriq/sentriq-backend/internal/authz"
	"github.com/sentriq/sentriq-backend/internal/models"
	"github.com/sentriq/sentriq-backend/internal/pkg/logger"
	"github.com/sentriq/sentriq-backend/internal/repository"
	"github.com/sentriq/sentriq-backend/internal/service"
)

// APIError is the structured API error response.
type APIError struct {
	Error     string            `json:"error"`
	Code      string            `json:"code,omitempty"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// Error codes for common scenarios
const (
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
)

// respondStructuredError sends a structured error response with error code and details.
func respondStructuredError(w http.ResponseWriter, status int, code, message, requestID string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := APIError{
		Error:     message,
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Details:   details,
	}
	json.NewEncoder(w).Encode(err)
}

// respondErrorWithCode is a convenience wrapper for structured errors.
func respondErrorWithCode(w http.ResponseWriter, status int, code, message, requestID string) {
	respondStructuredError(w, status, code, message, requestID, nil)
}

// respondServiceError maps service-layer errors onto the API taxonomy. Every
// deny surfaces as the same plain Forbidden: the reason stays internal so
// callers cannot enumerate accounts or group topology.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := logger.FromContext(r.Context())
	switch {
	case errors.Is(err, authz.ErrUnauthorized):
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondErrorWithCode(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", reqID)
	case errors.Is(err, authz.ErrForbidden), errors.Is(err, service.ErrNotAllowed):
		respondErrorWithCode(w, http.StatusForbidden, ErrCodeForbidden, "Permission denied", reqID)
	case errors.Is(err, models.ErrInvalidWindow):
		respondStructuredError(w, http.StatusUnprocessableEntity, ErrCodeValidationFailed,
			"Invalid time window", reqID, map[string]string{"field": "start_time"})
	case errors.Is(err, authz.ErrPlatformUnavailable):
		respondErrorWithCode(w, http.StatusServiceUnavailable, ErrCodeUpstreamUnavailable,
			"Agent platform temporarily unavailable", reqID)
	case errors.Is(err, authz.ErrAgentNotFound), errors.Is(err, repository.ErrNotFound):
		respondErrorWithCode(w, http.StatusNotFound, ErrCodeNotFound, "Not found", reqID)
	default:
		logger.StdLogger().Error("internal error", "request_id", reqID, "error", err)
		respondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternalError,
			"An unexpected error occurred", reqID)
	}
}
