package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentriq/sentriq-backend/internal/auth"
)

const testSecret = "test-secret-test-secret-test-secret!"

func authTestHandler(t *testing.T) http.Handler {
	t.Helper()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := auth.ClaimsFromContext(r.Context())
		if claims != nil {
			w.Header().Set("X-Test-Subject", claims.SubjectID)
		}
		w.WriteHeader(http.StatusOK)
	})
	return Auth(testSecret)(inner)
}

func TestAuthPublicPathsSkipValidation(t *testing.T) {
	handler := authTestHandler(t)

	for _, path := range []string{
		"/healthz/live",
		"/healthz/ready",
		"/metrics",
		"/api/v1/auth/login",
		"/api/v1/auth/refresh",
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAuthMissingToken(t *testing.T) {
	handler := authTestHandler(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/overview", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestAuthValidToken(t *testing.T) {
	handler := authTestHandler(t)

	token, err := auth.IssueAccessToken(testSecret, "ident-1", "alice")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/overview", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ident-1", rec.Header().Get("X-Test-Subject"))
}

func TestAuthTokenQueryParam(t *testing.T) {
	handler := authTestHandler(t)

	token, err := auth.IssueAccessToken(testSecret, "ident-1", "alice")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/overview?token="+token, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRejectsRefreshToken(t *testing.T) {
	handler := authTestHandler(t)

	token, err := auth.IssueRefreshToken(testSecret, "ident-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/overview", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	handler := authTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/overview", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRejectsWrongScheme(t *testing.T) {
	handler := authTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/overview", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
