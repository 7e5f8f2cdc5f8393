package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/booking-platform/internal/identity"
)

func protectedEcho(t *testing.T, verifier *identity.TokenVerifier, roles ...string) http.Handler {
	t.Helper()
	return RequireRole(verifier, roles...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFrom(r.Context())
		require.True(t, ok)
		w.Header().Set("X-Caller-Role", claims.Role)
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestRequireRoleMissingToken(t *testing.T) {
	verifier := identity.NewTokenVerifier("test-secret")
	handler := protectedEcho(t, verifier, identity.RolePatient)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleInvalidToken(t *testing.T) {
	verifier := identity.NewTokenVerifier("test-secret")
	handler := protectedEcho(t, verifier, identity.RolePatient)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleWrongRole(t *testing.T) {
	verifier := identity.NewTokenVerifier("test-secret")
	handler := protectedEcho(t, verifier, identity.RoleAdmin)

	token, err := verifier.Issue(uuid.New(), identity.RolePatient)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRolePassesClaims(t *testing.T) {
	verifier := identity.NewTokenVerifier("test-secret")
	handler := protectedEcho(t, verifier, identity.RoleDoctor, identity.RoleAdmin)

	token, err := verifier.Issue(uuid.New(), identity.RoleDoctor)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, identity.RoleDoctor, rec.Header().Get("X-Caller-Role"))
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, GetRequestID(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	// Generated when absent.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	// Propagated when supplied.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "trace-123", rec.Header().Get("X-Request-ID"))
}
