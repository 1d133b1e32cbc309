package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/artpar/portal/internal/core/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

// testHandler echoes the auth context found in the request.
func testHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.FromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"authenticated": ctx.Authenticated,
			"reference_id":  ctx.ReferenceID,
			"permissions":   ctx.Permissions,
		})
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// =============================================================================
// AuthMiddleware Tests
// =============================================================================

func TestAuthMiddleware_ExtractsContext(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{}).Handler(testHandler())
	req := httptest.NewRequest(http.MethodPost, "/portal/deployment", nil)
	req.Header.Set(auth.HeaderUserID, "user_123")
	req.Header.Set(auth.HeaderPermissions, "user.read, user.write")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, true, resp["authenticated"])
	assert.Equal(t, "user_123", resp["reference_id"])
	assert.Equal(t, []any{"user.read", "user.write"}, resp["permissions"])
}

func TestAuthMiddleware_NoHeaders(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{}).Handler(testHandler())
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["authenticated"])
}

func TestAuthMiddleware_SharedSecret(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{SharedSecret: "s3cret"}).Handler(testHandler())

	tests := []struct {
		name   string
		secret string
		want   int
	}{
		{"valid", "s3cret", http.StatusOK},
		{"wrong", "nope", http.StatusForbidden},
		{"missing", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.secret != "" {
				req.Header.Set(auth.HeaderGatewaySecret, tt.secret)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusForbidden {
				assert.Equal(t, "forbidden", decode(t, rec)["code"])
			}
		})
	}
}

// =============================================================================
// Require Tests
// =============================================================================

func TestRequireAuth(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{}).Handler(RequireAuth(nil)(testHandler()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(auth.HeaderUserID, "user_1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequire(t *testing.T) {
	handler := NewAuthMiddleware(AuthConfig{}).Handler(
		Require(auth.CanManageMicrofrontends, nil)(testHandler()),
	)

	tests := []struct {
		name        string
		userID      string
		permissions string
		want        int
	}{
		{"anonymous", "", auth.AdminPermission, http.StatusUnauthorized},
		{"no admin", "user_1", "user.read", http.StatusForbidden},
		{"admin", "user_1", auth.AdminPermission, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/portal/microfrontend/create", nil)
			if tt.userID != "" {
				req.Header.Set(auth.HeaderUserID, tt.userID)
			}
			req.Header.Set(auth.HeaderPermissions, tt.permissions)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
