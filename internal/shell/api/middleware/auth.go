// Package middleware provides HTTP middleware for the portal API.
// Identity and permissions are asserted by the gateway in front of the service.
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/artpar/portal/internal/core/auth"
)

// =============================================================================
// Auth Configuration
// =============================================================================

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	// SharedSecret is an optional secret to validate the X-Gateway-Secret header.
	// If empty, secret validation is skipped.
	SharedSecret string

	// Logger for auth middleware logging.
	Logger *slog.Logger
}

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware extracts the auth context from gateway headers and stores it
// in the request context.
type AuthMiddleware struct {
	config AuthConfig
}

// NewAuthMiddleware creates a new auth middleware with the given config.
func NewAuthMiddleware(cfg AuthConfig) *AuthMiddleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AuthMiddleware{config: cfg}
}

// Handler returns the middleware handler function.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.config.SharedSecret != "" {
			if r.Header.Get(auth.HeaderGatewaySecret) != m.config.SharedSecret {
				m.config.Logger.Warn("invalid gateway secret",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
				)
				writeJSONError(w, http.StatusForbidden, "invalid gateway secret", "forbidden")
				return
			}
		}

		ctx := auth.ExtractFromRequest(r)
		r = r.WithContext(auth.WithContext(r.Context(), ctx))

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Require Middleware
// =============================================================================

// RequireAuth rejects unauthenticated requests with 401.
// Must be used AFTER AuthMiddleware.
func RequireAuth(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.FromContext(r.Context())

			if !ctx.Authenticated {
				logger.Warn("unauthenticated request to protected endpoint",
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path,
					"method", r.Method,
				)
				writeJSONError(w, http.StatusUnauthorized, "authentication required", "unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Require rejects requests whose auth context fails allowed with 403.
// Unauthenticated requests get 401. Must be used AFTER AuthMiddleware.
func Require(allowed func(auth.Context) bool, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	requireAuth := RequireAuth(logger)
	return func(next http.Handler) http.Handler {
		return requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.FromContext(r.Context())

			if !allowed(ctx) {
				logger.Warn("forbidden request",
					"reference_id", ctx.ReferenceID,
					"path", r.URL.Path,
					"method", r.Method,
				)
				writeJSONError(w, http.StatusForbidden, "insufficient permissions", "forbidden")
				return
			}

			next.ServeHTTP(w, r)
		}))
	}
}

// =============================================================================
// JSON Error Response
// =============================================================================

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSONError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message, Code: code})
}
