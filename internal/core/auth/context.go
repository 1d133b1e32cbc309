// Package auth provides authentication context and authorization functions.
// Identity and permissions are asserted by the gateway in front of the portal.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
)

// =============================================================================
// Context Key
// =============================================================================

type contextKey string

const authContextKey contextKey = "auth"

// =============================================================================
// Types
// =============================================================================

// Context represents the authentication and authorization context for a request.
// It is extracted from gateway-injected headers and stored in the request context.
type Context struct {
	// ReferenceID is the gateway user ID (from X-User-ID header or the token subject)
	ReferenceID string

	// Permissions granted to the caller (from X-Permissions header or the token "perms" claim)
	Permissions []string

	// KeyID is the API key ID if API key authentication was used (from X-Key-ID header)
	KeyID string

	// Authenticated indicates whether the request is authenticated
	Authenticated bool
}

// =============================================================================
// Header Constants
// =============================================================================

const (
	// HeaderUserID is the header containing the authenticated user's ID
	HeaderUserID = "X-User-ID"

	// HeaderPermissions is the header containing the comma separated permissions
	HeaderPermissions = "X-Permissions"

	// HeaderKeyID is the header containing the API key ID
	HeaderKeyID = "X-Key-ID"

	// HeaderGatewaySecret is the header containing the shared secret for validation
	HeaderGatewaySecret = "X-Gateway-Secret"
)

// =============================================================================
// Context Extraction
// =============================================================================

// ExtractFromRequest extracts auth context from HTTP request headers.
// If neither X-User-ID nor a bearer token is present, returns an unauthenticated context.
func ExtractFromRequest(r *http.Request) Context {
	return ExtractFromHeaders(r.Header)
}

// HeaderGetter is an interface for getting header values.
// This allows testing without requiring an http.Request.
type HeaderGetter interface {
	Get(key string) string
}

// ExtractFromHeaders extracts auth context from headers using the HeaderGetter interface.
//
// Auth sources (checked in order):
//  1. X-User-ID header (injected by the gateway), permissions from X-Permissions
//  2. Authorization: Bearer {jwt}, decode payload, extract sub and perms claims
//
// The permissions header is honoured for unauthenticated callers too, so a
// gateway may grant anonymous permissions.
func ExtractFromHeaders(headers HeaderGetter) Context {
	permissions := ParsePermissions(headers.Get(HeaderPermissions))
	referenceID := headers.Get(HeaderUserID)

	// No signature verification, the gateway has already validated the token.
	if referenceID == "" {
		claims := parseBearer(headers.Get("Authorization"))
		if claims == nil || claims.Sub == "" {
			return Context{Permissions: permissions, Authenticated: false}
		}
		if len(claims.Perms) > 0 {
			permissions = normalizePermissions(claims.Perms)
		}
		return Context{
			ReferenceID:   claims.Sub,
			Permissions:   permissions,
			Authenticated: true,
		}
	}

	return Context{
		ReferenceID:   referenceID,
		Permissions:   permissions,
		KeyID:         headers.Get(HeaderKeyID),
		Authenticated: true,
	}
}

// jwtClaims holds the fields extracted from a JWT payload.
type jwtClaims struct {
	Sub   string   `json:"sub"`
	Perms []string `json:"perms"`
}

// parseBearer extracts claims from a Bearer token by base64-decoding the payload.
func parseBearer(authHeader string) *jwtClaims {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil
	}
	parts := strings.Split(authHeader[7:], ".")
	if len(parts) != 3 {
		return nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil
	}
	var claims jwtClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil
	}
	return &claims
}

// =============================================================================
// Permission Parsing
// =============================================================================

// ParsePermissions splits a comma separated permission list. Blank entries
// and duplicates are dropped; order is kept.
func ParsePermissions(header string) []string {
	if strings.TrimSpace(header) == "" {
		return nil
	}
	return normalizePermissions(strings.Split(header, ","))
}

func normalizePermissions(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// =============================================================================
// Context Storage
// =============================================================================

// WithContext stores the auth context in the request context.
func WithContext(ctx context.Context, authCtx Context) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

// FromContext retrieves the auth context from the request context.
// If no auth context is found, returns an unauthenticated context.
func FromContext(ctx context.Context) Context {
	if authCtx, ok := ctx.Value(authContextKey).(Context); ok {
		return authCtx
	}
	return Context{Authenticated: false}
}

// =============================================================================
// Helper Types for Testing
// =============================================================================

// MapHeaderGetter wraps a map to implement HeaderGetter interface.
// This is useful for testing without creating http.Request objects.
type MapHeaderGetter map[string]string

func (m MapHeaderGetter) Get(key string) string {
	return m[key]
}
