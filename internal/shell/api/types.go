package api

import (
	"encoding/json"
	"time"
)

// =============================================================================
// Request Types
// =============================================================================

// CreateMicrofrontendRequest is the request body for creating a microfrontend.
// Configuration may be sent as a JSON object or as a JSON-encoded string.
type CreateMicrofrontendRequest struct {
	Name          string          `json:"name"`
	URI           string          `json:"uri"`
	Enabled       *bool           `json:"enabled,omitempty"`
	Configuration json.RawMessage `json:"configuration"`
}

// UpdateMicrofrontendRequest is the request body for updating a microfrontend.
// VersionID must match the stored version.
type UpdateMicrofrontendRequest struct {
	ID            string          `json:"id"`
	VersionID     int             `json:"version_id"`
	Name          string          `json:"name"`
	URI           string          `json:"uri"`
	Enabled       *bool           `json:"enabled,omitempty"`
	Configuration json.RawMessage `json:"configuration"`
}

// ReadMicrofrontendRequest is the request body for reading one microfrontend.
type ReadMicrofrontendRequest struct {
	ID string `json:"id"`
}

// SetFeatureFlagRequest is the request body for setting a feature flag.
type SetFeatureFlagRequest struct {
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
}

// =============================================================================
// Response Types
// =============================================================================

// MicrofrontendResponse is the response for microfrontend operations.
type MicrofrontendResponse struct {
	ID            string    `json:"id"`
	VersionID     int       `json:"version_id"`
	Name          string    `json:"name"`
	URI           string    `json:"uri"`
	Enabled       bool      `json:"enabled"`
	Configuration string    `json:"configuration"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListMicrofrontendsResponse is the response for listing microfrontends.
type ListMicrofrontendsResponse struct {
	Microfrontends []MicrofrontendResponse `json:"microfrontends"`
	Total          int                     `json:"total"`
}

// FeatureFlagResponse is the response for feature flag operations.
type FeatureFlagResponse struct {
	Key         string    `json:"key"`
	Enabled     bool      `json:"enabled"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFeatureFlagsResponse is the response for listing feature flags.
type ListFeatureFlagsResponse struct {
	Features []FeatureFlagResponse `json:"features"`
	Total    int                   `json:"total"`
}

// ReloadResponse is the response for a registry reload.
type ReloadResponse struct {
	Modules []string        `json:"modules"`
	Skipped []SkippedModule `json:"skipped"`
}

// SkippedModule is a module left out of the registry.
type SkippedModule struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// ErrorResponse is the error response format.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
