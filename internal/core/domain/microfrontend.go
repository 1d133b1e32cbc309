package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrNameRequired          = errors.New("name is required")
	ErrURIRequired           = errors.New("uri is required")
	ErrConfigurationRequired = errors.New("configuration is required")
	ErrFlagKeyRequired       = errors.New("feature flag key is required")
)

// =============================================================================
// Microfrontend
// =============================================================================

// Microfrontend is the persisted configuration record of one module. Its
// Configuration holds the raw JSON feature payload that is parsed into a
// Manifest when the registry loads.
type Microfrontend struct {
	ID            string    `json:"id"`
	VersionID     int       `json:"version_id"`
	Name          string    `json:"name"`
	URI           string    `json:"uri"`
	Enabled       bool      `json:"enabled"`
	Configuration string    `json:"configuration"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewMicrofrontend creates a validated microfrontend record with a fresh ID.
func NewMicrofrontend(name, uri, configuration string, enabled bool) (*Microfrontend, error) {
	mfe := &Microfrontend{
		ID:            uuid.New().String(),
		Name:          strings.TrimSpace(name),
		URI:           strings.TrimSpace(uri),
		Enabled:       enabled,
		Configuration: configuration,
	}
	if err := mfe.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	mfe.CreatedAt = now
	mfe.UpdatedAt = now
	return mfe, nil
}

// Validate checks the record fields. The configuration payload itself is
// checked by the manifest parser.
func (m Microfrontend) Validate() error {
	if m.Name == "" {
		return ErrNameRequired
	}
	if m.URI == "" {
		return ErrURIRequired
	}
	if strings.TrimSpace(m.Configuration) == "" {
		return ErrConfigurationRequired
	}
	return nil
}

// =============================================================================
// Feature Flag
// =============================================================================

// FeatureFlag is a named switch that features may depend on.
type FeatureFlag struct {
	Key         string    `json:"key"`
	Enabled     bool      `json:"enabled"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the flag fields.
func (f FeatureFlag) Validate() error {
	if strings.TrimSpace(f.Key) == "" {
		return ErrFlagKeyRequired
	}
	return nil
}
