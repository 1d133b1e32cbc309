package domain

import "slices"

// =============================================================================
// Feature
// =============================================================================

// Feature is one addressable unit of UI functionality within a manifest.
// Features are built once when a manifest is parsed and are never modified;
// per-request filtering produces new slices instead.
type Feature struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Path      string `json:"path,omitempty"` // empty for non-route features such as navigation entries
	Icon      string `json:"icon"`
	Enabled   bool   `json:"enabled"`
	Component string `json:"component"`

	Tags        []string `json:"tags"`
	Permissions []string `json:"permissions"` // all required
	Features    []string `json:"features"`    // feature keys, all required

	Clients *ClientConstraints `json:"clients,omitempty"`
}

// IsRoute reports whether the feature is bound to a route.
func (f Feature) IsRoute() bool {
	return f.Path != ""
}

// HasTag reports whether the feature carries the tag.
func (f Feature) HasTag(tag string) bool {
	return slices.Contains(f.Tags, tag)
}

// =============================================================================
// Manifest
// =============================================================================

// DefaultModuleName is used when a configuration payload does not name its module.
const DefaultModuleName = "module"

// Manifest is one installed micro-frontend module.
type Manifest struct {
	Name     string    `json:"name"`
	URI      string    `json:"uri"`
	Module   string    `json:"module"`
	Features []Feature `json:"features"`
}

// WithFeatures returns a copy of the manifest carrying the given features.
// The receiver is left untouched.
func (m Manifest) WithFeatures(features []Feature) Manifest {
	return Manifest{
		Name:     m.Name,
		URI:      m.URI,
		Module:   m.Module,
		Features: features,
	}
}
