// Package constraint decides whether a client satisfies a feature's client
// constraints, and derives the classification fields of a client description.
// This is part of the Functional Core - all functions are pure with no I/O.
package constraint

import (
	"slices"

	"github.com/artpar/portal/internal/core/domain"
)

// =============================================================================
// Matcher
// =============================================================================

// Matches reports whether info satisfies every populated field of c.
// A nil or empty c matches every client. Empty lists and nil bounds never reject.
func Matches(c *domain.ClientConstraints, info domain.ClientInfo) bool {
	if c == nil || c.IsEmpty() {
		return true
	}

	if !memberOf(c.ScreenSizes, info.ScreenSize) {
		return false
	}
	if !memberOf(c.Orientation, info.Orientation) {
		return false
	}
	if !memberOf(c.Platforms, info.Platform) {
		return false
	}

	if c.MinWidth != nil && info.Width < *c.MinWidth {
		return false
	}
	if c.MaxWidth != nil && info.Width > *c.MaxWidth {
		return false
	}
	if c.MinHeight != nil && info.Height < *c.MinHeight {
		return false
	}
	if c.MaxHeight != nil && info.Height > *c.MaxHeight {
		return false
	}

	for _, capability := range c.Capabilities {
		if !info.HasCapability(capability) {
			return false
		}
	}

	return true
}

// memberOf reports whether value is allowed by the list. An empty list allows
// everything; a wildcard entry allows any value.
func memberOf(allowed []string, value string) bool {
	if len(allowed) == 0 {
		return true
	}
	return slices.Contains(allowed, domain.Wildcard) || slices.Contains(allowed, value)
}
