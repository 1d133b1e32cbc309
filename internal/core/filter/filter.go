// Package filter defines the policy predicates applied to manifests and
// features when composing a deployment.
//
// Filters are pure with respect to acceptance. They may consult injected
// authorities, which are expected to be read-only lookups. An authority
// failure is returned as an error and never treated as accept or reject.
package filter

import (
	"context"
	"errors"
	"fmt"

	"github.com/artpar/portal/internal/core/domain"
)

// =============================================================================
// Context
// =============================================================================

// Context is the per-request input shared by all filters of one computation.
type Context struct {
	// HasSession is reserved for session-aware filters. It is always false.
	HasSession bool

	// ClientInfo is nil when the request did not describe its client.
	ClientInfo *domain.ClientInfo
}

// =============================================================================
// Filter Interfaces
// =============================================================================

// ManifestFilter decides whether a whole manifest is delivered.
type ManifestFilter interface {
	Accept(ctx context.Context, m domain.Manifest, fc Context) (bool, error)
}

// FeatureFilter decides whether a single feature is delivered.
type FeatureFilter interface {
	Accept(ctx context.Context, f domain.Feature, fc Context) (bool, error)
}

// ManifestFilterFunc adapts a function to ManifestFilter.
type ManifestFilterFunc func(ctx context.Context, m domain.Manifest, fc Context) (bool, error)

// Accept calls fn.
func (fn ManifestFilterFunc) Accept(ctx context.Context, m domain.Manifest, fc Context) (bool, error) {
	return fn(ctx, m, fc)
}

// FeatureFilterFunc adapts a function to FeatureFilter.
type FeatureFilterFunc func(ctx context.Context, f domain.Feature, fc Context) (bool, error)

// Accept calls fn.
func (fn FeatureFilterFunc) Accept(ctx context.Context, f domain.Feature, fc Context) (bool, error) {
	return fn(ctx, f, fc)
}

// AcceptAllManifests is the identity manifest filter.
var AcceptAllManifests ManifestFilter = ManifestFilterFunc(func(context.Context, domain.Manifest, Context) (bool, error) {
	return true, nil
})

// AcceptAllFeatures is the identity feature filter.
var AcceptAllFeatures FeatureFilter = FeatureFilterFunc(func(context.Context, domain.Feature, Context) (bool, error) {
	return true, nil
})

// =============================================================================
// Chains
// =============================================================================

// AcceptManifest reports whether every filter accepts m. Evaluation stops at
// the first rejection or error.
func AcceptManifest(ctx context.Context, filters []ManifestFilter, m domain.Manifest, fc Context) (bool, error) {
	for _, f := range filters {
		ok, err := f.Accept(ctx, m, fc)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// AcceptFeature reports whether every filter accepts f. Evaluation stops at
// the first rejection or error.
func AcceptFeature(ctx context.Context, filters []FeatureFilter, f domain.Feature, fc Context) (bool, error) {
	for _, filter := range filters {
		ok, err := filter.Accept(ctx, f, fc)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// =============================================================================
// Authorities
// =============================================================================

// ErrAuthorityUnavailable marks a failed permission or feature-flag lookup.
var ErrAuthorityUnavailable = errors.New("authority unavailable")

// PermissionAuthority confirms permissions held by the caller in ctx.
type PermissionAuthority interface {
	HasPermission(ctx context.Context, name string) (bool, error)
}

// FeatureAuthority confirms that a feature flag is active.
type FeatureAuthority interface {
	HasFeature(ctx context.Context, name string) (bool, error)
}

// AuthorityError wraps a failed authority lookup.
type AuthorityError struct {
	Authority string // "permission" or "feature"
	Key       string
	Err       error
}

func (e *AuthorityError) Error() string {
	return fmt.Sprintf("%s authority lookup %q: %v", e.Authority, e.Key, e.Err)
}

func (e *AuthorityError) Unwrap() error {
	return e.Err
}

// Is matches ErrAuthorityUnavailable.
func (e *AuthorityError) Is(target error) bool {
	return target == ErrAuthorityUnavailable
}
