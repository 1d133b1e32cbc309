// Package authority provides the permission and feature sources used by the
// deployment filters.
package authority

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/artpar/portal/internal/core/auth"
	"github.com/artpar/portal/internal/core/filter"
)

// Permission authority modes.
const (
	ModeHeader   = "header"
	ModeStatic   = "static"
	ModeDatabase = "database"
)

// ErrUnknownMode is returned for an unsupported authority mode.
var ErrUnknownMode = errors.New("unknown authority mode")

var (
	_ filter.PermissionAuthority = HeaderPermissions{}
	_ filter.PermissionAuthority = (*StaticPermissions)(nil)
	_ filter.FeatureAuthority    = (*StaticFeatures)(nil)
)

// HeaderPermissions grants the permissions carried by the request's auth
// context, as injected by the gateway in X-Permissions.
type HeaderPermissions struct{}

// HasPermission reports whether the caller holds name.
func (HeaderPermissions) HasPermission(ctx context.Context, name string) (bool, error) {
	return auth.HasPermission(auth.FromContext(ctx), name), nil
}

// StaticPermissions grants a fixed set of permissions to every caller.
type StaticPermissions struct {
	granted []string
}

// NewStaticPermissions creates a StaticPermissions granting names.
func NewStaticPermissions(names ...string) *StaticPermissions {
	return &StaticPermissions{granted: slices.Clone(names)}
}

// HasPermission reports whether name is in the granted set.
func (p *StaticPermissions) HasPermission(_ context.Context, name string) (bool, error) {
	return slices.Contains(p.granted, name), nil
}

// StaticFeatures reports a fixed set of features as active.
type StaticFeatures struct {
	enabled []string
}

// NewStaticFeatures creates a StaticFeatures with the given keys active.
func NewStaticFeatures(keys ...string) *StaticFeatures {
	return &StaticFeatures{enabled: slices.Clone(keys)}
}

// HasFeature reports whether key is active.
func (f *StaticFeatures) HasFeature(_ context.Context, key string) (bool, error) {
	return slices.Contains(f.enabled, key), nil
}

// NewPermissionAuthority returns the permission authority for mode.
func NewPermissionAuthority(mode string, granted []string) (filter.PermissionAuthority, error) {
	switch mode {
	case ModeHeader, "":
		return HeaderPermissions{}, nil
	case ModeStatic:
		return NewStaticPermissions(granted...), nil
	default:
		return nil, fmt.Errorf("%w: permissions %q", ErrUnknownMode, mode)
	}
}

// NewFeatureAuthority returns the feature authority for mode. database is
// used for ModeDatabase and must be non-nil in that mode.
func NewFeatureAuthority(mode string, enabled []string, database filter.FeatureAuthority) (filter.FeatureAuthority, error) {
	switch mode {
	case ModeDatabase, "":
		if database == nil {
			return nil, fmt.Errorf("%w: features %q needs a store", ErrUnknownMode, mode)
		}
		return database, nil
	case ModeStatic:
		return NewStaticFeatures(enabled...), nil
	default:
		return nil, fmt.Errorf("%w: features %q", ErrUnknownMode, mode)
	}
}
