package filter

import (
	"context"
	"slices"

	"github.com/artpar/portal/internal/core/domain"
)

// SecretTag hides a feature from every deployment.
const SecretTag = "secret"

// Enabled rejects features whose enabled flag is false.
func Enabled() FeatureFilter {
	return FeatureFilterFunc(func(_ context.Context, f domain.Feature, _ Context) (bool, error) {
		return f.Enabled, nil
	})
}

// RejectTags rejects features carrying any of the given tags.
func RejectTags(tags ...string) FeatureFilter {
	rejected := slices.Clone(tags)
	return FeatureFilterFunc(func(_ context.Context, f domain.Feature, _ Context) (bool, error) {
		for _, t := range rejected {
			if f.HasTag(t) {
				return false, nil
			}
		}
		return true, nil
	})
}

// Permissions accepts a feature only when the authority confirms every
// permission it lists. Features without permissions are always accepted.
func Permissions(authority PermissionAuthority) FeatureFilter {
	return FeatureFilterFunc(func(ctx context.Context, f domain.Feature, _ Context) (bool, error) {
		for _, name := range f.Permissions {
			ok, err := authority.HasPermission(ctx, name)
			if err != nil {
				return false, &AuthorityError{Authority: "permission", Key: name, Err: err}
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	})
}

// FeatureDependencies accepts a feature only when the authority confirms
// every feature flag it depends on.
func FeatureDependencies(authority FeatureAuthority) FeatureFilter {
	return FeatureFilterFunc(func(ctx context.Context, f domain.Feature, _ Context) (bool, error) {
		for _, name := range f.Features {
			ok, err := authority.HasFeature(ctx, name)
			if err != nil {
				return false, &AuthorityError{Authority: "feature", Key: name, Err: err}
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	})
}

// Defaults returns the built-in feature filters in evaluation order:
// enabled, tag, permission, feature dependency. With no rejected tags the
// secret tag is used.
func Defaults(permissions PermissionAuthority, features FeatureAuthority, rejectedTags ...string) []FeatureFilter {
	if len(rejectedTags) == 0 {
		rejectedTags = []string{SecretTag}
	}
	return []FeatureFilter{
		Enabled(),
		RejectTags(rejectedTags...),
		Permissions(permissions),
		FeatureDependencies(features),
	}
}
