package deployment

import (
	"context"
	"fmt"

	"github.com/artpar/portal/internal/core/constraint"
	"github.com/artpar/portal/internal/core/domain"
	"github.com/artpar/portal/internal/core/filter"
)

// =============================================================================
// Composer
// =============================================================================

// ManifestSource supplies the manifests to compose from, in registry order.
// Implementations must return a snapshot that is not modified afterwards.
type ManifestSource interface {
	Manifests() []domain.Manifest
}

// ManifestList is a fixed ManifestSource.
type ManifestList []domain.Manifest

// Manifests returns the list itself.
func (l ManifestList) Manifests() []domain.Manifest {
	return l
}

// Config holds the collaborators of a Composer. Filters are evaluated in
// slice order.
type Config struct {
	Manifests       ManifestSource
	ManifestFilters []filter.ManifestFilter
	FeatureFilters  []filter.FeatureFilter
}

// Composer computes deployments. It is safe for concurrent use as long as its
// filters are.
type Composer struct {
	manifests       ManifestSource
	manifestFilters []filter.ManifestFilter
	featureFilters  []filter.FeatureFilter
}

// NewComposer creates a Composer. The filter slices are copied.
func NewComposer(cfg Config) *Composer {
	manifests := cfg.Manifests
	if manifests == nil {
		manifests = ManifestList(nil)
	}
	return &Composer{
		manifests:       manifests,
		manifestFilters: append([]filter.ManifestFilter(nil), cfg.ManifestFilters...),
		featureFilters:  append([]filter.FeatureFilter(nil), cfg.FeatureFilters...),
	}
}

// Compute builds the deployment for one request.
func (c *Composer) Compute(ctx context.Context, req domain.DeploymentRequest) (domain.Deployment, error) {
	return Compose(ctx, c.manifests.Manifests(), c.manifestFilters, c.featureFilters, NewFilterContext(req))
}

// NewFilterContext derives the filter context of a request. Sessions are not
// tracked, so HasSession is always false.
func NewFilterContext(req domain.DeploymentRequest) filter.Context {
	return filter.Context{
		HasSession: false,
		ClientInfo: req.Client,
	}
}

// =============================================================================
// Pure Composition
// =============================================================================

// Compose filters manifests for one filter context. A filter error aborts the
// whole computation; no partially filtered manifest is ever returned.
func Compose(
	ctx context.Context,
	manifests []domain.Manifest,
	manifestFilters []filter.ManifestFilter,
	featureFilters []filter.FeatureFilter,
	fc filter.Context,
) (domain.Deployment, error) {
	result := domain.NewDeployment()

	for _, m := range manifests {
		if err := ctx.Err(); err != nil {
			return domain.Deployment{}, err
		}

		ok, err := filter.AcceptManifest(ctx, manifestFilters, m, fc)
		if err != nil {
			return domain.Deployment{}, fmt.Errorf("manifest %s: %w", m.Name, err)
		}
		if !ok {
			continue
		}

		features, err := FilterFeatures(ctx, m.Features, featureFilters, fc)
		if err != nil {
			return domain.Deployment{}, fmt.Errorf("manifest %s: %w", m.Name, err)
		}

		result.Add(m.WithFeatures(features))
	}

	return result, nil
}

// FilterFeatures returns the features that pass the filters and the client
// constraints, deduplicated first-wins: by path for route features, by id
// for the rest. The input slice is not modified.
func FilterFeatures(
	ctx context.Context,
	features []domain.Feature,
	featureFilters []filter.FeatureFilter,
	fc filter.Context,
) ([]domain.Feature, error) {
	out := make([]domain.Feature, 0, len(features))
	seenPaths := make(map[string]struct{})
	seenIDs := make(map[string]struct{})

	for _, f := range features {
		ok, err := accept(ctx, f, featureFilters, fc)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", f.ID, err)
		}
		if !ok {
			continue
		}

		if f.IsRoute() {
			if _, seen := seenPaths[f.Path]; seen {
				continue
			}
			seenPaths[f.Path] = struct{}{}
		} else {
			if _, seen := seenIDs[f.ID]; seen {
				continue
			}
			seenIDs[f.ID] = struct{}{}
		}

		out = append(out, f)
	}

	return out, nil
}

// accept applies the feature filters and, when the client is known, the
// client constraints.
func accept(ctx context.Context, f domain.Feature, featureFilters []filter.FeatureFilter, fc filter.Context) (bool, error) {
	ok, err := filter.AcceptFeature(ctx, featureFilters, f, fc)
	if err != nil || !ok {
		return false, err
	}
	if fc.ClientInfo == nil {
		return true, nil
	}
	return constraint.Matches(f.Clients, *fc.ClientInfo), nil
}
