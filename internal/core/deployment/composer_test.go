package deployment

import (
	"context"
	"errors"
	"testing"

	"github.com/artpar/portal/internal/core/domain"
	"github.com/artpar/portal/internal/core/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Test Helpers
// =============================================================================

type grantAuthority map[string]bool

func (g grantAuthority) HasPermission(_ context.Context, name string) (bool, error) {
	return g[name], nil
}

func (g grantAuthority) HasFeature(_ context.Context, name string) (bool, error) {
	return g[name], nil
}

type failingAuthority struct{ err error }

func (f failingAuthority) HasPermission(context.Context, string) (bool, error) {
	return false, f.err
}

func (f failingAuthority) HasFeature(context.Context, string) (bool, error) {
	return false, f.err
}

func feature(id, path string) domain.Feature {
	return domain.Feature{
		ID:          id,
		Label:       id,
		Path:        path,
		Icon:        "icon",
		Enabled:     true,
		Component:   "Component",
		Tags:        []string{},
		Permissions: []string{},
		Features:    []string{},
	}
}

func manifest(name string, features ...domain.Feature) domain.Manifest {
	return domain.Manifest{
		Name:     name,
		URI:      "http://localhost/" + name,
		Module:   domain.DefaultModuleName,
		Features: features,
	}
}

func intPtr(v int) *int { return &v }

func featureIDs(m domain.Manifest) []string {
	ids := make([]string, 0, len(m.Features))
	for _, f := range m.Features {
		ids = append(ids, f.ID)
	}
	return ids
}

func defaultComposer(manifests ...domain.Manifest) *Composer {
	return NewComposer(Config{
		Manifests:      ManifestList(manifests),
		FeatureFilters: filter.Defaults(grantAuthority{}, grantAuthority{}),
	})
}

func compute(t *testing.T, c *Composer, client *domain.ClientInfo) domain.Deployment {
	t.Helper()
	result, err := c.Compute(context.Background(), domain.DeploymentRequest{Application: "portal", Client: client})
	require.NoError(t, err)
	return result
}

// =============================================================================
// Scenario Tests
// =============================================================================

func TestCompute_DuplicatePathFirstWins(t *testing.T) {
	c := defaultComposer(manifest("mfe1", feature("home", "/mfe1"), feature("home2", "/mfe1")))

	result := compute(t, c, nil)

	require.Contains(t, result.Modules, "mfe1")
	assert.Equal(t, []string{"home"}, featureIDs(result.Modules["mfe1"]))
}

func TestCompute_DuplicateIDWithoutPath(t *testing.T) {
	c := defaultComposer(manifest("mfe1", feature("nav", ""), feature("nav", "")))

	result := compute(t, c, nil)

	assert.Len(t, result.Modules["mfe1"].Features, 1)
}

func TestCompute_MinWidthRejectsNarrowClient(t *testing.T) {
	wide := feature("wide", "/wide")
	wide.Clients = &domain.ClientConstraints{MinWidth: intPtr(800)}
	c := defaultComposer(manifest("mfe1", wide))

	result := compute(t, c, &domain.ClientInfo{Width: 700, Height: 900})

	require.Contains(t, result.Modules, "mfe1")
	assert.Empty(t, result.Modules["mfe1"].Features)
}

func TestCompute_PlatformVariantsShareID(t *testing.T) {
	iosNav := feature("nav", "")
	iosNav.Component = "IOSNavigation"
	iosNav.Clients = &domain.ClientConstraints{Platforms: []string{"ios"}}

	desktopNav := feature("nav", "")
	desktopNav.Component = "DesktopNavigation"

	c := defaultComposer(manifest("mfe1", iosNav, desktopNav))

	ios := compute(t, c, &domain.ClientInfo{Platform: domain.PlatformIOS})
	require.Len(t, ios.Modules["mfe1"].Features, 1)
	assert.Equal(t, "IOSNavigation", ios.Modules["mfe1"].Features[0].Component)

	android := compute(t, c, &domain.ClientInfo{Platform: domain.PlatformAndroid})
	require.Len(t, android.Modules["mfe1"].Features, 1)
	assert.Equal(t, "DesktopNavigation", android.Modules["mfe1"].Features[0].Component)
}

func TestCompute_RejectedFeatureDoesNotClaimPath(t *testing.T) {
	small := feature("foo-small", "/mfe1/foo")
	small.Clients = &domain.ClientConstraints{ScreenSizes: []string{"xs", "sm"}}
	large := feature("foo", "/mfe1/foo")

	c := defaultComposer(manifest("mfe1", small, large))

	phone := compute(t, c, &domain.ClientInfo{ScreenSize: domain.ScreenXS})
	assert.Equal(t, []string{"foo-small"}, featureIDs(phone.Modules["mfe1"]))

	desktop := compute(t, c, &domain.ClientInfo{ScreenSize: domain.ScreenLG})
	assert.Equal(t, []string{"foo"}, featureIDs(desktop.Modules["mfe1"]))
}

func TestCompute_NoClientInfoSkipsConstraints(t *testing.T) {
	constrained := feature("tablet-only", "/tablet")
	constrained.Clients = &domain.ClientConstraints{Platforms: []string{"android"}, MinWidth: intPtr(2000)}

	c := defaultComposer(manifest("mfe1", constrained))

	result := compute(t, c, nil)
	assert.Equal(t, []string{"tablet-only"}, featureIDs(result.Modules["mfe1"]))
}

func TestCompute_SecretAndDisabledExcluded(t *testing.T) {
	secret := feature("secret", "/secret")
	secret.Tags = []string{"secret"}
	disabled := feature("disabled", "/disabled")
	disabled.Enabled = false

	c := defaultComposer(manifest("mfe1", secret, disabled, feature("ok", "/ok")))

	result := compute(t, c, nil)
	assert.Equal(t, []string{"ok"}, featureIDs(result.Modules["mfe1"]))
}

func TestCompute_PermissionAllOf(t *testing.T) {
	guarded := feature("guarded", "/guarded")
	guarded.Permissions = []string{"a", "b"}

	only := func(granted grantAuthority) *Composer {
		return NewComposer(Config{
			Manifests:      ManifestList{manifest("mfe1", guarded)},
			FeatureFilters: filter.Defaults(granted, grantAuthority{}),
		})
	}

	assert.Empty(t, compute(t, only(grantAuthority{"a": true}), nil).Modules["mfe1"].Features)
	assert.Len(t, compute(t, only(grantAuthority{"a": true, "b": true}), nil).Modules["mfe1"].Features, 1)
}

func TestCompute_EmptyRegistry(t *testing.T) {
	result := compute(t, defaultComposer(), nil)
	assert.Equal(t, 0, result.Len())
}

func TestCompute_NilManifestSource(t *testing.T) {
	result := compute(t, NewComposer(Config{}), nil)
	assert.Equal(t, 0, result.Len())
}

// =============================================================================
// Property Tests
// =============================================================================

func TestCompute_Idempotent(t *testing.T) {
	nav := feature("nav", "")
	nav.Clients = &domain.ClientConstraints{Platforms: []string{"ios"}}
	c := defaultComposer(
		manifest("mfe1", feature("home", "/mfe1"), feature("home2", "/mfe1"), nav),
		manifest("mfe2", feature("x", "/x")),
	)
	client := &domain.ClientInfo{Platform: domain.PlatformIOS, Width: 390}

	first := compute(t, c, client)
	second := compute(t, c, client)

	assert.Equal(t, first.Names(), second.Names())
	assert.Equal(t, first.Modules, second.Modules)
}

func TestCompute_RejectingFilterIsMonotonic(t *testing.T) {
	manifests := ManifestList{
		manifest("mfe1", feature("a", "/a"), feature("b", ""), feature("c", "/c")),
		manifest("mfe2", feature("d", "/d")),
	}
	rejectAll := filter.FeatureFilterFunc(func(context.Context, domain.Feature, filter.Context) (bool, error) {
		return false, nil
	})

	base := NewComposer(Config{Manifests: manifests})
	narrowed := NewComposer(Config{Manifests: manifests, FeatureFilters: []filter.FeatureFilter{rejectAll}})

	before := compute(t, base, nil)
	after := compute(t, narrowed, nil)

	for name, m := range after.Modules {
		assert.LessOrEqual(t, len(m.Features), len(before.Modules[name].Features))
		assert.Empty(t, m.Features)
	}
}

func TestCompute_PreservesRegistryOrder(t *testing.T) {
	c := defaultComposer(manifest("zeta"), manifest("alpha"), manifest("mid"))

	result := compute(t, c, nil)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, result.Names())
}

func TestCompute_DoesNotMutateManifests(t *testing.T) {
	original := manifest("mfe1", feature("home", "/mfe1"), feature("home2", "/mfe1"), feature("nav", ""))
	manifests := ManifestList{original}

	result := compute(t, defaultComposer(manifests...), nil)
	require.Len(t, result.Modules["mfe1"].Features, 2)

	assert.Len(t, manifests[0].Features, 3)
	assert.Equal(t, "home2", manifests[0].Features[1].ID)

	// the result owns its slice
	result.Modules["mfe1"].Features[0].ID = "changed"
	assert.Equal(t, "home", manifests[0].Features[0].ID)
}

// =============================================================================
// Manifest Filter Tests
// =============================================================================

func TestCompute_ManifestFilterDropsModule(t *testing.T) {
	dropMfe2 := filter.ManifestFilterFunc(func(_ context.Context, m domain.Manifest, _ filter.Context) (bool, error) {
		return m.Name != "mfe2", nil
	})
	c := NewComposer(Config{
		Manifests:       ManifestList{manifest("mfe1"), manifest("mfe2")},
		ManifestFilters: []filter.ManifestFilter{filter.AcceptAllManifests, dropMfe2},
	})

	result := compute(t, c, nil)
	assert.Equal(t, []string{"mfe1"}, result.Names())
}

func TestCompute_FilterContext(t *testing.T) {
	var seen filter.Context
	capture := filter.FeatureFilterFunc(func(_ context.Context, _ domain.Feature, fc filter.Context) (bool, error) {
		seen = fc
		return true, nil
	})
	c := NewComposer(Config{
		Manifests:      ManifestList{manifest("mfe1", feature("a", "/a"))},
		FeatureFilters: []filter.FeatureFilter{capture},
	})
	client := &domain.ClientInfo{Platform: domain.PlatformWeb}

	compute(t, c, client)

	assert.False(t, seen.HasSession)
	assert.Same(t, client, seen.ClientInfo)
}

// =============================================================================
// Error Tests
// =============================================================================

func TestCompute_AuthorityErrorAbortsComputation(t *testing.T) {
	cause := errors.New("permission service down")
	guarded := feature("guarded", "/guarded")
	guarded.Permissions = []string{"admin"}

	c := NewComposer(Config{
		Manifests:      ManifestList{manifest("mfe1", feature("open", "/open")), manifest("mfe2", guarded)},
		FeatureFilters: filter.Defaults(failingAuthority{err: cause}, grantAuthority{}),
	})

	result, err := c.Compute(context.Background(), domain.DeploymentRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, filter.ErrAuthorityUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "mfe2")
	assert.Equal(t, 0, result.Len())
}

func TestCompute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := defaultComposer(manifest("mfe1")).Compute(ctx, domain.DeploymentRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}
