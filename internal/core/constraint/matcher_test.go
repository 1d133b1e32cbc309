package constraint

import (
	"testing"

	"github.com/artpar/portal/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func desktopClient() domain.ClientInfo {
	return domain.ClientInfo{
		Width:        1280,
		Height:       800,
		ScreenSize:   domain.ScreenLG,
		Orientation:  domain.OrientationLandscape,
		PixelRatio:   1,
		Platform:     domain.PlatformMacOS,
		Browser:      "chrome",
		OS:           "macOS",
		Capabilities: []string{},
	}
}

func iosClient() domain.ClientInfo {
	return domain.ClientInfo{
		Width:        390,
		Height:       844,
		ScreenSize:   domain.ScreenXS,
		Orientation:  domain.OrientationPortrait,
		PixelRatio:   3,
		Platform:     domain.PlatformIOS,
		Browser:      "safari",
		OS:           "iOS",
		OSVersion:    "17.2",
		Capabilities: []string{"touch", "multitouch"},
		DeviceType:   domain.DevicePhone,
	}
}

// =============================================================================
// Matches Tests
// =============================================================================

func TestMatches_NilConstraintsAlwaysMatch(t *testing.T) {
	assert.True(t, Matches(nil, desktopClient()))
	assert.True(t, Matches(nil, domain.ClientInfo{}))
}

func TestMatches_EmptyConstraintsMatch(t *testing.T) {
	assert.True(t, Matches(&domain.ClientConstraints{}, iosClient()))
	assert.True(t, Matches(&domain.ClientConstraints{Platforms: []string{}}, iosClient()))
}

func TestMatches_SingleFields(t *testing.T) {
	tests := []struct {
		name        string
		constraints domain.ClientConstraints
		client      domain.ClientInfo
		want        bool
	}{
		{"screen size member", domain.ClientConstraints{ScreenSizes: []string{"md", "lg"}}, desktopClient(), true},
		{"screen size not member", domain.ClientConstraints{ScreenSizes: []string{"xs", "sm"}}, desktopClient(), false},
		{"orientation member", domain.ClientConstraints{Orientation: []string{"portrait"}}, iosClient(), true},
		{"orientation not member", domain.ClientConstraints{Orientation: []string{"portrait"}}, desktopClient(), false},
		{"platform member", domain.ClientConstraints{Platforms: []string{"ios", "android"}}, iosClient(), true},
		{"platform not member", domain.ClientConstraints{Platforms: []string{"android"}}, iosClient(), false},
		{"platform wildcard", domain.ClientConstraints{Platforms: []string{"*"}}, iosClient(), true},
		{"screen size wildcard", domain.ClientConstraints{ScreenSizes: []string{"xl", "*"}}, iosClient(), true},
		{"min width below", domain.ClientConstraints{MinWidth: intPtr(800)}, domain.ClientInfo{Width: 700}, false},
		{"min width equal", domain.ClientConstraints{MinWidth: intPtr(800)}, domain.ClientInfo{Width: 800}, true},
		{"max width equal", domain.ClientConstraints{MaxWidth: intPtr(768)}, domain.ClientInfo{Width: 768}, true},
		{"max width above", domain.ClientConstraints{MaxWidth: intPtr(768)}, domain.ClientInfo{Width: 769}, false},
		{"min height below", domain.ClientConstraints{MinHeight: intPtr(600)}, domain.ClientInfo{Height: 599}, false},
		{"min height equal", domain.ClientConstraints{MinHeight: intPtr(600)}, domain.ClientInfo{Height: 600}, true},
		{"max height equal", domain.ClientConstraints{MaxHeight: intPtr(900)}, domain.ClientInfo{Height: 900}, true},
		{"max height above", domain.ClientConstraints{MaxHeight: intPtr(900)}, domain.ClientInfo{Height: 901}, false},
		{"zero min width", domain.ClientConstraints{MinWidth: intPtr(0)}, domain.ClientInfo{Width: 0}, true},
		{"capabilities all present", domain.ClientConstraints{Capabilities: []string{"touch", "multitouch"}}, iosClient(), true},
		{"capabilities one missing", domain.ClientConstraints{Capabilities: []string{"touch", "stylus"}}, iosClient(), false},
		{"capabilities none declared", domain.ClientConstraints{Capabilities: []string{"touch"}}, desktopClient(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.constraints
			assert.Equal(t, tt.want, Matches(&c, tt.client))
		})
	}
}

func TestMatches_FieldsAreIndependent(t *testing.T) {
	// every field satisfied except one rejects the whole feature
	c := domain.ClientConstraints{
		ScreenSizes:  []string{"xs"},
		Orientation:  []string{"portrait"},
		Platforms:    []string{"ios"},
		MinWidth:     intPtr(320),
		MaxWidth:     intPtr(480),
		MinHeight:    intPtr(500),
		MaxHeight:    intPtr(1000),
		Capabilities: []string{"touch"},
	}
	assert.True(t, Matches(&c, iosClient()))

	android := iosClient()
	android.Platform = domain.PlatformAndroid
	assert.False(t, Matches(&c, android))

	wide := iosClient()
	wide.Width = 481
	assert.False(t, Matches(&c, wide))
}

func TestMatches_IOSOnlyFeature(t *testing.T) {
	c := domain.ClientConstraints{Platforms: []string{"ios"}}

	assert.True(t, Matches(&c, iosClient()))

	android := iosClient()
	android.Platform = domain.PlatformAndroid
	assert.False(t, Matches(&c, android))
}

func TestMatches_DoesNotMutateInputs(t *testing.T) {
	c := domain.ClientConstraints{Capabilities: []string{"touch"}}
	client := iosClient()

	Matches(&c, client)

	assert.Equal(t, []string{"touch"}, c.Capabilities)
	assert.Equal(t, iosClient(), client)
}
