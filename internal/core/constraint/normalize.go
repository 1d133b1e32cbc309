package constraint

import "github.com/artpar/portal/internal/core/domain"

// Screen size breakpoints (inclusive upper widths).
const (
	MaxWidthXS = 480
	MaxWidthSM = 768
	MaxWidthMD = 1024
	MaxWidthLG = 1440
)

// TabletMinWidth is the width from which a mobile platform counts as a tablet.
const TabletMinWidth = 768

// Normalize fills the derived classification fields a client left empty:
// screen size from width, orientation from width and height, device type
// from platform and width. Values sent by the client are kept.
func Normalize(info domain.ClientInfo) domain.ClientInfo {
	if info.ScreenSize == "" && info.Width > 0 {
		info.ScreenSize = ScreenSizeForWidth(info.Width)
	}
	if info.Orientation == "" && info.Width > 0 && info.Height > 0 {
		info.Orientation = OrientationFor(info.Width, info.Height)
	}
	if info.DeviceType == "" && info.Platform != "" {
		info.DeviceType = DeviceTypeFor(info.Platform, info.Width)
	}
	return info
}

// ScreenSizeForWidth maps a viewport width to its screen size class.
func ScreenSizeForWidth(width int) string {
	switch {
	case width <= MaxWidthXS:
		return domain.ScreenXS
	case width <= MaxWidthSM:
		return domain.ScreenSM
	case width <= MaxWidthMD:
		return domain.ScreenMD
	case width <= MaxWidthLG:
		return domain.ScreenLG
	default:
		return domain.ScreenXL
	}
}

// OrientationFor returns landscape when the viewport is wider than tall.
func OrientationFor(width, height int) string {
	if width > height {
		return domain.OrientationLandscape
	}
	return domain.OrientationPortrait
}

// DeviceTypeFor classifies mobile platforms by width; everything else is a desktop.
func DeviceTypeFor(platform string, width int) domain.DeviceType {
	switch platform {
	case domain.PlatformIOS, domain.PlatformAndroid:
		if width < TabletMinWidth {
			return domain.DevicePhone
		}
		return domain.DeviceTablet
	default:
		return domain.DeviceDesktop
	}
}
