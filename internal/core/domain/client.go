// Package domain contains the core domain types of the portal.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import "encoding/json"

// =============================================================================
// Client Vocabulary
// =============================================================================

// Screen size classes reported by the browser client.
const (
	ScreenXS = "xs"
	ScreenSM = "sm"
	ScreenMD = "md"
	ScreenLG = "lg"
	ScreenXL = "xl"
)

// Orientations.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Platforms.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformMacOS   = "macos"
	PlatformWindows = "windows"
	PlatformLinux   = "linux"
	PlatformWeb     = "web"
)

// DeviceType is an informational classification of the client device.
type DeviceType string

const (
	DevicePhone   DeviceType = "phone"
	DeviceTablet  DeviceType = "tablet"
	DeviceDesktop DeviceType = "desktop"
)

// Wildcard matches any value in a constraint list.
const Wildcard = "*"

// =============================================================================
// ClientInfo
// =============================================================================

// ClientInfo describes the requesting device. It is supplied once per request
// and never modified afterwards.
type ClientInfo struct {
	// Screen
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ScreenSize  string  `json:"screen_size"`
	Orientation string  `json:"orientation"`
	PixelRatio  float64 `json:"pixel_ratio"`

	// Platform
	Platform  string `json:"platform"`
	Browser   string `json:"browser"`
	OS        string `json:"os"`
	OSVersion string `json:"os_version"`

	Capabilities []string `json:"capabilities"`

	DeviceType DeviceType `json:"device_type,omitempty"`
}

// HasCapability reports whether the client declared the capability.
func (c ClientInfo) HasCapability(capability string) bool {
	for _, have := range c.Capabilities {
		if have == capability {
			return true
		}
	}
	return false
}

// UnmarshalJSON accepts both the snake_case keys sent by the browser detector
// and the camelCase keys used by older clients.
func (c *ClientInfo) UnmarshalJSON(data []byte) error {
	var aux struct {
		Width           int        `json:"width"`
		Height          int        `json:"height"`
		ScreenSize      string     `json:"screen_size"`
		ScreenSizeCamel string     `json:"screenSize"`
		Orientation     string     `json:"orientation"`
		PixelRatio      *float64   `json:"pixel_ratio"`
		PixelRatioCamel *float64   `json:"pixelRatio"`
		Platform        string     `json:"platform"`
		Browser         string     `json:"browser"`
		OS              string     `json:"os"`
		OSVersion       string     `json:"os_version"`
		OSVersionCamel  string     `json:"osVersion"`
		Capabilities    []string   `json:"capabilities"`
		DeviceType      DeviceType `json:"device_type"`
		DeviceTypeCamel DeviceType `json:"deviceType"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*c = ClientInfo{
		Width:        aux.Width,
		Height:       aux.Height,
		ScreenSize:   firstNonEmpty(aux.ScreenSize, aux.ScreenSizeCamel),
		Orientation:  aux.Orientation,
		Platform:     aux.Platform,
		Browser:      aux.Browser,
		OS:           aux.OS,
		OSVersion:    firstNonEmpty(aux.OSVersion, aux.OSVersionCamel),
		Capabilities: aux.Capabilities,
		DeviceType:   DeviceType(firstNonEmpty(string(aux.DeviceType), string(aux.DeviceTypeCamel))),
	}
	switch {
	case aux.PixelRatio != nil:
		c.PixelRatio = *aux.PixelRatio
	case aux.PixelRatioCamel != nil:
		c.PixelRatio = *aux.PixelRatioCamel
	}
	return nil
}

// =============================================================================
// ClientConstraints
// =============================================================================

// ClientConstraints limits which clients receive a feature. A nil or empty
// field imposes no restriction.
type ClientConstraints struct {
	ScreenSizes  []string `json:"screenSizes,omitempty"`
	Orientation  []string `json:"orientation,omitempty"`
	Platforms    []string `json:"platforms,omitempty"`
	MinWidth     *int     `json:"minWidth,omitempty"`
	MaxWidth     *int     `json:"maxWidth,omitempty"`
	MinHeight    *int     `json:"minHeight,omitempty"`
	MaxHeight    *int     `json:"maxHeight,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// UnmarshalJSON accepts camelCase (manifest authoring format) and snake_case keys.
func (c *ClientConstraints) UnmarshalJSON(data []byte) error {
	var aux struct {
		ScreenSizes      []string `json:"screenSizes"`
		ScreenSizesSnake []string `json:"screen_sizes"`
		Orientation      []string `json:"orientation"`
		Platforms        []string `json:"platforms"`
		MinWidth         *int     `json:"minWidth"`
		MinWidthSnake    *int     `json:"min_width"`
		MaxWidth         *int     `json:"maxWidth"`
		MaxWidthSnake    *int     `json:"max_width"`
		MinHeight        *int     `json:"minHeight"`
		MinHeightSnake   *int     `json:"min_height"`
		MaxHeight        *int     `json:"maxHeight"`
		MaxHeightSnake   *int     `json:"max_height"`
		Capabilities     []string `json:"capabilities"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*c = ClientConstraints{
		ScreenSizes:  aux.ScreenSizes,
		Orientation:  aux.Orientation,
		Platforms:    aux.Platforms,
		MinWidth:     firstInt(aux.MinWidth, aux.MinWidthSnake),
		MaxWidth:     firstInt(aux.MaxWidth, aux.MaxWidthSnake),
		MinHeight:    firstInt(aux.MinHeight, aux.MinHeightSnake),
		MaxHeight:    firstInt(aux.MaxHeight, aux.MaxHeightSnake),
		Capabilities: aux.Capabilities,
	}
	if c.ScreenSizes == nil {
		c.ScreenSizes = aux.ScreenSizesSnake
	}
	return nil
}

// IsEmpty reports whether no constraint field is populated.
func (c ClientConstraints) IsEmpty() bool {
	return len(c.ScreenSizes) == 0 &&
		len(c.Orientation) == 0 &&
		len(c.Platforms) == 0 &&
		c.MinWidth == nil && c.MaxWidth == nil &&
		c.MinHeight == nil && c.MaxHeight == nil &&
		len(c.Capabilities) == 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInt(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
