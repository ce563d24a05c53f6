// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package device

import (
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
)

// Tier is a coarse capability bucket. Higher values are more capable.
type Tier int

const (
	// TierLow is constrained hardware or no GPU acceleration.
	TierLow Tier = iota
	// TierMedium is mainstream integrated or mobile graphics.
	TierMedium
	// TierHigh is discrete or otherwise strong graphics.
	TierHigh
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Downgrade returns the next lower tier, never below TierLow.
func (t Tier) Downgrade() Tier {
	if t <= TierLow {
		return TierLow
	}
	if t > TierHigh {
		return TierMedium
	}
	return t - 1
}

// ParseTier parses "low", "medium" or "high".
func ParseTier(s string) (Tier, error) {
	switch s {
	case "low":
		return TierLow, nil
	case "medium":
		return TierMedium, nil
	case "high":
		return TierHigh, nil
	}
	return TierLow, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// Type is the device form factor.
type Type int

const (
	TypeDesktop Type = iota
	TypeTablet
	TypeMobile
)

// String returns the form factor name.
func (t Type) String() string {
	switch t {
	case TypeDesktop:
		return "desktop"
	case TypeTablet:
		return "tablet"
	case TypeMobile:
		return "mobile"
	default:
		return "unknown"
	}
}

// ShaderComplexity selects how much work the ripple shader performs.
type ShaderComplexity int

const (
	ComplexityMinimal ShaderComplexity = iota
	ComplexityReduced
	ComplexityFull
)

// String returns the complexity name.
func (c ShaderComplexity) String() string {
	switch c {
	case ComplexityMinimal:
		return "minimal"
	case ComplexityReduced:
		return "reduced"
	case ComplexityFull:
		return "full"
	default:
		return "unknown"
	}
}

// Tier returns the tier whose shader variant implements c.
func (c ShaderComplexity) Tier() Tier {
	switch c {
	case ComplexityFull:
		return TierHigh
	case ComplexityReduced:
		return TierMedium
	default:
		return TierLow
	}
}

// Browser identifies a browser family.
type Browser int

const (
	BrowserUnknown Browser = iota
	BrowserChrome
	BrowserFirefox
	BrowserSafari
	BrowserEdge
	BrowserOpera
	BrowserSamsung
)

var browserNames = [...]string{"unknown", "chrome", "firefox", "safari", "edge", "opera", "samsung"}

// String returns the browser name.
func (b Browser) String() string {
	if b < 0 || int(b) >= len(browserNames) {
		return "unknown"
	}
	return browserNames[b]
}

// OS identifies an operating system family.
type OS int

const (
	OSUnknown OS = iota
	OSWindows
	OSMacOS
	OSLinux
	OSAndroid
	OSIOS
	OSChromeOS
)

var osNames = [...]string{"unknown", "windows", "macos", "linux", "android", "ios", "chromeos"}

// String returns the OS name.
func (o OS) String() string {
	if o < 0 || int(o) >= len(osNames) {
		return "unknown"
	}
	return osNames[o]
}

// UserAgent is the result of parsing a user-agent string.
type UserAgent struct {
	IsMobile  bool
	IsTablet  bool
	IsDesktop bool
	Browser   Browser
	OS        OS
}

// Screen is a size in CSS pixels.
type Screen struct {
	Width  int
	Height int
}

// MemoryInfo is the JS heap (or process heap) hint, in bytes.
type MemoryInfo struct {
	TotalHeap int64
	UsedHeap  int64
	HeapLimit int64
}

// Capabilities is an immutable snapshot of device signals.
// Methods return modified copies; a Capabilities value is never changed in place.
type Capabilities struct {
	IsMobile         bool
	HasWebGL         bool
	GPUTier          Tier
	MaxTextureSize   int
	DevicePixelRatio float64
	Screen           Screen
	UserAgent        UserAgent
	// Memory is nil when the platform offers no memory hint.
	Memory *MemoryInfo

	CPUCores    int
	TouchPoints int
	// Adapter describes the GPU reported by the probe, if any.
	Adapter gpucontext.AdapterInfo
	// Renderer is the raw renderer string reported by the GPU probe.
	Renderer string
}

// WithScreen returns a copy with Screen replaced and IsMobile recomputed.
// Every other field, including the memory hint, is shared with c.
func (c Capabilities) WithScreen(width, height int) Capabilities {
	c.Screen = Screen{Width: width, Height: height}
	c.IsMobile = isMobile(c.UserAgent, c.Screen, c.TouchPoints)
	return c
}

// isMobile treats explicit UA flags as authoritative and otherwise
// considers small touch screens to be phones.
func isMobile(ua UserAgent, screen Screen, touchPoints int) bool {
	if ua.IsMobile {
		return true
	}
	if ua.IsTablet || ua.IsDesktop {
		return false
	}
	return touchPoints > 0 && screen.Width > 0 && screen.Width < DefaultPolicy().MobileMaxWidth
}

// Settings are the render parameters recommended for a device.
type Settings struct {
	// TextureScale is in [MinTextureScale, 1].
	TextureScale        float64
	TargetFPS           int
	ShaderComplexity    ShaderComplexity
	EnableFrameSkipping bool
	UseWebGL            bool
	// MaxAnimationDuration bounds ripple animations.
	MaxAnimationDuration time.Duration
}

// Classification is derived from Capabilities by a Classifier.
type Classification struct {
	Type     Type
	Tier     Tier
	Settings Settings
}
