package ripple

import (
	"fmt"
	"strings"

	"github.com/gogpu/ripple/device"
)

// Mode is the rendering path of a Surface.
type Mode int

const (
	// ModeWebGL renders the ripple with a fragment shader.
	ModeWebGL Mode = iota
	// ModeCSSFallback animates CSS ripple elements over the image.
	ModeCSSFallback
)

// Renderer registry names.
const (
	RendererWebGL = "webgl"
	RendererCSS   = "css-fallback"
)

// String returns the renderer name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeWebGL:
		return RendererWebGL
	case ModeCSSFallback:
		return RendererCSS
	default:
		return "unknown"
	}
}

// ForceMode overrides the automatic mode decision.
type ForceMode int

const (
	// ForceNone lets the selector decide.
	ForceNone ForceMode = iota
	ForceWebGL
	ForceCSS
)

// String returns the option value of f.
func (f ForceMode) String() string {
	switch f {
	case ForceWebGL:
		return "webgl"
	case ForceCSS:
		return "css"
	default:
		return "none"
	}
}

// ParseForceMode parses "", "none", "webgl" or "css".
func ParseForceMode(s string) (ForceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "auto":
		return ForceNone, nil
	case "webgl":
		return ForceWebGL, nil
	case "css", "css-fallback":
		return ForceCSS, nil
	}
	return ForceNone, fmt.Errorf("%w: force mode %q", ErrInvalidOption, s)
}

// Quality overrides the classified tier.
type Quality int

const (
	// QualityAuto uses the classified tier.
	QualityAuto Quality = iota
	QualityLow
	QualityMedium
	QualityHigh
)

// String returns the option value of q.
func (q Quality) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	default:
		return "auto"
	}
}

// Tier returns the forced tier, or false for QualityAuto.
func (q Quality) Tier() (device.Tier, bool) {
	switch q {
	case QualityLow:
		return device.TierLow, true
	case QualityMedium:
		return device.TierMedium, true
	case QualityHigh:
		return device.TierHigh, true
	default:
		return device.TierLow, false
	}
}

// ParseQuality parses "", "auto", "low", "medium" or "high".
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return QualityAuto, nil
	case "low":
		return QualityLow, nil
	case "medium":
		return QualityMedium, nil
	case "high":
		return QualityHigh, nil
	}
	return QualityAuto, fmt.Errorf("%w: quality %q", ErrInvalidOption, s)
}

// Inputs are the signals the mode decision depends on.
type Inputs struct {
	Force ForceMode
	// UseWebGL is the classifier's recommendation, false without a context.
	UseWebGL bool
	// ShaderFailed is set once the WebGL renderer failed to compile or
	// mount. It acts as a forced CSS fallback.
	ShaderFailed     bool
	BatteryLow       bool
	VisibilityPaused bool
	// PerformancePoor and AtLowestTier together mean WebGL cannot keep up
	// even with the cheapest shader.
	PerformancePoor bool
	AtLowestTier    bool
}

// Decide returns the mode for in and whether it was forced by an override.
// The first matching rule wins:
//  1. an explicit override, except that a forced WebGL mode yields to a
//     failed shader
//  2. no WebGL recommendation
//  3. a failed shader
//  4. low battery or a paused surface
//  5. poor performance at the lowest tier
//  6. otherwise WebGL
func Decide(in Inputs) (Mode, bool) {
	switch {
	case in.Force == ForceCSS:
		return ModeCSSFallback, true
	case in.Force == ForceWebGL && !in.ShaderFailed:
		return ModeWebGL, true
	case !in.UseWebGL, in.ShaderFailed:
		return ModeCSSFallback, false
	case in.BatteryLow, in.VisibilityPaused:
		return ModeCSSFallback, false
	case in.PerformancePoor && in.AtLowestTier:
		return ModeCSSFallback, false
	default:
		return ModeWebGL, false
	}
}

// State is the desired mode together with the inputs it was decided from.
type State struct {
	Inputs     Inputs
	Mode       Mode
	Overridden bool
}

// NewState decides the state for in.
func NewState(in Inputs) State {
	mode, overridden := Decide(in)
	return State{Inputs: in, Mode: mode, Overridden: overridden}
}

// EventKind names the input an Event changes.
type EventKind int

const (
	EventForceMode EventKind = iota
	EventWebGLSupport
	EventShaderFailure
	EventBatteryLow
	EventVisibilityPaused
	EventPerformancePoor
	EventLowestTier
)

var eventNames = [...]string{
	"force-mode", "webgl-support", "shader-failure", "battery-low",
	"visibility-paused", "performance-poor", "lowest-tier",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event is an observed change of one input. Force is read for
// EventForceMode, Value for every other kind.
type Event struct {
	Kind  EventKind
	Value bool
	Force ForceMode
}

// Next applies e to s and decides the resulting state. It has no side
// effects.
func Next(s State, e Event) State {
	in := s.Inputs
	switch e.Kind {
	case EventForceMode:
		in.Force = e.Force
	case EventWebGLSupport:
		in.UseWebGL = e.Value
	case EventShaderFailure:
		in.ShaderFailed = e.Value
	case EventBatteryLow:
		in.BatteryLow = e.Value
	case EventVisibilityPaused:
		in.VisibilityPaused = e.Value
	case EventPerformancePoor:
		in.PerformancePoor = e.Value
	case EventLowestTier:
		in.AtLowestTier = e.Value
	default:
		return s
	}
	return NewState(in)
}
