package ripple

import (
	"fmt"
	"time"

	"github.com/gogpu/ripple/fallback"
)

// DefaultAnimationDuration is the default lifetime of a CSS ripple.
const DefaultAnimationDuration = fallback.DefaultAnimationDuration

// DefaultIdleAfter is how long a surface waits without interaction before
// animating on its own.
const DefaultIdleAfter = 5 * time.Second

// Config is the public configuration of a Surface. Every field is optional;
// the zero value of each field selects its default.
type Config struct {
	// ForceMode pins the rendering mode. Default ForceNone.
	ForceMode ForceMode
	// Quality pins the quality tier. Default QualityAuto.
	Quality Quality
	// EnableHapticFeedback vibrates on pointer down where supported.
	// Default false.
	EnableHapticFeedback bool
	// RippleIntensity scales ripple strength. Default normal.
	RippleIntensity fallback.Intensity
	// AnimationDuration is the CSS ripple lifetime. Default 2500ms. It is
	// capped by the device's recommended maximum.
	AnimationDuration time.Duration
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		ForceMode:         ForceNone,
		Quality:           QualityAuto,
		RippleIntensity:   fallback.IntensityNormal,
		AnimationDuration: DefaultAnimationDuration,
	}
}

// Validate reports out-of-range fields.
func (c Config) Validate() error {
	if c.ForceMode < ForceNone || c.ForceMode > ForceCSS {
		return fmt.Errorf("%w: force mode %d", ErrInvalidOption, c.ForceMode)
	}
	if c.Quality < QualityAuto || c.Quality > QualityHigh {
		return fmt.Errorf("%w: quality %d", ErrInvalidOption, c.Quality)
	}
	if c.RippleIntensity < fallback.IntensityNormal || c.RippleIntensity > fallback.IntensityStrong {
		return fmt.Errorf("%w: ripple intensity %d", ErrInvalidOption, c.RippleIntensity)
	}
	if c.AnimationDuration < 0 {
		return fmt.Errorf("%w: negative animation duration %v", ErrInvalidOption, c.AnimationDuration)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.AnimationDuration == 0 {
		c.AnimationDuration = DefaultAnimationDuration
	}
	return c
}
