// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package device

import (
	"log/slog"
	"math"
	"time"

	"github.com/gogpu/ripple/internal/slogx"
)

// Baseline is the per-tier starting point for Settings.
type Baseline struct {
	TextureScale         float64
	TargetFPS            int
	Complexity           ShaderComplexity
	MaxAnimationDuration time.Duration
}

// Policy holds the tunable classification thresholds.
type Policy struct {
	// MobileMaxWidth and TabletMaxWidth are exclusive upper bounds of the
	// screen-width fallback used when the user agent is inconclusive.
	MobileMaxWidth int
	TabletMaxWidth int

	// LowMemoryHeapLimit triggers a one-step downgrade when the heap limit
	// is known and below it.
	LowMemoryHeapLimit int64
	// SmallTextureSize forces TierLow when MaxTextureSize is below it.
	SmallTextureSize int

	// Baselines is indexed by Tier.
	Baselines [3]Baseline

	MobileScale     float64
	HighDPR         float64
	HighDPRScale    float64
	MinTextureScale float64
}

// DefaultPolicy returns the default thresholds.
func DefaultPolicy() Policy {
	return Policy{
		MobileMaxWidth:     768,
		TabletMaxWidth:     1024,
		LowMemoryHeapLimit: 256 << 20,
		SmallTextureSize:   2048,
		Baselines: [3]Baseline{
			TierLow:    {TextureScale: 0.5, TargetFPS: 30, Complexity: ComplexityMinimal, MaxAnimationDuration: 1500 * time.Millisecond},
			TierMedium: {TextureScale: 0.75, TargetFPS: 45, Complexity: ComplexityReduced, MaxAnimationDuration: 2000 * time.Millisecond},
			TierHigh:   {TextureScale: 1.0, TargetFPS: 60, Complexity: ComplexityFull, MaxAnimationDuration: 2500 * time.Millisecond},
		},
		MobileScale:     0.8,
		HighDPR:         3,
		HighDPRScale:    0.8,
		MinTextureScale: 0.25,
	}
}

// Classifier maps Capabilities to a Classification. It holds no state.
type Classifier struct {
	policy Policy
	logger *slog.Logger
}

// NewClassifier creates a Classifier. A zero Policy selects DefaultPolicy.
// A nil logger disables logging.
func NewClassifier(policy Policy, logger *slog.Logger) *Classifier {
	if policy == (Policy{}) {
		policy = DefaultPolicy()
	}
	return &Classifier{policy: policy, logger: slogx.OrNop(logger)}
}

// Policy returns the thresholds in use.
func (c *Classifier) Policy() Policy { return c.policy }

// Classify derives a Classification from caps. It is deterministic and
// defined for every input.
func (c *Classifier) Classify(caps Capabilities) Classification {
	typ := c.deviceType(caps)
	tier := c.tier(caps)
	settings := c.Settings(tier, typ, caps.DevicePixelRatio, caps.HasWebGL)
	if !caps.HasWebGL {
		tier = TierLow
	}
	out := Classification{Type: typ, Tier: tier, Settings: settings}
	c.logger.Debug("device: classified",
		"type", typ,
		"tier", tier,
		"rawTier", caps.GPUTier,
		"scale", settings.TextureScale,
		"webgl", settings.UseWebGL)
	return out
}

func (c *Classifier) deviceType(caps Capabilities) Type {
	switch {
	case caps.UserAgent.IsMobile:
		return TypeMobile
	case caps.UserAgent.IsTablet:
		return TypeTablet
	case caps.UserAgent.IsDesktop:
		return TypeDesktop
	case caps.Screen.Width < c.policy.MobileMaxWidth:
		return TypeMobile
	case caps.Screen.Width < c.policy.TabletMaxWidth:
		return TypeTablet
	default:
		return TypeDesktop
	}
}

// tier applies the downgrades. It never raises the raw GPU tier.
func (c *Classifier) tier(caps Capabilities) Tier {
	t := caps.GPUTier
	if t < TierLow {
		t = TierLow
	}
	if t > TierHigh {
		t = TierHigh
	}
	if caps.Memory != nil && caps.Memory.HeapLimit < c.policy.LowMemoryHeapLimit {
		t = t.Downgrade()
	}
	if caps.MaxTextureSize < c.policy.SmallTextureSize {
		t = TierLow
	}
	return t
}

// Settings computes the recommended settings for an explicit tier, which is
// how quality overrides are applied. Without WebGL the low baseline is used
// with minimal shaders and WebGL disabled.
func (c *Classifier) Settings(tier Tier, typ Type, dpr float64, hasWebGL bool) Settings {
	if !hasWebGL || tier < TierLow || tier > TierHigh {
		tier = TierLow
	}
	base := c.policy.Baselines[tier]

	scale := base.TextureScale
	mobile := typ == TypeMobile
	if mobile {
		scale *= c.policy.MobileScale
		if dpr >= c.policy.HighDPR {
			scale *= c.policy.HighDPRScale
		}
	}
	scale = math.Min(1, math.Max(c.policy.MinTextureScale, scale))

	s := Settings{
		TextureScale:         scale,
		TargetFPS:            base.TargetFPS,
		ShaderComplexity:     base.Complexity,
		EnableFrameSkipping:  tier == TierLow || (mobile && tier == TierMedium),
		UseWebGL:             hasWebGL,
		MaxAnimationDuration: base.MaxAnimationDuration,
	}
	if !hasWebGL {
		s.ShaderComplexity = ComplexityMinimal
	}
	return s
}
