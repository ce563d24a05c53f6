// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package texture decides how large the ripple source texture should be on
// a given device and prepares images for upload.
//
// Texture sides are always powers of two so legacy WebGL 1 wrapping and
// mipmapping keep working.
package texture

import (
	"math"
	"math/bits"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/ripple/device"
)

// MinSize is the smallest texture bound CalculateScale produces.
const MinSize = 256

// Policy holds the per-tier texture bounds.
type Policy struct {
	// Baselines is the maximum texture side per tier, indexed by device.Tier.
	Baselines [3]int
	// Scales is the base resolution scale per tier, indexed by device.Tier.
	Scales [3]float64
	// HighDPR is the device pixel ratio above which mobile devices use
	// HighDPRScale.
	HighDPR      float64
	HighDPRScale float64
}

// DefaultPolicy returns the default bounds: 2048/1024/512 for high/medium/low.
func DefaultPolicy() Policy {
	return Policy{
		Baselines:    [3]int{device.TierLow: 512, device.TierMedium: 1024, device.TierHigh: 2048},
		Scales:       [3]float64{device.TierLow: 0.5, device.TierMedium: 0.75, device.TierHigh: 1.0},
		HighDPR:      2,
		HighDPRScale: 0.75,
	}
}

// ScaleConfig bounds the texture for one device.
type ScaleConfig struct {
	BaseScale float64
	MaxWidth  int
	MaxHeight int
	Quality   device.Tier
	Format    gputypes.TextureFormat
}

// Dimensions is a power-of-two texture size.
type Dimensions struct {
	Width  int
	Height int
	// Scale is Width divided by the source width. It may differ from the
	// configured BaseScale after rounding and clamping.
	Scale float64
}

// CalculateScale uses DefaultPolicy.
func CalculateScale(tier device.Tier, dpr float64, isMobile bool, maxTextureSize int) ScaleConfig {
	return DefaultPolicy().CalculateScale(tier, dpr, isMobile, maxTextureSize)
}

// CalculateScale computes the texture bounds. Mobile devices halve the tier
// baseline. A maxTextureSize of 0 means the hardware limit is unknown.
func (p Policy) CalculateScale(tier device.Tier, dpr float64, isMobile bool, maxTextureSize int) ScaleConfig {
	if tier < device.TierLow || tier > device.TierHigh {
		tier = device.TierLow
	}
	limit := p.Baselines[tier]
	scale := p.Scales[tier]
	if isMobile {
		limit /= 2
		if dpr > p.HighDPR {
			scale *= p.HighDPRScale
		}
	}
	if maxTextureSize > 0 && maxTextureSize < limit {
		limit = maxTextureSize
	}
	limit = max(limit, MinSize)

	return ScaleConfig{
		BaseScale: math.Min(1, math.Max(0.25, scale)),
		MaxWidth:  limit,
		MaxHeight: limit,
		Quality:   tier,
		Format:    Format(tier),
	}
}

// Format returns the texture format for a quality tier. Only high quality
// pays for sRGB decoding.
func Format(tier device.Tier) gputypes.TextureFormat {
	if tier == device.TierHigh {
		return gputypes.TextureFormatRGBA8UnormSrgb
	}
	return gputypes.TextureFormatRGBA8Unorm
}

// ScaleDimensions scales a source size by cfg.BaseScale and rounds each axis
// independently to the nearest power of two, clamped to the largest power of
// two not exceeding the configured maximum. Non-positive inputs count as 1.
func ScaleDimensions(width, height int, cfg ScaleConfig) Dimensions {
	width, height = max(width, 1), max(height, 1)
	scale := cfg.BaseScale
	if scale <= 0 {
		scale = 1
	}
	w := fitAxis(float64(width)*scale, cfg.MaxWidth)
	h := fitAxis(float64(height)*scale, cfg.MaxHeight)
	return Dimensions{Width: w, Height: h, Scale: float64(w) / float64(width)}
}

// maxPowerOfTwo is the largest power of two an int holds.
const maxPowerOfTwo = 1 << (bits.UintSize - 2)

func fitAxis(v float64, limit int) int {
	if limit > 0 {
		v = min(v, float64(limit))
	}
	v = min(v, maxPowerOfTwo)
	p := NearestPowerOfTwo(int(math.Round(v)))
	if limit > 0 {
		p = min(p, FloorPowerOfTwo(limit))
	}
	return max(p, 1)
}

// NearestPowerOfTwo rounds n to the closest power of two. Ties go up.
func NearestPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	lo := FloorPowerOfTwo(n)
	if lo == n || lo == maxPowerOfTwo {
		return lo
	}
	hi := lo << 1
	if n-lo < hi-n {
		return lo
	}
	return hi
}

// FloorPowerOfTwo returns the largest power of two <= n, or 1 for n < 1.
func FloorPowerOfTwo(n int) int {
	if n < 1 {
		return 1
	}
	return 1 << (bits.Len(uint(n)) - 1)
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
