// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package device

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/ripple/gl"
	"github.com/gogpu/ripple/internal/slogx"
	"golang.org/x/text/cases"
)

// Environment supplies the non-GPU device signals.
type Environment interface {
	UserAgent() string
	DevicePixelRatio() float64
	ScreenSize() Screen
	CPUCores() int
	// TouchPoints is the maximum number of simultaneous touch points.
	TouchPoints() int
	// Memory returns the heap hint and whether the platform provides one.
	Memory() (MemoryInfo, bool)
}

// StaticEnvironment is an Environment with fixed values.
type StaticEnvironment struct {
	UA     string
	DPR    float64
	Screen Screen
	Cores  int
	Touch  int
	Heap   *MemoryInfo
}

func (e StaticEnvironment) UserAgent() string { return e.UA }

func (e StaticEnvironment) DevicePixelRatio() float64 {
	if e.DPR <= 0 {
		return 1
	}
	return e.DPR
}

func (e StaticEnvironment) ScreenSize() Screen { return e.Screen }

func (e StaticEnvironment) CPUCores() int { return e.Cores }

func (e StaticEnvironment) TouchPoints() int { return e.Touch }

func (e StaticEnvironment) Memory() (MemoryInfo, bool) {
	if e.Heap == nil {
		return MemoryInfo{}, false
	}
	return *e.Heap, true
}

// GPUInfo is what a GPU probe learns about the adapter.
type GPUInfo struct {
	Adapter        gpucontext.AdapterInfo
	MaxTextureSize int
	Renderer       string
}

// GPUProbe inspects the GPU.
type GPUProbe interface {
	ProbeGPU() (GPUInfo, error)
}

// GPUProbeFunc adapts a function to GPUProbe.
type GPUProbeFunc func() (GPUInfo, error)

// ProbeGPU calls f.
func (f GPUProbeFunc) ProbeGPU() (GPUInfo, error) { return f() }

// GLProbe probes through a throwaway GL context. The context is released
// before ProbeGPU returns, whether or not probing succeeded.
type GLProbe struct {
	Factory gl.Factory
}

// ProbeGPU implements GPUProbe.
func (p GLProbe) ProbeGPU() (info GPUInfo, err error) {
	if p.Factory == nil {
		return GPUInfo{}, ErrNoGPU
	}
	defer func() {
		if r := recover(); r != nil {
			info, err = GPUInfo{}, fmt.Errorf("%w: %v", ErrProbePanic, r)
		}
	}()

	ctx, err := p.Factory()
	if err != nil {
		return GPUInfo{}, fmt.Errorf("device: create probe context: %w", err)
	}
	if ctx == nil {
		return GPUInfo{}, ErrNoGPU
	}
	defer ctx.Release()

	renderer := ctx.Renderer()
	return GPUInfo{
		Adapter:        AdapterFromRenderer(renderer),
		MaxTextureSize: ctx.MaxTextureSize(),
		Renderer:       renderer,
	}, nil
}

// AdapterFromRenderer guesses the adapter type from a GL renderer string.
func AdapterFromRenderer(renderer string) gpucontext.AdapterInfo {
	r := cases.Fold().String(renderer)
	info := gpucontext.AdapterInfo{Name: renderer, Type: gpucontext.AdapterTypeUnknown}
	switch {
	case r == "":
	case containsAny(r, "swiftshader", "llvmpipe", "softpipe", "software", "basic render"):
		info.Type = gpucontext.AdapterTypeSoftware
	case containsAny(r, "geforce", "nvidia", "quadro", "rtx", "radeon rx", "radeon pro", "arc a"):
		info.Type = gpucontext.AdapterTypeDiscrete
	case containsAny(r, "intel", "iris", "uhd", "mali", "adreno", "powervr", "apple", "vega", "videocore"):
		info.Type = gpucontext.AdapterTypeIntegrated
	}
	return info
}

// RawTier estimates the GPU tier before memory and texture-size downgrades.
//
// Heuristics:
//   - Discrete adapters are high, integrated medium, software low
//   - Unknown adapters fall back to the texture ceiling:
//     >= 8192 high, >= 4096 medium, otherwise low
//   - Mobile devices cap at medium unless the adapter is discrete
func RawTier(info GPUInfo, mobile bool) Tier {
	var t Tier
	switch info.Adapter.Type {
	case gpucontext.AdapterTypeDiscrete:
		return TierHigh
	case gpucontext.AdapterTypeIntegrated:
		t = TierMedium
	case gpucontext.AdapterTypeSoftware:
		return TierLow
	default:
		switch {
		case info.MaxTextureSize >= 8192:
			t = TierHigh
		case info.MaxTextureSize >= 4096:
			t = TierMedium
		default:
			t = TierLow
		}
	}
	if mobile && t > TierMedium {
		t = TierMedium
	}
	return t
}

// Prober builds Capabilities snapshots.
type Prober struct {
	env    Environment
	gpu    GPUProbe
	logger *slog.Logger
}

// NewProber creates a Prober. A nil gpu means no GPU acceleration is
// available. A nil logger disables logging.
func NewProber(env Environment, gpu GPUProbe, logger *slog.Logger) *Prober {
	if env == nil {
		env = StaticEnvironment{}
	}
	return &Prober{env: env, gpu: gpu, logger: slogx.OrNop(logger)}
}

// Probe takes a snapshot. It never panics: any failure degrades to no WebGL,
// unknown platform and TierLow.
func (p *Prober) Probe() (caps Capabilities) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("device: probe panicked, using safe defaults", "panic", r)
			caps = Capabilities{DevicePixelRatio: 1, GPUTier: TierLow}
		}
	}()

	ua := ParseUserAgent(p.env.UserAgent())
	touch := p.env.TouchPoints()
	// iPadOS reports a desktop Safari user agent.
	if ua.OS == OSMacOS && touch > 1 {
		ua.IsDesktop, ua.IsTablet = false, true
	}

	caps = Capabilities{
		DevicePixelRatio: p.env.DevicePixelRatio(),
		Screen:           p.env.ScreenSize(),
		UserAgent:        ua,
		CPUCores:         p.env.CPUCores(),
		TouchPoints:      touch,
	}
	if caps.DevicePixelRatio <= 0 {
		caps.DevicePixelRatio = 1
	}
	caps.IsMobile = isMobile(ua, caps.Screen, touch)
	if mem, ok := p.env.Memory(); ok {
		caps.Memory = &mem
	}

	if p.gpu == nil {
		p.logger.Debug("device: no GPU probe configured")
		return caps
	}
	info, err := p.gpu.ProbeGPU()
	if err != nil {
		p.logger.Warn("device: GPU probe failed", "err", err)
		return caps
	}

	// The zero AdapterType means discrete, so an empty adapter is derived
	// from the renderer string instead.
	if info.Adapter == (gpucontext.AdapterInfo{}) {
		info.Adapter = AdapterFromRenderer(info.Renderer)
	}
	caps.HasWebGL = true
	caps.MaxTextureSize = info.MaxTextureSize
	caps.Adapter = info.Adapter
	caps.Renderer = info.Renderer
	caps.GPUTier = RawTier(info, caps.IsMobile)
	p.logger.Debug("device: probed",
		"adapter", strings.TrimSpace(info.Adapter.Name),
		"type", info.Adapter.Type,
		"maxTexture", info.MaxTextureSize,
		"tier", caps.GPUTier)
	return caps
}
