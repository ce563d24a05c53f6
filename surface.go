// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package ripple

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/google/uuid"

	"github.com/gogpu/ripple/device"
	"github.com/gogpu/ripple/fallback"
	"github.com/gogpu/ripple/frame"
	"github.com/gogpu/ripple/gl"
	"github.com/gogpu/ripple/perf"
	"github.com/gogpu/ripple/platform"
	"github.com/gogpu/ripple/resource"
	"github.com/gogpu/ripple/shader"
	"github.com/gogpu/ripple/texture"
)

// HapticPulse is the vibration length used for pointer feedback.
const HapticPulse = 10 * time.Millisecond

// Surface is one ripple effect bound to a host element.
//
// New probes the device, classifies it, derives the texture bounds and the
// initial mode. Mount attaches the surface to an element and starts the
// per-frame loop: each frame checks the resource manager's pause state,
// applies frame skipping, renders with the active renderer and records the
// render time, after which the performance monitor samples the frame.
//
// Surface is not safe for concurrent use. Call its methods from the
// goroutine that drives the frame host, which is also where every callback
// runs.
type Surface struct {
	id     uuid.UUID
	opts   options
	cfg    Config
	logger *slog.Logger

	host    frame.Host
	glc     gl.Context
	signals platform.Signals

	caps       device.Capabilities
	classifier *device.Classifier
	class      device.Classification
	scale      texture.ScaleConfig

	images    *texture.Registry
	variants  *shader.Registry
	programs  *shader.Cache
	ownsCache bool

	resources *resource.Manager
	monitor   *perf.Monitor
	selector  *Selector
	renderers *gpucontext.Registry[Renderer]

	element       platform.Element
	width, height int
	mounted       bool
	closed        bool

	active     Renderer
	activeMode Mode
	outgoing   Renderer

	frameHandle frame.Handle
	gen         uint64
	lastRender  time.Time
	skipped     int
	idle        bool

	stopBattery func()
}

// New creates a surface. It never fails because of the device: missing GPU
// support selects the CSS fallback. It returns an error only for invalid
// options.
func New(opts ...Option) (*Surface, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.config.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	s := &Surface{
		id:      id,
		opts:    o,
		cfg:     o.config.withDefaults(),
		logger:  Logger().With("surface", id.String()),
		host:    o.host,
		glc:     o.glc,
		signals: o.signals.WithDefaults(),
	}
	if s.host == nil {
		s.host = frame.NewLoop(time.Now())
	}

	probe := o.probe
	if probe == nil {
		probe = contextProbe(o.glc)
	}
	s.caps = device.NewProber(o.env, probe, s.logger).Probe()
	s.classifier = device.NewClassifier(o.policy, s.logger)
	s.class = s.classify(s.cfg.Quality)
	s.scale = s.textureScale(s.class)

	s.images = o.images
	if s.images == nil {
		s.images = texture.NewRegistry(DefaultLoader, 0, s.logger)
	}
	s.variants = o.variants
	if s.variants == nil {
		s.variants = shader.NewRegistry()
	}
	s.programs = o.programs
	if s.programs == nil {
		s.programs = shader.NewCache(s.logger)
		s.ownsCache = true
	}

	s.resources = resource.NewManager(o.glc, resource.Config{
		Visibility:         s.signals.Visibility,
		Memory:             s.signals.Memory,
		OnVisibilityChange: s.visibilityChanged,
		OnMemoryPressure:   s.memoryPressure,
		Logger:             s.logger,
	})

	mc := o.monitor
	mc.Tier = s.class.Tier
	mc.MemoryUsage = s.resources.EstimatedMemoryUsage
	mc.Logger = s.logger
	s.monitor = perf.New(s.host, mc)

	s.selector = NewSelector(s.host, Inputs{
		Force:        s.cfg.ForceMode,
		UseWebGL:     s.class.Settings.UseWebGL && o.glc != nil,
		BatteryLow:   s.signals.Battery.Status().Low(platform.DefaultLowBattery),
		AtLowestTier: s.class.Tier == device.TierLow,
	}, withLogger(o.selector, s.logger))

	s.monitor.OnPerformanceDrop(func(perf.Metrics) {
		s.selector.Dispatch(Event{Kind: EventPerformancePoor, Value: true})
	})
	s.monitor.OnRecover(func(perf.Metrics) {
		s.selector.Dispatch(Event{Kind: EventPerformancePoor, Value: false})
	})
	s.monitor.OnTierChange(func(_, to device.Tier) { s.applyTier(to) })
	s.selector.OnChange(s.transition)

	s.renderers = gpucontext.NewRegistry[Renderer](gpucontext.WithPriority(RendererWebGL, RendererCSS))
	s.renderers.Register(RendererWebGL, func() Renderer { return newWebGLRenderer(s) })
	s.renderers.Register(RendererCSS, func() Renderer { return newCSSRenderer(s) })
	for mode, factory := range o.renderers {
		s.renderers.Register(mode.String(), factory)
	}

	s.stopBattery = s.signals.Battery.OnChange(func(b platform.BatteryStatus) {
		s.SetBatteryLow(b.Low(platform.DefaultLowBattery))
	})

	s.logger.Info("ripple: surface created",
		"type", s.class.Type,
		"tier", s.class.Tier,
		"webgl", s.class.Settings.UseWebGL,
		"mode", s.selector.Mode(),
		"texture", fmt.Sprintf("%dx%d", s.scale.MaxWidth, s.scale.MaxHeight))
	return s, nil
}

func withLogger(c SelectorConfig, l *slog.Logger) SelectorConfig {
	if c.Logger == nil {
		c.Logger = l
	}
	return c
}

// contextProbe inspects a live context without releasing it.
func contextProbe(glc gl.Context) device.GPUProbe {
	return device.GPUProbeFunc(func() (device.GPUInfo, error) {
		if glc == nil || glc.IsContextLost() {
			return device.GPUInfo{}, device.ErrNoGPU
		}
		r := glc.Renderer()
		return device.GPUInfo{
			Adapter:        device.AdapterFromRenderer(r),
			MaxTextureSize: glc.MaxTextureSize(),
			Renderer:       r,
		}, nil
	})
}

// classify applies a quality override on top of the classifier's result.
// Without WebGL the override is ignored.
func (s *Surface) classify(q Quality) device.Classification {
	c := s.classifier.Classify(s.caps)
	if t, ok := q.Tier(); ok && s.caps.HasWebGL {
		c.Tier = t
		c.Settings = s.classifier.Settings(t, c.Type, s.caps.DevicePixelRatio, s.caps.HasWebGL)
	}
	return c
}

// textureScale bounds the texture for c. The base scale is the smaller of
// the texture policy's scale and the classifier's recommendation.
func (s *Surface) textureScale(c device.Classification) texture.ScaleConfig {
	sc := s.opts.texturePolicy.CalculateScale(c.Tier, s.caps.DevicePixelRatio, s.caps.IsMobile, s.caps.MaxTextureSize)
	if ts := c.Settings.TextureScale; ts > 0 {
		sc.BaseScale = math.Min(sc.BaseScale, ts)
	}
	return sc
}

// Mount attaches the surface to el, mounts the renderer of the committed
// mode and starts the frame loop. Mounting again moves visibility tracking
// to el and resizes.
func (s *Surface) Mount(el platform.Element) error {
	if s.closed {
		return ErrClosed
	}
	if el == nil {
		return fmt.Errorf("%w: nil element", ErrInvalidOption)
	}
	w, h := el.Size()
	if s.mounted {
		if el != s.element {
			s.element = el
			s.resources.ObserveElement(el)
		}
		s.Resize(w, h)
		return nil
	}

	s.element, s.width, s.height = el, max(w, 0), max(h, 0)
	s.mounted = true
	s.resources.ObserveElement(el)

	mode := s.selector.Mode()
	if err := s.activate(mode); err != nil {
		if mode != ModeWebGL {
			s.abortMount(el)
			return err
		}
		s.fail(err)
	}
	if s.active == nil {
		s.abortMount(el)
		return fmt.Errorf("%w: %s", ErrNoRenderer, s.selector.Mode())
	}

	s.gen++
	s.scheduleFrame(s.gen)
	s.monitor.Start()
	return nil
}

// abortMount undoes a Mount whose renderer could not be mounted, so a later
// Mount starts over.
func (s *Surface) abortMount(el platform.Element) {
	s.mounted = false
	s.resources.UnobserveElement(el)
	s.element = nil
	s.logger.Warn("ripple: mount failed", "mode", s.selector.Mode())
}

// activate mounts the renderer for mode and makes it active. The previous
// renderer stays mounted until the new one has rendered a frame.
func (s *Surface) activate(mode Mode) error {
	r := s.renderers.Get(mode.String())
	if r == nil {
		return fmt.Errorf("%w: %s", ErrNoRenderer, mode)
	}
	if err := r.Mount(s.width, s.height); err != nil {
		return err
	}
	if s.active != nil {
		if s.outgoing != nil {
			s.outgoing.Unmount()
		}
		s.outgoing = s.active
	}
	s.active, s.activeMode = r, mode
	s.idle = false
	s.logger.Info("ripple: renderer mounted", "mode", mode, "size", fmt.Sprintf("%dx%d", s.width, s.height))
	return nil
}

// transition runs after the selector committed a new mode.
func (s *Surface) transition(from, to Mode) {
	if !s.mounted || s.closed {
		return
	}
	if s.active != nil && s.activeMode == to {
		return
	}
	if err := s.activate(to); err != nil {
		if to == ModeWebGL {
			s.fail(err)
			return
		}
		s.logger.Warn("ripple: CSS fallback mount failed", "from", from, "err", err)
	}
}

// fail records a WebGL failure and switches to CSS without debounce.
func (s *Surface) fail(err error) {
	s.logger.Warn("ripple: falling back to CSS", "err", err)
	s.selector.Dispatch(Event{Kind: EventShaderFailure, Value: true})
	s.selector.Commit()
}

func (s *Surface) scheduleFrame(gen uint64) {
	s.frameHandle = s.host.RequestFrame(func(now time.Time) {
		if s.closed || gen != s.gen {
			return
		}
		s.scheduleFrame(gen)
		s.renderFrame(now)
	})
}

func (s *Surface) renderFrame(now time.Time) {
	if s.active == nil || s.resources.IsRenderingPaused() {
		return
	}
	if st := s.class.Settings; st.EnableFrameSkipping && st.TargetFPS > 0 && !s.lastRender.IsZero() {
		budget := time.Second / time.Duration(st.TargetFPS)
		if now.Sub(s.lastRender) < budget*9/10 {
			s.skipped++
			return
		}
	}
	s.updateIdle()

	start := time.Now()
	err := s.active.Render(now)
	s.monitor.RecordRenderTime(time.Since(start))
	if err != nil {
		if s.activeMode == ModeWebGL {
			s.fail(err)
		} else {
			s.logger.Warn("ripple: render failed", "mode", s.activeMode, "err", err)
		}
		return
	}
	s.resources.MarkFrame(now)
	s.lastRender = now

	if s.outgoing != nil {
		s.outgoing.Unmount()
		s.outgoing = nil
	}
}

func (s *Surface) updateIdle() {
	idle := s.opts.idleAfter > 0 && !s.signals.ReduceMotion() && s.monitor.IsIdle(s.opts.idleAfter)
	if idle == s.idle {
		return
	}
	s.idle = idle
	s.active.SetIdle(idle)
	s.logger.Debug("ripple: idle changed", "idle", idle)
}

// Resize updates the element size.
func (s *Surface) Resize(width, height int) {
	if s.closed {
		return
	}
	s.width, s.height = max(width, 0), max(height, 0)
	if s.active != nil {
		s.active.Resize(s.width, s.height)
	}
	if s.outgoing != nil {
		s.outgoing.Resize(s.width, s.height)
	}
}

// PointerDown handles a press or touch start at (x, y) in element
// coordinates.
func (s *Surface) PointerDown(x, y float64) {
	s.pointer(x, y, true)
	if s.closed || !s.cfg.EnableHapticFeedback {
		return
	}
	if !s.signals.Haptics.Vibrate(HapticPulse) {
		s.logger.Debug("ripple: haptic feedback unavailable")
	}
}

// PointerMove handles pointer movement.
func (s *Surface) PointerMove(x, y float64) {
	s.pointer(x, y, false)
}

func (s *Surface) pointer(x, y float64, down bool) {
	if s.closed {
		return
	}
	s.monitor.RecordInteraction()
	if s.active == nil {
		return
	}
	if s.idle {
		s.idle = false
		s.active.SetIdle(false)
	}
	s.active.Pointer(x, y, down)
}

// SetBatteryLow asserts or clears the low-battery signal.
func (s *Surface) SetBatteryLow(low bool) {
	s.selector.Dispatch(Event{Kind: EventBatteryLow, Value: low})
}

// SetPaused pauses or resumes the surface. A paused surface skips frames
// and prefers the CSS fallback.
func (s *Surface) SetPaused(paused bool) {
	if paused {
		s.resources.PauseRendering()
	} else {
		s.resources.ResumeRendering()
	}
	s.selector.Dispatch(Event{Kind: EventVisibilityPaused, Value: paused})
}

// SetForceMode changes the mode override.
func (s *Surface) SetForceMode(f ForceMode) error {
	if f < ForceNone || f > ForceCSS {
		return fmt.Errorf("%w: force mode %d", ErrInvalidOption, f)
	}
	s.cfg.ForceMode = f
	s.selector.Dispatch(Event{Kind: EventForceMode, Force: f})
	return nil
}

// SetQuality changes the quality override and reclassifies.
func (s *Surface) SetQuality(q Quality) error {
	if q < QualityAuto || q > QualityHigh {
		return fmt.Errorf("%w: quality %d", ErrInvalidOption, q)
	}
	s.cfg.Quality = q
	s.applyClassification(s.classify(q))
	return nil
}

// applyTier follows a monitor demotion.
func (s *Surface) applyTier(t device.Tier) {
	c := s.class
	c.Tier = t
	c.Settings = s.classifier.Settings(t, c.Type, s.caps.DevicePixelRatio, s.caps.HasWebGL)
	s.applyClassification(c)
}

func (s *Surface) applyClassification(c device.Classification) {
	if s.closed {
		return
	}
	prev := s.class.Tier
	s.class = c
	s.scale = s.textureScale(c)
	s.monitor.SetTier(c.Tier)
	s.selector.Dispatch(Event{Kind: EventLowestTier, Value: c.Tier == device.TierLow})
	if prev == c.Tier {
		return
	}
	s.logger.Info("ripple: tier changed", "from", prev, "to", c.Tier)
	if s.active == nil {
		return
	}
	if err := s.active.SetTier(c.Tier); err != nil && s.activeMode == ModeWebGL {
		s.fail(err)
	}
}

func (s *Surface) visibilityChanged(visible bool) {
	s.logger.Debug("ripple: visibility changed", "visible", visible)
}

// memoryPressure demotes the tier one step per notification.
func (s *Surface) memoryPressure(p platform.Pressure) {
	if s.closed {
		return
	}
	if !s.monitor.Demote() {
		s.logger.Debug("ripple: memory pressure at lowest tier", "critical", p.Critical)
	}
}

// Unmount detaches the surface from its element, stops the frame loop and
// unmounts the renderers. GL programs stay cached, so a later Mount is
// cheap.
func (s *Surface) Unmount() error {
	if s.closed {
		return ErrClosed
	}
	if !s.mounted {
		return ErrNotMounted
	}
	s.mounted = false
	s.gen++
	s.host.CancelFrame(s.frameHandle)
	s.monitor.Stop()
	if s.outgoing != nil {
		s.outgoing.Unmount()
		s.outgoing = nil
	}
	if s.active != nil {
		s.active.Unmount()
		s.active = nil
	}
	s.resources.UnobserveElement(s.element)
	s.element = nil
	s.lastRender = time.Time{}
	s.logger.Info("ripple: surface unmounted")
	return nil
}

// Preload loads and decodes the configured image through the image
// registry. The WebGL renderer uploads it on the next frame.
func (s *Surface) Preload(ctx context.Context) (texture.Image, error) {
	if s.opts.src == "" {
		return texture.Image{}, fmt.Errorf("%w: no image source", ErrInvalidOption)
	}
	return s.images.Preload(ctx, s.opts.src)
}

// Close stops the frame loop, unmounts the renderers and releases every GL
// object the surface owns. It is idempotent.
func (s *Surface) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	s.host.CancelFrame(s.frameHandle)
	s.selector.Close()
	s.monitor.Dispose()
	if s.stopBattery != nil {
		s.stopBattery()
	}
	if s.outgoing != nil {
		s.outgoing.Unmount()
		s.outgoing = nil
	}
	if s.active != nil {
		s.active.Unmount()
		s.active = nil
	}
	programs := 0
	if s.ownsCache && s.glc != nil {
		programs = s.programs.ReleaseContext(s.glc)
	}
	handles := s.resources.Dispose()
	s.logger.Info("ripple: surface closed", "handles", handles, "programs", programs)
}

// ID identifies the surface.
func (s *Surface) ID() uuid.UUID { return s.id }

// Host returns the frame host driving the surface.
func (s *Surface) Host() frame.Host { return s.host }

// Mode returns the committed mode.
func (s *Surface) Mode() Mode { return s.selector.Mode() }

// Config returns the effective configuration.
func (s *Surface) Config() Config { return s.cfg }

// Capabilities returns the probed device capabilities.
func (s *Surface) Capabilities() device.Capabilities { return s.caps }

// Classification returns the active classification, including demotions.
func (s *Surface) Classification() device.Classification { return s.class }

// TextureScale returns the active texture bounds.
func (s *Surface) TextureScale() texture.ScaleConfig { return s.scale }

// Metrics returns the performance metrics.
func (s *Surface) Metrics() perf.Metrics { return s.monitor.Metrics() }

// Monitor returns the performance monitor.
func (s *Surface) Monitor() *perf.Monitor { return s.monitor }

// Selector returns the mode selector.
func (s *Surface) Selector() *Selector { return s.selector }

// Resources returns the resource manager.
func (s *Surface) Resources() *resource.Manager { return s.resources }

// Programs returns the shader program cache.
func (s *Surface) Programs() *shader.Cache { return s.programs }

// Images returns the preloaded-image registry.
func (s *Surface) Images() *texture.Registry { return s.images }

// Fallback returns the CSS engine while the CSS renderer is active, nil
// otherwise. Hosts read ripples and styles from it.
func (s *Surface) Fallback() *fallback.Engine {
	if r, ok := s.active.(*cssRenderer); ok {
		return r.engine
	}
	return nil
}

// Stats summarises the surface.
type Stats struct {
	Mode       Mode
	Tier       device.Tier
	Frames     int
	Skipped    int
	Idle       bool
	Metrics    perf.Metrics
	Resources  resource.Stats
	Programs   shader.Stats
	Overridden bool
}

// Stats returns a snapshot of the surface state.
func (s *Surface) Stats() Stats {
	return Stats{
		Mode:       s.selector.Mode(),
		Tier:       s.class.Tier,
		Frames:     s.resources.State().FrameCount,
		Skipped:    s.skipped,
		Idle:       s.idle,
		Metrics:    s.monitor.Metrics(),
		Resources:  s.resources.Stats(),
		Programs:   s.programs.Stats(),
		Overridden: s.selector.Overridden(),
	}
}
