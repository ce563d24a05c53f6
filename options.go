package ripple

import (
	"time"

	"github.com/gogpu/ripple/device"
	"github.com/gogpu/ripple/frame"
	"github.com/gogpu/ripple/gl"
	"github.com/gogpu/ripple/perf"
	"github.com/gogpu/ripple/platform"
	"github.com/gogpu/ripple/shader"
	"github.com/gogpu/ripple/texture"
)

// Option configures a Surface during creation.
//
// Example:
//
//	// CSS-only surface on a manual loop
//	loop := frame.NewLoop(time.Now())
//	s, err := ripple.New(
//	    ripple.WithHost(loop),
//	    ripple.WithImage("hero.jpg", "Harbour at dusk"),
//	    ripple.WithConfig(ripple.Config{ForceMode: ripple.ForceCSS}),
//	)
type Option func(*options)

// options holds the dependencies and tuning of a Surface.
type options struct {
	config Config

	host    frame.Host
	glc     gl.Context
	env     device.Environment
	probe   device.GPUProbe
	signals platform.Signals

	policy        device.Policy
	texturePolicy texture.Policy
	selector      SelectorConfig
	monitor       perf.Config
	idleAfter     time.Duration

	images   *texture.Registry
	programs *shader.Cache
	variants *shader.Registry

	renderers map[Mode]func() Renderer

	src, alt string
}

// defaultOptions returns the default surface options.
func defaultOptions() options {
	return options{
		config:        DefaultConfig(),
		env:           device.StaticEnvironment{},
		policy:        device.DefaultPolicy(),
		texturePolicy: texture.DefaultPolicy(),
		monitor:       perf.DefaultConfig(),
		idleAfter:     DefaultIdleAfter,
	}
}

// WithConfig sets the public configuration.
func WithConfig(c Config) Option {
	return func(o *options) {
		o.config = c
	}
}

// WithHost sets the frame scheduler and clock. Without it the surface runs
// on a frame.Loop the caller drives through Host.
func WithHost(h frame.Host) Option {
	return func(o *options) {
		o.host = h
	}
}

// WithContext sets the GL context the WebGL renderer draws with. Without a
// context the surface always uses the CSS fallback.
func WithContext(glc gl.Context) Option {
	return func(o *options) {
		o.glc = glc
	}
}

// WithEnvironment sets the source of non-GPU device signals.
func WithEnvironment(env device.Environment) Option {
	return func(o *options) {
		o.env = env
	}
}

// WithGPUProbe replaces the GPU probe. By default the surface inspects its
// own GL context.
func WithGPUProbe(p device.GPUProbe) Option {
	return func(o *options) {
		o.probe = p
	}
}

// WithSignals sets the platform signals. Missing signals use neutral
// defaults.
func WithSignals(s platform.Signals) Option {
	return func(o *options) {
		o.signals = s
	}
}

// WithPolicy sets the classification thresholds.
func WithPolicy(p device.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithTexturePolicy sets the texture size bounds.
func WithTexturePolicy(p texture.Policy) Option {
	return func(o *options) {
		o.texturePolicy = p
	}
}

// WithSelector tunes the mode selector.
func WithSelector(c SelectorConfig) Option {
	return func(o *options) {
		o.selector = c
	}
}

// WithMonitor tunes the performance monitor. Tier, MemoryUsage and Logger
// are filled in by the surface.
func WithMonitor(c perf.Config) Option {
	return func(o *options) {
		o.monitor = c
	}
}

// WithIdleAfter sets the inactivity delay before idle animation. A negative
// value disables idle animation.
func WithIdleAfter(d time.Duration) Option {
	return func(o *options) {
		o.idleAfter = d
	}
}

// WithImages shares a preloaded-image registry between surfaces.
func WithImages(r *texture.Registry) Option {
	return func(o *options) {
		o.images = r
	}
}

// WithShaderCache shares a program cache between surfaces on the same
// context. A shared cache is not cleared when the surface closes.
func WithShaderCache(c *shader.Cache) Option {
	return func(o *options) {
		o.programs = c
	}
}

// WithVariants replaces the shader variant registry.
func WithVariants(r *shader.Registry) Option {
	return func(o *options) {
		o.variants = r
	}
}

// WithRenderer replaces the renderer used for mode.
func WithRenderer(mode Mode, factory func() Renderer) Option {
	return func(o *options) {
		if o.renderers == nil {
			o.renderers = make(map[Mode]func() Renderer)
		}
		o.renderers[mode] = factory
	}
}

// WithImage sets the source image URL and its alternative text.
func WithImage(src, alt string) Option {
	return func(o *options) {
		o.src, o.alt = src, alt
	}
}
