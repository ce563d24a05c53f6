package ripple

import (
	"time"

	"github.com/gogpu/ripple/device"
	"github.com/gogpu/ripple/fallback"
)

// cssRenderer drives the CSS fallback engine. It draws nothing itself; the
// host reads ripples and their styles from Surface.Fallback.
type cssRenderer struct {
	s      *Surface
	engine *fallback.Engine
}

func newCSSRenderer(s *Surface) Renderer {
	return &cssRenderer{s: s}
}

func (r *cssRenderer) Mount(width, height int) error {
	s := r.s
	d := s.cfg.AnimationDuration
	if limit := s.class.Settings.MaxAnimationDuration; limit > 0 && d > limit {
		d = limit
	}
	r.engine = fallback.New(fallback.Config{
		Src:               s.opts.src,
		Alt:               s.opts.alt,
		AnimationDuration: d,
		Intensity:         s.cfg.RippleIntensity,
		Tier:              s.class.Tier,
		ReduceMotion:      s.signals.ReduceMotion(),
		Logger:            s.logger,
	}, s.host, width, height)
	r.engine.Start()
	return nil
}

// Render follows reduced-motion preference changes; the browser animates
// the ripples.
func (r *cssRenderer) Render(time.Time) error {
	r.engine.SetReduceMotion(r.s.signals.ReduceMotion())
	return nil
}

func (r *cssRenderer) Pointer(x, y float64, down bool) {
	if down {
		r.engine.Spawn(x, y)
	}
}

func (r *cssRenderer) SetIdle(idle bool) { r.engine.SetIdle(idle) }

func (r *cssRenderer) SetTier(t device.Tier) error {
	r.engine.SetTier(t)
	return nil
}

func (r *cssRenderer) Resize(width, height int) { r.engine.Resize(width, height) }

func (r *cssRenderer) Unmount() { r.engine.Close() }
