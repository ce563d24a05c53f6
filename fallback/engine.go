// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package fallback implements the CSS-only ripple used when WebGL is
// unavailable or undesirable.
//
// The Engine does no drawing. It tracks ripples (anchor, size, lifetime) and
// renders inline CSS for the host to apply to absolutely positioned elements
// over the image. Each ripple removes itself after the animation duration
// through its own timer.
package fallback

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gogpu/ripple/device"
	"github.com/gogpu/ripple/frame"
	"github.com/gogpu/ripple/internal/slogx"
)

// Default timings.
const (
	DefaultAnimationDuration  = 2500 * time.Millisecond
	DefaultAutoRippleDelay    = 400 * time.Millisecond
	DefaultAutoRippleInterval = 3 * time.Second
)

// ErrUnknownIntensity is returned by ParseIntensity.
var ErrUnknownIntensity = errors.New("fallback: unknown ripple intensity")

// Intensity scales ripple size and opacity.
type Intensity int

// Ripple intensities. The zero value is IntensityNormal.
const (
	IntensityNormal Intensity = iota
	IntensitySubtle
	IntensityStrong
)

func (i Intensity) String() string {
	switch i {
	case IntensitySubtle:
		return "subtle"
	case IntensityStrong:
		return "strong"
	default:
		return "normal"
	}
}

// Scale returns the size and opacity multiplier.
func (i Intensity) Scale() float64 {
	switch i {
	case IntensitySubtle:
		return 0.6
	case IntensityStrong:
		return 1.4
	default:
		return 1
	}
}

// ParseIntensity parses "subtle", "normal" or "strong".
func ParseIntensity(s string) (Intensity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "subtle":
		return IntensitySubtle, nil
	case "normal", "":
		return IntensityNormal, nil
	case "strong":
		return IntensityStrong, nil
	}
	return IntensityNormal, fmt.Errorf("%w: %q", ErrUnknownIntensity, s)
}

// Config configures an Engine. Zero durations take the defaults.
type Config struct {
	// Src and Alt describe the image under the ripples.
	Src string
	Alt string

	AnimationDuration time.Duration
	Intensity         Intensity
	// Tier selects the visual richness of each ripple.
	Tier device.Tier

	// AutoRippleDelay is the delay before the centred ripple after Start.
	AutoRippleDelay time.Duration
	// AutoRippleInterval spaces centred ripples while idle.
	AutoRippleInterval time.Duration
	// ReduceMotion disables every automatic ripple.
	ReduceMotion bool

	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.AnimationDuration <= 0 {
		c.AnimationDuration = DefaultAnimationDuration
	}
	if c.AutoRippleDelay <= 0 {
		c.AutoRippleDelay = DefaultAutoRippleDelay
	}
	if c.AutoRippleInterval <= 0 {
		c.AutoRippleInterval = DefaultAutoRippleInterval
	}
	return c
}

// Ripple is one expanding ring.
type Ripple struct {
	ID uint64
	// X and Y are relative to the container's top-left corner.
	X, Y float64
	// Size is the final diameter in CSS pixels.
	Size     float64
	Start    time.Time
	Duration time.Duration
	// Auto is set for ripples the engine spawned by itself.
	Auto bool
}

type entry struct {
	Ripple
	timer frame.Timer
}

// Engine tracks CSS ripples for one container.
//
// Engine is safe for concurrent use. OnChange callbacks run with no lock
// held, from whichever goroutine spawned or removed the ripple.
type Engine struct {
	mu     sync.Mutex
	cfg    Config
	clock  frame.Clock
	logger *slog.Logger

	width, height int
	ripples       []*entry
	nextID        uint64

	started    bool
	closed     bool
	idle       bool
	mountTimer frame.Timer
	idleTimer  frame.Timer
	onChange   []func([]Ripple)
}

// New creates an engine for a width×height container.
func New(cfg Config, clock frame.Clock, width, height int) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		cfg:    cfg,
		clock:  clock,
		logger: slogx.OrNop(cfg.Logger),
		width:  max(width, 0),
		height: max(height, 0),
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// OnChange registers fn to receive the live ripples after every change.
func (e *Engine) OnChange(fn func([]Ripple)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = append(e.onChange, fn)
}

// Start arms the centred ripple that follows mounting. Calling Start again
// has no effect.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.closed {
		return
	}
	e.started = true
	if e.cfg.ReduceMotion {
		return
	}
	e.mountTimer = e.clock.AfterFunc(e.cfg.AutoRippleDelay, func() {
		e.mu.Lock()
		e.mountTimer = nil
		e.mu.Unlock()
		e.autoRipple()
	})
}

// SetIdle starts or stops centred ripples every AutoRippleInterval.
func (e *Engine) SetIdle(idle bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.idle == idle || e.closed {
		return
	}
	e.idle = idle
	if !idle {
		stopTimer(&e.idleTimer)
		return
	}
	if !e.cfg.ReduceMotion {
		e.scheduleIdleLocked()
	}
}

func (e *Engine) scheduleIdleLocked() {
	e.idleTimer = e.clock.AfterFunc(e.cfg.AutoRippleInterval, func() {
		e.mu.Lock()
		e.idleTimer = nil
		if !e.idle || e.closed || e.cfg.ReduceMotion {
			e.mu.Unlock()
			return
		}
		e.scheduleIdleLocked()
		e.mu.Unlock()
		e.autoRipple()
	})
}

func (e *Engine) autoRipple() {
	e.mu.Lock()
	if e.closed || e.cfg.ReduceMotion {
		e.mu.Unlock()
		return
	}
	x, y := float64(e.width)/2, float64(e.height)/2
	e.mu.Unlock()
	e.spawn(x, y, true)
}

// SetReduceMotion toggles automatic ripples. Enabling it cancels any
// pending automatic ripple; disabling it resumes idle ripples.
func (e *Engine) SetReduceMotion(reduce bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cfg.ReduceMotion == reduce || e.closed {
		return
	}
	e.cfg.ReduceMotion = reduce
	if reduce {
		stopTimer(&e.mountTimer)
		stopTimer(&e.idleTimer)
		return
	}
	if e.idle && e.idleTimer == nil {
		e.scheduleIdleLocked()
	}
}

func stopTimer(t *frame.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// SetTier changes the styling of ripples returned by Style from now on.
func (e *Engine) SetTier(t device.Tier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Tier = t
}

// Resize updates the container size used for centring and ripple size.
func (e *Engine) Resize(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.width, e.height = max(width, 0), max(height, 0)
}

// Spawn adds a ripple anchored at (x, y). It returns false after Close.
func (e *Engine) Spawn(x, y float64) (Ripple, bool) {
	return e.spawn(x, y, false)
}

func (e *Engine) spawn(x, y float64, auto bool) (Ripple, bool) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return Ripple{}, false
	}
	e.nextID++
	id := e.nextID
	r := &entry{Ripple: Ripple{
		ID:       id,
		X:        x,
		Y:        y,
		Size:     e.rippleSize(x, y),
		Start:    e.clock.Now(),
		Duration: e.cfg.AnimationDuration,
		Auto:     auto,
	}}
	r.timer = e.clock.AfterFunc(e.cfg.AnimationDuration, func() { e.remove(id) })
	e.ripples = append(e.ripples, r)
	snap, fns := e.snapshotLocked(), e.onChange
	e.mu.Unlock()

	e.logger.Debug("fallback: ripple spawned", "id", id, "x", x, "y", y, "auto", auto)
	notify(fns, snap)
	return r.Ripple, true
}

// rippleSize covers the farthest container corner from the anchor. Caller
// must hold e.mu.
func (e *Engine) rippleSize(x, y float64) float64 {
	w, h := float64(e.width), float64(e.height)
	dx := math.Max(x, w-x)
	dy := math.Max(y, h-y)
	return 2 * math.Hypot(dx, dy) * e.cfg.Intensity.Scale()
}

func (e *Engine) remove(id uint64) {
	e.mu.Lock()
	idx := -1
	for i, r := range e.ripples {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return
	}
	e.ripples = append(e.ripples[:idx], e.ripples[idx+1:]...)
	snap, fns := e.snapshotLocked(), e.onChange
	e.mu.Unlock()
	notify(fns, snap)
}

func (e *Engine) snapshotLocked() []Ripple {
	out := make([]Ripple, len(e.ripples))
	for i, r := range e.ripples {
		out[i] = r.Ripple
	}
	return out
}

func notify(fns []func([]Ripple), snap []Ripple) {
	for _, fn := range fns {
		fn(snap)
	}
}

// Ripples returns the live ripples, oldest first.
func (e *Engine) Ripples() []Ripple {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Close cancels every timer and removes all ripples. It is idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	stopTimer(&e.mountTimer)
	stopTimer(&e.idleTimer)
	for _, r := range e.ripples {
		r.timer.Stop()
	}
	had := len(e.ripples) > 0
	e.ripples = nil
	fns := e.onChange
	e.onChange = nil
	e.mu.Unlock()

	if had {
		notify(fns, nil)
	}
}
