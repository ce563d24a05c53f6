// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package perf samples frame timing and turns it into a quality signal.
//
// A Monitor measures the interval between consecutive frames, keeps current
// and rolling-average FPS, counts dropped frames and decides whether
// performance is poor. Sustained poor performance demotes the active quality
// tier one step at a time.
package perf

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/ripple/device"
	"github.com/gogpu/ripple/frame"
	"github.com/gogpu/ripple/internal/slogx"
)

// Default configuration values.
const (
	DefaultMinFPS            = 30
	DefaultDropTolerance     = 1.2
	DefaultWindow            = 60
	DefaultPoorWindow        = 5
	DefaultDemotionThreshold = 45
)

// Config tunes a Monitor. Zero fields take the defaults.
type Config struct {
	// MinFPS is the lowest acceptable frame rate.
	MinFPS float64
	// DropTolerance scales the MinFPS frame budget; frames longer than
	// budget*DropTolerance count as dropped.
	DropTolerance float64
	// Window is the number of samples in AverageFPS.
	Window int
	// PoorWindow is the number of samples averaged for IsPerformancePoor.
	PoorWindow int
	// DemotionThreshold is the number of consecutive poor samples that
	// demote the tier. Negative disables automatic demotion.
	DemotionThreshold int
	// Tier is the initial quality tier.
	Tier device.Tier
	// MemoryUsage, if set, is read on every sample.
	MemoryUsage func() int64
	Logger      *slog.Logger
}

// DefaultConfig returns the default configuration at the high tier.
func DefaultConfig() Config {
	return Config{
		MinFPS:            DefaultMinFPS,
		DropTolerance:     DefaultDropTolerance,
		Window:            DefaultWindow,
		PoorWindow:        DefaultPoorWindow,
		DemotionThreshold: DefaultDemotionThreshold,
		Tier:              device.TierHigh,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MinFPS <= 0 {
		c.MinFPS = d.MinFPS
	}
	if c.DropTolerance <= 0 {
		c.DropTolerance = d.DropTolerance
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.PoorWindow <= 0 {
		c.PoorWindow = d.PoorWindow
	}
	if c.DemotionThreshold == 0 {
		c.DemotionThreshold = d.DemotionThreshold
	}
	return c
}

// Budget returns the frame budget implied by MinFPS.
func (c Config) Budget() time.Duration {
	c = c.withDefaults()
	return time.Duration(float64(time.Second) / c.MinFPS)
}

// Metrics is a snapshot of a Monitor.
type Metrics struct {
	CurrentFPS      float64
	AverageFPS      float64
	FrameDrops      int
	MemoryUsage     int64
	LastInteraction time.Time
	RenderTime      time.Duration
	FrameCount      int
}

// State is the run state of a Monitor.
type State int

// Totals counts samples over the monitor's lifetime. Reset leaves them
// alone.
type Totals struct {
	Frames     uint64
	FrameDrops uint64
}

// Monitor states.
const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Monitor samples frame timing on a frame.Host.
//
// Callbacks registered with OnPerformanceDrop, OnRecover and OnTierChange run
// synchronously from Sample with no lock held.
type Monitor struct {
	mu     sync.Mutex
	cfg    Config
	host   frame.Host
	logger *slog.Logger

	state    State
	disposed bool
	gen      uint64
	handle   frame.Handle

	metrics     Metrics
	last        time.Time
	since       time.Time
	avg         *window
	short       *window
	poor        bool
	poorSamples int
	tier        device.Tier
	totals      Totals

	onDrop    []func(Metrics)
	onRecover []func(Metrics)
	onTier    []func(from, to device.Tier)
}

// New creates an idle Monitor driven by host.
func New(host frame.Host, cfg Config) *Monitor {
	cfg = cfg.withDefaults()
	return &Monitor{
		cfg:    cfg,
		host:   host,
		logger: slogx.OrNop(cfg.Logger),
		since:  host.Now(),
		avg:    newWindow(cfg.Window),
		short:  newWindow(cfg.PoorWindow),
		tier:   cfg.Tier,
	}
}

// Config returns the effective configuration.
func (m *Monitor) Config() Config { return m.cfg }

// OnPerformanceDrop registers fn to run once each time performance becomes
// poor.
func (m *Monitor) OnPerformanceDrop(fn func(Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDrop = append(m.onDrop, fn)
}

// OnRecover registers fn to run once each time performance stops being poor.
func (m *Monitor) OnRecover(fn func(Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRecover = append(m.onRecover, fn)
}

// OnTierChange registers fn to run when the tier is demoted.
func (m *Monitor) OnTierChange(fn func(from, to device.Tier)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onTier = append(m.onTier, fn)
}

// Start begins sampling once per frame. It is a no-op while running or
// after Dispose.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || m.state == StateRunning {
		return
	}
	m.state = StateRunning
	m.gen++
	m.last = time.Time{}
	m.schedule(m.gen)
	m.logger.Debug("perf: monitor started")
}

// schedule requests the next sample. Caller must hold m.mu.
func (m *Monitor) schedule(gen uint64) {
	m.handle = m.host.RequestFrame(func(now time.Time) {
		m.mu.Lock()
		if m.state != StateRunning || gen != m.gen {
			m.mu.Unlock()
			return
		}
		m.handle = 0
		m.mu.Unlock()

		m.Sample(now)

		m.mu.Lock()
		if m.state == StateRunning && gen == m.gen {
			m.schedule(gen)
		}
		m.mu.Unlock()
	})
}

// Stop cancels the pending sample and returns to idle.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	if m.state != StateRunning {
		return
	}
	m.state = StateIdle
	m.gen++
	m.host.CancelFrame(m.handle)
	m.handle = 0
	m.logger.Debug("perf: monitor stopped")
}

// Dispose stops the monitor and drops every callback. It is idempotent and
// the monitor cannot be restarted afterwards.
func (m *Monitor) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return
	}
	m.stopLocked()
	m.disposed = true
	m.onDrop, m.onRecover, m.onTier = nil, nil, nil
}

// State returns the run state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Sample records a frame presented at now. The first sample after Start or
// Reset only establishes the reference time.
func (m *Monitor) Sample(now time.Time) {
	m.mu.Lock()
	if m.last.IsZero() {
		m.last = now
		m.mu.Unlock()
		return
	}
	dt := now.Sub(m.last)
	if dt <= 0 {
		m.mu.Unlock()
		return
	}
	m.last = now

	fps := float64(time.Second) / float64(dt)
	m.metrics.FrameCount++
	m.totals.Frames++
	m.metrics.CurrentFPS = fps
	m.avg.push(fps)
	m.short.push(fps)
	m.metrics.AverageFPS = m.avg.mean()
	if float64(dt) > float64(m.cfg.Budget())*m.cfg.DropTolerance {
		m.metrics.FrameDrops++
		m.totals.FrameDrops++
	}
	if m.cfg.MemoryUsage != nil {
		m.metrics.MemoryUsage = m.cfg.MemoryUsage()
	}

	poor := m.short.full() && m.short.mean() < m.cfg.MinFPS
	var (
		drop, recovered bool
		demote          bool
	)
	switch {
	case poor && !m.poor:
		drop = true
	case !poor && m.poor:
		recovered = true
	}
	m.poor = poor
	if poor {
		m.poorSamples++
		if m.cfg.DemotionThreshold > 0 && m.poorSamples >= m.cfg.DemotionThreshold {
			m.poorSamples = 0
			demote = true
		}
	} else {
		m.poorSamples = 0
	}
	snap := m.metrics
	onDrop, onRecover := m.onDrop, m.onRecover
	m.mu.Unlock()

	if drop {
		m.logger.Info("perf: performance dropped", "fps", snap.CurrentFPS, "average", snap.AverageFPS)
		for _, fn := range onDrop {
			fn(snap)
		}
	}
	if recovered {
		m.logger.Info("perf: performance recovered", "fps", snap.CurrentFPS, "average", snap.AverageFPS)
		for _, fn := range onRecover {
			fn(snap)
		}
	}
	if demote {
		m.Demote()
	}
}

// Demote lowers the tier one step and reports whether it changed.
func (m *Monitor) Demote() bool {
	m.mu.Lock()
	from := m.tier
	to := from.Downgrade()
	if to == from {
		m.mu.Unlock()
		return false
	}
	m.tier = to
	onTier := m.onTier
	m.mu.Unlock()

	m.logger.Info("perf: tier demoted", "from", from, "to", to)
	for _, fn := range onTier {
		fn(from, to)
	}
	return true
}

// Tier returns the active quality tier.
func (m *Monitor) Tier() device.Tier {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tier
}

// SetTier replaces the active tier without notifying OnTierChange.
func (m *Monitor) SetTier(t device.Tier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tier = t
	m.poorSamples = 0
}

// IsPerformancePoor reports whether the short rolling average is below
// MinFPS.
func (m *Monitor) IsPerformancePoor() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.poor
}

// RecordInteraction stamps the time of the latest user interaction. It works
// whether or not the monitor is running.
func (m *Monitor) RecordInteraction() {
	now := m.host.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.LastInteraction = now
}

// IdleFor returns the time since the last interaction, or since the monitor
// was created or reset if there was none.
func (m *Monitor) IdleFor() time.Duration {
	now := m.host.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := m.metrics.LastInteraction
	if ref.IsZero() {
		ref = m.since
	}
	return now.Sub(ref)
}

// IsIdle reports whether no interaction happened for at least threshold.
func (m *Monitor) IsIdle(threshold time.Duration) bool {
	return m.IdleFor() >= threshold
}

// RecordRenderTime stores the cost of the latest render.
func (m *Monitor) RecordRenderTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.RenderTime = d
}

// Metrics returns a snapshot of the current metrics.
func (m *Monitor) Metrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metrics
}

// Totals returns the lifetime frame and drop counts.
func (m *Monitor) Totals() Totals {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals
}

// Reset zeroes every metric and the poor-performance state. The run state,
// the tier and Totals are unchanged.
func (m *Monitor) Reset() {
	now := m.host.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics = Metrics{}
	m.last = time.Time{}
	m.since = now
	m.avg.reset()
	m.short.reset()
	m.poor = false
	m.poorSamples = 0
}
