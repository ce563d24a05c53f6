// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package resource owns the GL objects and platform observers of one
// rendering surface.
//
// A Manager is created with an injected gl.Context. Textures, buffers and
// programs registered with it are deleted exactly once, either early through
// the Release* methods or all together by Dispose. The manager also tracks
// whether the surface is visible and whether rendering was paused, and
// reports memory pressure without acting on it.
package resource

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/ripple/gl"
	"github.com/gogpu/ripple/internal/slogx"
	"github.com/gogpu/ripple/platform"
)

// ErrDisposed is returned when registering with a disposed Manager.
var ErrDisposed = errors.New("resource: manager disposed")

// RenderState is the render-loop gating state of a surface.
type RenderState struct {
	IsPaused       bool
	IsVisible      bool
	LastRenderTime time.Time
	FrameCount     int
}

// ShouldRender reports whether a frame may be drawn: visible and not paused.
func (s RenderState) ShouldRender() bool {
	return s.IsVisible && !s.IsPaused
}

// TextureInfo describes a registered texture for memory estimation. Zero
// fields are tolerated.
type TextureInfo struct {
	Width, Height int
	// Format defaults to RGBA8 when undefined.
	Format  gputypes.TextureFormat
	Mipmaps bool
	Label   string
}

// Config configures a Manager. Nil signals use the neutral platform
// implementations.
type Config struct {
	Visibility platform.VisibilityObserver
	Memory     platform.MemoryPressureSource

	// OnVisibilityChange runs after IsVisible changes.
	OnVisibilityChange func(visible bool)
	// OnMemoryPressure runs for every pressure notification.
	OnMemoryPressure func(platform.Pressure)

	Logger *slog.Logger
}

// Manager owns GL handles and observers for one surface.
//
// Manager is safe for concurrent use. Callbacks run with no lock held.
type Manager struct {
	mu     sync.Mutex
	glc    gl.Context
	cfg    Config
	logger *slog.Logger

	textures map[gl.Texture]TextureInfo
	buffers  map[gl.Buffer]int64
	programs map[gl.Program]struct{}

	state RenderState

	observed       platform.Element
	stopVisibility func()
	stopMemory     func()
	pressureEvents uint64
	released       uint64
	disposed       bool
}

// NewManager creates a manager for glc and subscribes to memory pressure.
func NewManager(glc gl.Context, cfg Config) *Manager {
	if cfg.Visibility == nil {
		cfg.Visibility = platform.AlwaysVisible{}
	}
	if cfg.Memory == nil {
		cfg.Memory = platform.NoPressure{}
	}
	m := &Manager{
		glc:      glc,
		cfg:      cfg,
		logger:   slogx.OrNop(cfg.Logger),
		textures: make(map[gl.Texture]TextureInfo),
		buffers:  make(map[gl.Buffer]int64),
		programs: make(map[gl.Program]struct{}),
		state:    RenderState{IsVisible: true},
	}
	m.stopMemory = cfg.Memory.OnPressure(m.handlePressure)
	return m
}

// Context returns the managed GL context.
func (m *Manager) Context() gl.Context { return m.glc }

// RegisterTexture adds t to the cleanup set. Registering the zero handle is
// a no-op.
func (m *Manager) RegisterTexture(t gl.Texture, info TextureInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return ErrDisposed
	}
	if t != 0 {
		m.textures[t] = info
	}
	return nil
}

// RegisterBuffer adds b, holding size bytes, to the cleanup set.
func (m *Manager) RegisterBuffer(b gl.Buffer, size int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return ErrDisposed
	}
	if b != 0 {
		m.buffers[b] = max(size, 0)
	}
	return nil
}

// RegisterProgram adds p to the cleanup set.
func (m *Manager) RegisterProgram(p gl.Program) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return ErrDisposed
	}
	if p != 0 {
		m.programs[p] = struct{}{}
	}
	return nil
}

// ReleaseTexture deletes a registered texture now. It reports whether t was
// registered; unregistered handles are left alone.
func (m *Manager) ReleaseTexture(t gl.Texture) bool {
	m.mu.Lock()
	_, ok := m.textures[t]
	delete(m.textures, t)
	if ok {
		m.released++
	}
	m.mu.Unlock()
	if ok {
		m.glc.DeleteTexture(t)
	}
	return ok
}

// ReleaseBuffer deletes a registered buffer now.
func (m *Manager) ReleaseBuffer(b gl.Buffer) bool {
	m.mu.Lock()
	_, ok := m.buffers[b]
	delete(m.buffers, b)
	if ok {
		m.released++
	}
	m.mu.Unlock()
	if ok {
		m.glc.DeleteBuffer(b)
	}
	return ok
}

// ReleaseProgram deletes a registered program now.
func (m *Manager) ReleaseProgram(p gl.Program) bool {
	m.mu.Lock()
	_, ok := m.programs[p]
	delete(m.programs, p)
	if ok {
		m.released++
	}
	m.mu.Unlock()
	if ok {
		m.glc.DeleteProgram(p)
	}
	return ok
}

// Dispose deletes every registered handle once, stops the observers and
// returns the number of handles deleted. Later calls return 0.
func (m *Manager) Dispose() int {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return 0
	}
	m.disposed = true
	textures, buffers, programs := m.textures, m.buffers, m.programs
	m.textures = make(map[gl.Texture]TextureInfo)
	m.buffers = make(map[gl.Buffer]int64)
	m.programs = make(map[gl.Program]struct{})
	stopVis, stopMem := m.stopVisibility, m.stopMemory
	m.stopVisibility, m.stopMemory, m.observed = nil, nil, nil
	n := len(textures) + len(buffers) + len(programs)
	m.released += uint64(n)
	m.mu.Unlock()

	if stopVis != nil {
		stopVis()
	}
	if stopMem != nil {
		stopMem()
	}
	for t := range textures {
		m.glc.DeleteTexture(t)
	}
	for b := range buffers {
		m.glc.DeleteBuffer(b)
	}
	for p := range programs {
		m.glc.DeleteProgram(p)
	}
	m.logger.Debug("resource: disposed", "handles", n)
	return n
}

// Disposed reports whether Dispose was called.
func (m *Manager) Disposed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposed
}

// ObserveElement starts visibility tracking for el, replacing any element
// observed before. Elements are compared with ==, so use pointer types.
func (m *Manager) ObserveElement(el platform.Element) {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	prev := m.stopVisibility
	m.stopVisibility, m.observed = nil, el
	m.mu.Unlock()

	if prev != nil {
		prev()
	}
	stop := m.cfg.Visibility.Observe(el, func(visible bool) {
		m.handleVisibility(el, visible)
	})

	m.mu.Lock()
	if m.observed == el && m.stopVisibility == nil && !m.disposed {
		m.stopVisibility = stop
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	// Replaced or disposed while subscribing.
	stop()
}

// UnobserveElement stops visibility tracking if el is the observed element.
// The surface is then assumed visible.
func (m *Manager) UnobserveElement(el platform.Element) {
	m.mu.Lock()
	if m.observed == nil || m.observed != el {
		m.mu.Unlock()
		return
	}
	stop := m.stopVisibility
	m.stopVisibility, m.observed = nil, nil
	m.mu.Unlock()
	if stop != nil {
		stop()
	}
	m.setVisible(true)
}

// Observed returns the observed element, or nil.
func (m *Manager) Observed() platform.Element {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.observed
}

func (m *Manager) handleVisibility(el platform.Element, visible bool) {
	m.mu.Lock()
	stale := m.observed != el
	m.mu.Unlock()
	if stale {
		return
	}
	m.setVisible(visible)
}

func (m *Manager) setVisible(visible bool) {
	m.mu.Lock()
	changed := m.state.IsVisible != visible
	m.state.IsVisible = visible
	m.mu.Unlock()
	if !changed {
		return
	}
	m.logger.Debug("resource: visibility changed", "visible", visible)
	if fn := m.cfg.OnVisibilityChange; fn != nil {
		fn(visible)
	}
}

func (m *Manager) handlePressure(p platform.Pressure) {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.pressureEvents++
	m.mu.Unlock()
	m.logger.Warn("resource: memory pressure", "used", p.UsedHeap, "limit", p.HeapLimit, "critical", p.Critical)
	if fn := m.cfg.OnMemoryPressure; fn != nil {
		fn(p)
	}
}

// PauseRendering sets IsPaused.
func (m *Manager) PauseRendering() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.IsPaused = true
}

// ResumeRendering clears IsPaused.
func (m *Manager) ResumeRendering() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.IsPaused = false
}

// IsRenderingPaused reports whether the render loop must skip the frame:
// true unless the surface is visible and not paused.
func (m *Manager) IsRenderingPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.state.ShouldRender()
}

// MarkFrame records a rendered frame.
func (m *Manager) MarkFrame(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastRenderTime = now
	m.state.FrameCount++
}

// State returns a copy of the render state.
func (m *Manager) State() RenderState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
