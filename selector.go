package ripple

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/ripple/frame"
	"github.com/gogpu/ripple/internal/slogx"
)

// DefaultDebounce is the time a new mode must stay desired before it is
// committed.
const DefaultDebounce = 150 * time.Millisecond

// SelectorConfig tunes a Selector.
type SelectorConfig struct {
	// Debounce delays commits. Zero selects DefaultDebounce; a negative
	// value commits immediately.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Selector applies input events to the mode state machine and commits mode
// changes once they have been stable for the debounce delay.
//
// A change that reverts to the committed mode before the delay elapses is
// dropped without any visible transition. OnChange callbacks only run for
// real commits and run with no lock held.
type Selector struct {
	mu     sync.Mutex
	clock  frame.Clock
	delay  time.Duration
	logger *slog.Logger

	state      State
	committed  Mode
	overridden bool

	pending     frame.Timer
	pendingMode Mode
	gen         uint64
	closed      bool

	onChange []func(from, to Mode)
}

// NewSelector creates a selector whose committed mode is decided from in
// right away.
func NewSelector(clock frame.Clock, in Inputs, cfg SelectorConfig) *Selector {
	delay := cfg.Debounce
	if delay == 0 {
		delay = DefaultDebounce
	}
	st := NewState(in)
	return &Selector{
		clock:      clock,
		delay:      delay,
		logger:     slogx.OrNop(cfg.Logger),
		state:      st,
		committed:  st.Mode,
		overridden: st.Overridden,
	}
}

// OnChange registers fn to run after each committed mode change.
func (s *Selector) OnChange(fn func(from, to Mode)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Mode returns the committed mode.
func (s *Selector) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

// Overridden reports whether the committed mode came from a force override.
func (s *Selector) Overridden() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overridden
}

// State returns the desired state, which may not be committed yet.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the mode waiting for the debounce delay, if any.
func (s *Selector) Pending() (Mode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingMode, s.pending != nil
}

// Dispatch applies e and schedules the resulting mode.
func (s *Selector) Dispatch(e Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state = Next(s.state, e)
	s.logger.Debug("ripple: selector event", "event", e.Kind, "value", e.Value, "desired", s.state.Mode)
	if s.delay < 0 {
		from, to, fns := s.commitLocked()
		s.mu.Unlock()
		notifyMode(fns, from, to)
		return
	}
	s.scheduleLocked()
	s.mu.Unlock()
}

func (s *Selector) scheduleLocked() {
	target := s.state.Mode
	if target == s.committed {
		if s.pending != nil {
			s.logger.Debug("ripple: mode switch cancelled", "mode", s.pendingMode)
		}
		s.cancelLocked()
		s.overridden = s.state.Overridden
		return
	}
	if s.pending != nil && s.pendingMode == target {
		return
	}
	s.cancelLocked()
	s.gen++
	gen := s.gen
	s.pendingMode = target
	s.pending = s.clock.AfterFunc(s.delay, func() { s.fire(gen) })
}

func (s *Selector) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen || s.pending == nil {
		s.mu.Unlock()
		return
	}
	from, to, fns := s.commitLocked()
	s.mu.Unlock()
	notifyMode(fns, from, to)
}

// Commit cancels any pending delay and commits the desired mode now. It
// returns the committed mode.
func (s *Selector) Commit() Mode {
	s.mu.Lock()
	if s.closed {
		m := s.committed
		s.mu.Unlock()
		return m
	}
	from, to, fns := s.commitLocked()
	s.mu.Unlock()
	notifyMode(fns, from, to)
	return to
}

// commitLocked returns the callbacks to notify, nil when the mode did not
// change.
func (s *Selector) commitLocked() (from, to Mode, fns []func(from, to Mode)) {
	s.cancelLocked()
	from, to = s.committed, s.state.Mode
	s.overridden = s.state.Overridden
	if from == to {
		return from, to, nil
	}
	s.committed = to
	s.logger.Info("ripple: mode committed", "from", from, "to", to, "overridden", s.overridden)
	return from, to, s.onChange
}

// Cancel drops the pending mode switch. Calling it with nothing pending, or
// twice, is a no-op.
func (s *Selector) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
}

func (s *Selector) cancelLocked() {
	if s.pending == nil {
		return
	}
	s.pending.Stop()
	s.pending = nil
	s.gen++
}

// Close cancels the pending switch and ignores later events.
func (s *Selector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.closed = true
	s.onChange = nil
}

func notifyMode(fns []func(from, to Mode), from, to Mode) {
	for _, fn := range fns {
		fn(from, to)
	}
}
