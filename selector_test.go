package ripple

import (
	"testing"
	"time"

	"github.com/gogpu/ripple/frame"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newLoop() *frame.Loop { return frame.NewLoop(t0) }

type modeChange struct{ from, to Mode }

func record(s *Selector) *[]modeChange {
	var changes []modeChange
	s.OnChange(func(from, to Mode) { changes = append(changes, modeChange{from, to}) })
	return &changes
}

func TestSelectorInitialModeIsCommitted(t *testing.T) {
	loop := newLoop()
	s := NewSelector(loop, Inputs{}, SelectorConfig{})
	changes := record(s)
	if s.Mode() != ModeCSSFallback {
		t.Errorf("Mode() = %v, want css-fallback", s.Mode())
	}
	if _, pending := s.Pending(); pending {
		t.Error("Pending() = true for the initial mode")
	}
	loop.Advance(time.Second)
	if len(*changes) != 0 {
		t.Errorf("OnChange calls = %v, want none", *changes)
	}
}

func TestSelectorDebouncesCommit(t *testing.T) {
	loop := newLoop()
	s := NewSelector(loop, Inputs{UseWebGL: true}, SelectorConfig{})
	changes := record(s)

	s.Dispatch(Event{Kind: EventBatteryLow, Value: true})
	if m, ok := s.Pending(); !ok || m != ModeCSSFallback {
		t.Fatalf("Pending() = %v, %v, want css-fallback, true", m, ok)
	}
	loop.Advance(DefaultDebounce - time.Millisecond)
	if s.Mode() != ModeWebGL {
		t.Fatalf("Mode() before debounce = %v, want webgl", s.Mode())
	}
	loop.Advance(time.Millisecond)
	if s.Mode() != ModeCSSFallback {
		t.Fatalf("Mode() after debounce = %v, want css-fallback", s.Mode())
	}
	if len(*changes) != 1 || (*changes)[0] != (modeChange{ModeWebGL, ModeCSSFallback}) {
		t.Errorf("OnChange calls = %v, want [webgl→css-fallback]", *changes)
	}
}

func TestSelectorToggleWithinWindowIsInvisible(t *testing.T) {
	loop := newLoop()
	s := NewSelector(loop, Inputs{UseWebGL: true, AtLowestTier: true}, SelectorConfig{})
	changes := record(s)

	s.Dispatch(Event{Kind: EventPerformancePoor, Value: true})
	loop.Advance(100 * time.Millisecond)
	s.Dispatch(Event{Kind: EventPerformancePoor, Value: false})
	if _, pending := s.Pending(); pending {
		t.Error("Pending() = true after reverting to the committed mode")
	}
	loop.Frames(10, 100*time.Millisecond)

	if s.Mode() != ModeWebGL {
		t.Errorf("Mode() = %v, want webgl", s.Mode())
	}
	if len(*changes) != 0 {
		t.Errorf("OnChange calls = %v, want none", *changes)
	}
	if n := loop.PendingTimers(); n != 0 {
		t.Errorf("PendingTimers() = %d, want 0", n)
	}
}

func TestSelectorKeepsFirstDeadlineForSameTarget(t *testing.T) {
	loop := newLoop()
	s := NewSelector(loop, Inputs{UseWebGL: true}, SelectorConfig{})
	changes := record(s)

	s.Dispatch(Event{Kind: EventBatteryLow, Value: true})
	loop.Advance(100 * time.Millisecond)
	s.Dispatch(Event{Kind: EventVisibilityPaused, Value: true})
	loop.Advance(50 * time.Millisecond)
	if s.Mode() != ModeCSSFallback {
		t.Errorf("Mode() = %v, want css-fallback 150ms after the first event", s.Mode())
	}
	s.Dispatch(Event{Kind: EventBatteryLow, Value: false})
	loop.Advance(time.Second)
	if len(*changes) != 1 {
		t.Errorf("OnChange calls = %v, want exactly one", *changes)
	}
}

func TestSelectorCommitIsImmediate(t *testing.T) {
	loop := newLoop()
	s := NewSelector(loop, Inputs{UseWebGL: true}, SelectorConfig{})
	changes := record(s)

	s.Dispatch(Event{Kind: EventShaderFailure, Value: true})
	if got := s.Commit(); got != ModeCSSFallback {
		t.Errorf("Commit() = %v, want css-fallback", got)
	}
	if n := loop.PendingTimers(); n != 0 {
		t.Errorf("PendingTimers() after Commit = %d, want 0", n)
	}
	s.Commit()
	loop.Advance(time.Second)
	if len(*changes) != 1 {
		t.Errorf("OnChange calls = %v, want exactly one", *changes)
	}
}

func TestSelectorCancelIsIdempotent(t *testing.T) {
	loop := newLoop()
	s := NewSelector(loop, Inputs{UseWebGL: true}, SelectorConfig{})
	changes := record(s)

	s.Cancel()
	s.Dispatch(Event{Kind: EventBatteryLow, Value: true})
	s.Cancel()
	s.Cancel()
	loop.Advance(time.Second)
	if s.Mode() != ModeWebGL || len(*changes) != 0 {
		t.Errorf("Mode() = %v with %d changes, want webgl and none", s.Mode(), len(*changes))
	}
	// The desired state is kept; the next event reschedules it.
	if s.State().Mode != ModeCSSFallback {
		t.Errorf("State().Mode = %v, want css-fallback", s.State().Mode)
	}
}

func TestSelectorOverride(t *testing.T) {
	loop := newLoop()
	s := NewSelector(loop, Inputs{UseWebGL: true, Force: ForceCSS}, SelectorConfig{})
	if s.Mode() != ModeCSSFallback || !s.Overridden() {
		t.Fatalf("Mode() = %v, Overridden() = %v, want css-fallback, true", s.Mode(), s.Overridden())
	}
	s.Dispatch(Event{Kind: EventForceMode, Force: ForceNone})
	loop.Advance(DefaultDebounce)
	if s.Mode() != ModeWebGL || s.Overridden() {
		t.Errorf("Mode() = %v, Overridden() = %v, want webgl, false", s.Mode(), s.Overridden())
	}
}

func TestSelectorNegativeDebounceCommitsImmediately(t *testing.T) {
	loop := newLoop()
	s := NewSelector(loop, Inputs{UseWebGL: true}, SelectorConfig{Debounce: -1})
	changes := record(s)
	s.Dispatch(Event{Kind: EventBatteryLow, Value: true})
	if s.Mode() != ModeCSSFallback || len(*changes) != 1 {
		t.Errorf("Mode() = %v with %d changes, want css-fallback and 1", s.Mode(), len(*changes))
	}
}

func TestSelectorClose(t *testing.T) {
	loop := newLoop()
	s := NewSelector(loop, Inputs{UseWebGL: true}, SelectorConfig{})
	changes := record(s)
	s.Dispatch(Event{Kind: EventBatteryLow, Value: true})
	s.Close()
	s.Close()
	if n := loop.PendingTimers(); n != 0 {
		t.Errorf("PendingTimers() after Close = %d, want 0", n)
	}
	s.Dispatch(Event{Kind: EventWebGLSupport, Value: false})
	s.Commit()
	loop.Advance(time.Second)
	if s.Mode() != ModeWebGL || len(*changes) != 0 {
		t.Errorf("Mode() = %v with %d changes after Close", s.Mode(), len(*changes))
	}
}
