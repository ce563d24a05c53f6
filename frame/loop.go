// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package frame

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultInterval is the frame interval Run uses when none is given (60 Hz).
const DefaultInterval = time.Second / 60

// Loop is a single-threaded Host driven by explicit Tick calls.
//
// On every Tick, due timers fire first (in due order), then every frame
// callback that was requested before the Tick runs in request order.
// Callbacks requested while a Tick is running execute on the next Tick.
// Callbacks always run with no internal lock held, so they may freely call
// back into the Loop.
//
// Loop is safe for use from multiple goroutines, but callbacks themselves
// are only ever invoked from the goroutine calling Tick.
type Loop struct {
	mu      sync.Mutex
	now     time.Time
	nextID  uint64
	frames  []frameEntry
	timers  []*loopTimer
	running bool
}

type frameEntry struct {
	id Handle
	cb Callback
}

type loopTimer struct {
	loop  *Loop
	seq   uint64
	due   time.Time
	fn    func()
	state int // 0 pending, 1 fired, 2 stopped
}

// NewLoop creates a Loop whose clock starts at start.
func NewLoop(start time.Time) *Loop {
	return &Loop{now: start}
}

// Now returns the loop's current time: the timestamp of the latest Tick, or
// the due time of the timer currently firing.
func (l *Loop) Now() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.now
}

// RequestFrame schedules cb for the next Tick.
func (l *Loop) RequestFrame(cb Callback) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	h := Handle(l.nextID)
	l.frames = append(l.frames, frameEntry{id: h, cb: cb})
	return h
}

// CancelFrame removes a pending frame callback.
func (l *Loop) CancelFrame(h Handle) {
	if h == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, f := range l.frames {
		if f.id == h {
			l.frames = append(l.frames[:i], l.frames[i+1:]...)
			return
		}
	}
}

// AfterFunc schedules f to run on the first Tick at or after Now()+d.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	l.mu.Lock()
	defer l.mu.Unlock()
	if d < 0 {
		d = 0
	}
	l.nextID++
	t := &loopTimer{loop: l, seq: l.nextID, due: l.now.Add(d), fn: f}
	l.timers = append(l.timers, t)
	return t
}

// Stop cancels the timer.
func (t *loopTimer) Stop() bool {
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	if t.state != 0 {
		return false
	}
	t.state = 2
	t.loop.removeTimerLocked(t)
	return true
}

// Tick advances the clock to now, fires due timers and runs one frame.
// A now earlier than the current time is treated as the current time.
func (l *Loop) Tick(now time.Time) {
	l.mu.Lock()
	if now.Before(l.now) {
		now = l.now
	}
	l.mu.Unlock()

	for {
		t := l.popDueTimer(now)
		if t == nil {
			break
		}
		t.fn()
	}

	l.mu.Lock()
	l.now = now
	batch := l.frames
	l.frames = nil
	l.mu.Unlock()

	for _, f := range batch {
		f.cb(now)
	}
}

// Advance ticks once at Now()+d.
func (l *Loop) Advance(d time.Duration) {
	l.Tick(l.Now().Add(d))
}

// Frames runs n ticks spaced dt apart.
func (l *Loop) Frames(n int, dt time.Duration) {
	for i := 0; i < n; i++ {
		l.Advance(dt)
	}
}

// PendingFrames returns the number of frame callbacks waiting for a Tick.
func (l *Loop) PendingFrames() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.frames)
}

// PendingTimers returns the number of timers that have not fired or been stopped.
func (l *Loop) PendingTimers() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}

// Run ticks the loop in real time every interval until ctx is done.
// All callbacks run on the calling goroutine.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return ErrLoopRunning
	}
	l.running = true
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.Tick(now)
		}
	}
}

// popDueTimer removes and returns the earliest timer due at or before now,
// advancing the clock to its due time.
func (l *Loop) popDueTimer(now time.Time) *loopTimer {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.timers) == 0 {
		return nil
	}
	sort.SliceStable(l.timers, func(i, j int) bool {
		if l.timers[i].due.Equal(l.timers[j].due) {
			return l.timers[i].seq < l.timers[j].seq
		}
		return l.timers[i].due.Before(l.timers[j].due)
	})
	t := l.timers[0]
	if t.due.After(now) {
		return nil
	}
	l.timers = l.timers[1:]
	t.state = 1
	if t.due.After(l.now) {
		l.now = t.due
	}
	return t
}

func (l *Loop) removeTimerLocked(t *loopTimer) {
	for i, x := range l.timers {
		if x == t {
			l.timers = append(l.timers[:i], l.timers[i+1:]...)
			return
		}
	}
}
