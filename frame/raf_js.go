// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build js && wasm

package frame

import (
	"sync"
	"syscall/js"
	"time"
)

// RAF is a browser Host backed by requestAnimationFrame and setTimeout.
// The browser event loop already serialises every callback.
type RAF struct {
	mu      sync.Mutex
	window  js.Value
	perf    js.Value
	next    uint64
	pending map[Handle]rafEntry
}

type rafEntry struct {
	id int
	fn js.Func
}

// NewRAF binds to the global window object.
func NewRAF() *RAF {
	w := js.Global()
	return &RAF{
		window:  w,
		perf:    w.Get("performance"),
		pending: make(map[Handle]rafEntry),
	}
}

// Now returns wall-clock time derived from performance.timeOrigin + now().
func (r *RAF) Now() time.Time {
	if r.perf.IsUndefined() {
		return time.Now()
	}
	ms := r.perf.Get("timeOrigin").Float() + r.perf.Call("now").Float()
	return time.Unix(0, int64(ms*float64(time.Millisecond)))
}

// RequestFrame wraps window.requestAnimationFrame.
func (r *RAF) RequestFrame(cb Callback) Handle {
	r.mu.Lock()
	r.next++
	h := Handle(r.next)
	r.mu.Unlock()

	fn := js.FuncOf(func(js.Value, []js.Value) any {
		r.release(h)
		cb(r.Now())
		return nil
	})
	id := r.window.Call("requestAnimationFrame", fn).Int()

	r.mu.Lock()
	r.pending[h] = rafEntry{id: id, fn: fn}
	r.mu.Unlock()
	return h
}

// CancelFrame wraps window.cancelAnimationFrame.
func (r *RAF) CancelFrame(h Handle) {
	r.mu.Lock()
	e, ok := r.pending[h]
	delete(r.pending, h)
	r.mu.Unlock()
	if !ok {
		return
	}
	r.window.Call("cancelAnimationFrame", e.id)
	e.fn.Release()
}

func (r *RAF) release(h Handle) {
	r.mu.Lock()
	e, ok := r.pending[h]
	delete(r.pending, h)
	r.mu.Unlock()
	if ok {
		e.fn.Release()
	}
}

// AfterFunc wraps window.setTimeout.
func (r *RAF) AfterFunc(d time.Duration, f func()) Timer {
	t := &rafTimer{window: r.window}
	t.fn = js.FuncOf(func(js.Value, []js.Value) any {
		if t.fire() {
			f()
		}
		return nil
	})
	t.id = r.window.Call("setTimeout", t.fn, d.Milliseconds()).Int()
	return t
}

type rafTimer struct {
	mu     sync.Mutex
	window js.Value
	id     int
	fn     js.Func
	done   bool
}

func (t *rafTimer) fire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.fn.Release()
	return true
}

func (t *rafTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.window.Call("clearTimeout", t.id)
	t.fn.Release()
	return true
}
