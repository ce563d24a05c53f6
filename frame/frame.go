// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package frame defines the host scheduling primitives the ripple pipeline
// runs on: a per-display-refresh frame scheduler and a timer clock.
//
// Everything in ripple is single-threaded and cooperative. Callbacks are
// invoked one at a time by the host, never concurrently. Loop provides a
// deterministic implementation for native hosts and tests; RAF (js/wasm
// builds) wraps the browser's requestAnimationFrame.
package frame

import "time"

// Handle identifies a scheduled frame callback. The zero Handle is never
// returned by RequestFrame and is safe to cancel.
type Handle uint64

// Callback receives the timestamp of the frame it runs in.
type Callback func(now time.Time)

// Scheduler invokes a callback once on the next display refresh.
type Scheduler interface {
	// RequestFrame schedules cb for the next frame. A callback that wants
	// to run every frame must request itself again.
	RequestFrame(cb Callback) Handle

	// CancelFrame cancels a pending callback. Cancelling an unknown,
	// already-run or zero handle is a no-op.
	CancelFrame(h Handle)
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// already fired or was stopped. Calling Stop twice is safe.
	Stop() bool
}

// Clock provides the current time and one-shot timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Host is implemented by schedulers that also provide a clock, such as Loop.
type Host interface {
	Scheduler
	Clock
}
