// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package platform declares the optional host signals a ripple surface
// reacts to: element visibility, memory pressure, battery state, haptic
// feedback and accessibility preferences.
//
// Every signal is optional. Signals.WithDefaults fills the missing ones with
// implementations that report a visible element, no memory pressure, a
// healthy battery, no haptics and motion allowed.
package platform

import (
	"time"

	"github.com/gogpu/gpucontext"
)

// Element is a mount point for a rendering surface.
type Element interface {
	// Size returns the element's layout size in CSS pixels.
	Size() (width, height int)
}

// VisibilityObserver reports when an element enters or leaves the viewport.
type VisibilityObserver interface {
	// Observe starts watching el. The callback may fire immediately with the
	// current state. The returned stop function is idempotent.
	Observe(el Element, onChange func(visible bool)) (stop func())
}

// Pressure describes a low-memory notification.
type Pressure struct {
	// UsedHeap and HeapLimit are in bytes, 0 when unknown.
	UsedHeap  int64
	HeapLimit int64
	// Critical is set when the host considers the situation severe.
	Critical bool
}

// MemoryPressureSource delivers low-memory notifications.
type MemoryPressureSource interface {
	OnPressure(fn func(Pressure)) (stop func())
}

// BatteryStatus is a battery reading.
type BatteryStatus struct {
	// Level is the charge in [0,1].
	Level    float64
	Charging bool
}

// DefaultLowBattery is the charge level below which a discharging battery is
// considered low.
const DefaultLowBattery = 0.2

// Low reports whether the battery is discharging below threshold.
func (s BatteryStatus) Low(threshold float64) bool {
	return !s.Charging && s.Level < threshold
}

// Battery reports battery state.
type Battery interface {
	Status() BatteryStatus
	OnChange(fn func(BatteryStatus)) (stop func())
}

// Haptics triggers device vibration.
type Haptics interface {
	// Vibrate reports whether the request was accepted.
	Vibrate(d time.Duration) bool
}

// Signals bundles the platform capabilities available to a surface.
type Signals struct {
	Visibility VisibilityObserver
	Memory     MemoryPressureSource
	Battery    Battery
	Haptics    Haptics
	// Preferences supplies accessibility settings such as ReduceMotion.
	Preferences gpucontext.PlatformProvider
}

// WithDefaults returns a copy of s with every missing signal replaced by its
// neutral implementation.
func (s Signals) WithDefaults() Signals {
	if s.Visibility == nil {
		s.Visibility = AlwaysVisible{}
	}
	if s.Memory == nil {
		s.Memory = NoPressure{}
	}
	if s.Battery == nil {
		s.Battery = MainsPower{}
	}
	if s.Haptics == nil {
		s.Haptics = NoHaptics{}
	}
	if s.Preferences == nil {
		s.Preferences = gpucontext.NullPlatformProvider{}
	}
	return s
}

// ReduceMotion reports the reduced-motion preference, false when unknown.
func (s Signals) ReduceMotion() bool {
	return s.Preferences != nil && s.Preferences.ReduceMotion()
}

// AlwaysVisible reports every element as visible.
type AlwaysVisible struct{}

// Observe calls onChange(true) once.
func (AlwaysVisible) Observe(_ Element, onChange func(bool)) func() {
	onChange(true)
	return func() {}
}

// NoPressure never reports memory pressure.
type NoPressure struct{}

// OnPressure never calls fn.
func (NoPressure) OnPressure(func(Pressure)) func() { return func() {} }

// MainsPower reports a full, charging battery.
type MainsPower struct{}

// Status returns a full, charging battery.
func (MainsPower) Status() BatteryStatus { return BatteryStatus{Level: 1, Charging: true} }

// OnChange never calls fn.
func (MainsPower) OnChange(func(BatteryStatus)) func() { return func() {} }

// NoHaptics rejects every vibration request.
type NoHaptics struct{}

// Vibrate returns false.
func (NoHaptics) Vibrate(time.Duration) bool { return false }
