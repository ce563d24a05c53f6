// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build js && wasm

package platform

import (
	"sync"
	"syscall/js"
	"time"

	"github.com/gogpu/gpucontext"
)

// DOMElement adapts a DOM element to Element. js.Value is not comparable,
// so always pass a *DOMElement.
type DOMElement struct {
	js.Value
}

// NewDOMElement wraps v.
func NewDOMElement(v js.Value) *DOMElement { return &DOMElement{Value: v} }

// Size returns the element's bounding box size.
func (e *DOMElement) Size() (int, int) {
	r := e.Call("getBoundingClientRect")
	return r.Get("width").Int(), r.Get("height").Int()
}

// Browser returns the signals the current browser supports. Missing APIs
// fall back to the neutral defaults.
func Browser() Signals {
	w := js.Global()
	s := Signals{Preferences: &browserPrefs{window: w}}
	if !w.Get("IntersectionObserver").IsUndefined() {
		s.Visibility = intersection{window: w}
	}
	if mem := w.Get("performance").Get("memory"); !mem.IsUndefined() {
		s.Memory = &heapPoller{window: w, interval: 5 * time.Second, ratio: 0.9}
	}
	nav := w.Get("navigator")
	if !nav.Get("getBattery").IsUndefined() {
		s.Battery = newBrowserBattery(nav)
	}
	if !nav.Get("vibrate").IsUndefined() {
		s.Haptics = vibrator{nav: nav}
	}
	return s.WithDefaults()
}

type intersection struct {
	window js.Value
}

func (o intersection) Observe(el Element, onChange func(bool)) func() {
	dom, ok := el.(*DOMElement)
	if !ok {
		onChange(true)
		return func() {}
	}
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		entries := args[0]
		for i := 0; i < entries.Length(); i++ {
			onChange(entries.Index(i).Get("isIntersecting").Bool())
		}
		return nil
	})
	obs := o.window.Get("IntersectionObserver").New(cb, map[string]any{"threshold": 0.1})
	obs.Call("observe", dom.Value)

	var once sync.Once
	return func() {
		once.Do(func() {
			obs.Call("disconnect")
			cb.Release()
		})
	}
}

// heapPoller reports pressure when the JS heap approaches its limit.
// Chromium exposes performance.memory; other engines have no signal.
type heapPoller struct {
	window   js.Value
	interval time.Duration
	ratio    float64
}

func (h *heapPoller) OnPressure(fn func(Pressure)) func() {
	cb := js.FuncOf(func(js.Value, []js.Value) any {
		mem := h.window.Get("performance").Get("memory")
		used := int64(mem.Get("usedJSHeapSize").Float())
		limit := int64(mem.Get("jsHeapSizeLimit").Float())
		if limit > 0 && float64(used) >= h.ratio*float64(limit) {
			fn(Pressure{UsedHeap: used, HeapLimit: limit, Critical: used >= limit})
		}
		return nil
	})
	id := h.window.Call("setInterval", cb, h.interval.Milliseconds())

	var once sync.Once
	return func() {
		once.Do(func() {
			h.window.Call("clearInterval", id)
			cb.Release()
		})
	}
}

type browserBattery struct {
	mu     sync.Mutex
	status BatteryStatus
	subs   map[int]func(BatteryStatus)
	next   int
}

func newBrowserBattery(nav js.Value) *browserBattery {
	b := &browserBattery{
		status: BatteryStatus{Level: 1, Charging: true},
		subs:   make(map[int]func(BatteryStatus)),
	}
	var then js.Func
	then = js.FuncOf(func(_ js.Value, args []js.Value) any {
		defer then.Release()
		mgr := args[0]
		update := js.FuncOf(func(js.Value, []js.Value) any {
			b.set(BatteryStatus{Level: mgr.Get("level").Float(), Charging: mgr.Get("charging").Bool()})
			return nil
		})
		mgr.Call("addEventListener", "levelchange", update)
		mgr.Call("addEventListener", "chargingchange", update)
		update.Invoke()
		return nil
	})
	nav.Call("getBattery").Call("then", then)
	return b
}

func (b *browserBattery) set(s BatteryStatus) {
	b.mu.Lock()
	b.status = s
	subs := snapshot(b.subs)
	b.mu.Unlock()
	for _, fn := range subs {
		fn(s)
	}
}

func (b *browserBattery) Status() BatteryStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *browserBattery) OnChange(fn func(BatteryStatus)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

type vibrator struct {
	nav js.Value
}

func (v vibrator) Vibrate(d time.Duration) bool {
	return v.nav.Call("vibrate", d.Milliseconds()).Truthy()
}

// browserPrefs reads accessibility preferences through matchMedia.
type browserPrefs struct {
	gpucontext.NullPlatformProvider
	window js.Value
}

func (p *browserPrefs) media(query string) bool {
	mm := p.window.Get("matchMedia")
	if mm.IsUndefined() {
		return false
	}
	return p.window.Call("matchMedia", query).Get("matches").Bool()
}

func (p *browserPrefs) ReduceMotion() bool {
	return p.media("(prefers-reduced-motion: reduce)")
}

func (p *browserPrefs) DarkMode() bool {
	return p.media("(prefers-color-scheme: dark)")
}

func (p *browserPrefs) HighContrast() bool {
	return p.media("(prefers-contrast: more)")
}
