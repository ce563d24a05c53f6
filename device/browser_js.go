// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build js && wasm

package device

import (
	"syscall/js"

	"github.com/gogpu/ripple/gl"
)

// BrowserEnvironment reads device signals from window and navigator.
type BrowserEnvironment struct {
	window js.Value
}

// NewBrowserEnvironment binds to the global window object.
func NewBrowserEnvironment() BrowserEnvironment {
	return BrowserEnvironment{window: js.Global()}
}

// BrowserGPUProbe probes WebGL on a detached canvas whose context is
// released as soon as its limits are read.
func BrowserGPUProbe() GPUProbe {
	return GLProbe{Factory: gl.ProbeFactory()}
}

func (e BrowserEnvironment) navigator() js.Value { return e.window.Get("navigator") }

func (e BrowserEnvironment) UserAgent() string {
	if ua := e.navigator().Get("userAgent"); ua.Type() == js.TypeString {
		return ua.String()
	}
	return ""
}

func (e BrowserEnvironment) DevicePixelRatio() float64 {
	if v := e.window.Get("devicePixelRatio"); v.Type() == js.TypeNumber {
		return v.Float()
	}
	return 1
}

func (e BrowserEnvironment) ScreenSize() Screen {
	return Screen{
		Width:  numberOr(e.window.Get("innerWidth"), 0),
		Height: numberOr(e.window.Get("innerHeight"), 0),
	}
}

func (e BrowserEnvironment) CPUCores() int {
	return numberOr(e.navigator().Get("hardwareConcurrency"), 0)
}

func (e BrowserEnvironment) TouchPoints() int {
	return numberOr(e.navigator().Get("maxTouchPoints"), 0)
}

// Memory reads performance.memory, which only Chromium exposes.
func (e BrowserEnvironment) Memory() (MemoryInfo, bool) {
	mem := e.window.Get("performance").Get("memory")
	if mem.IsUndefined() || mem.IsNull() {
		return MemoryInfo{}, false
	}
	return MemoryInfo{
		TotalHeap: int64(mem.Get("totalJSHeapSize").Float()),
		UsedHeap:  int64(mem.Get("usedJSHeapSize").Float()),
		HeapLimit: int64(mem.Get("jsHeapSizeLimit").Float()),
	}, true
}

func numberOr(v js.Value, def int) int {
	if v.Type() != js.TypeNumber {
		return def
	}
	return v.Int()
}
