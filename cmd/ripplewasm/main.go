// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build js && wasm

// Command ripplewasm attaches a ripple surface to every element carrying a
// data-ripple-src attribute.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o ripple.wasm ./cmd/ripplewasm
//
// Markup:
//
//	<div data-ripple-src="hero.jpg" data-ripple-alt="Harbour at dusk"
//	     data-ripple-intensity="strong" data-ripple-haptics></div>
//
// Optional attributes: data-ripple-force (webgl, css) and
// data-ripple-quality (low, medium, high).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall/js"

	"github.com/gogpu/ripple"
	"github.com/gogpu/ripple/device"
	"github.com/gogpu/ripple/fallback"
	"github.com/gogpu/ripple/frame"
	"github.com/gogpu/ripple/gl"
	"github.com/gogpu/ripple/platform"
)

func main() {
	debug := js.Global().Get("location").Get("search").String() == "?debug"
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	ripple.SetLogger(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	doc := js.Global().Get("document")
	doc.Get("head").Call("appendChild", styleSheet(doc))

	host := frame.NewRAF()
	env := device.NewBrowserEnvironment()
	signals := platform.Browser()

	// One throwaway context answers for every surface on the page.
	info, probeErr := device.BrowserGPUProbe().ProbeGPU()
	if probeErr != nil {
		ripple.Logger().Info("ripple: WebGL probe failed", "err", probeErr)
	}
	probe := device.GPUProbeFunc(func() (device.GPUInfo, error) { return info, probeErr })

	nodes := doc.Call("querySelectorAll", "[data-ripple-src]")
	for i := 0; i < nodes.Length(); i++ {
		el := nodes.Index(i)
		if err := attach(doc, el, host, env, probe, signals); err != nil {
			ripple.Logger().Error("ripple: attach failed", "err", err)
			el.Call("setAttribute", "data-ripple-error", err.Error())
		}
	}
	select {}
}

func styleSheet(doc js.Value) js.Value {
	style := doc.Call("createElement", "style")
	style.Set("textContent", fallback.Keyframes()+
		"[data-ripple-src]>canvas{position:absolute;inset:0;width:100%;height:100%;display:block}"+
		"[data-ripple-src]>div{position:absolute;inset:0;pointer-events:none}")
	return style
}

func attr(el js.Value, name string) string {
	v := el.Call("getAttribute", name)
	if v.IsNull() {
		return ""
	}
	return v.String()
}

func config(el js.Value) (ripple.Config, error) {
	cfg := ripple.DefaultConfig()
	var err error
	if cfg.ForceMode, err = ripple.ParseForceMode(attr(el, "data-ripple-force")); err != nil {
		return cfg, err
	}
	if cfg.Quality, err = ripple.ParseQuality(attr(el, "data-ripple-quality")); err != nil {
		return cfg, err
	}
	if cfg.RippleIntensity, err = fallback.ParseIntensity(attr(el, "data-ripple-intensity")); err != nil {
		return cfg, err
	}
	cfg.EnableHapticFeedback = el.Call("hasAttribute", "data-ripple-haptics").Bool()
	return cfg, nil
}

// view owns the DOM nodes of one surface.
type view struct {
	s       *ripple.Surface
	el      js.Value
	canvas  js.Value
	layer   js.Value
	funcs   []js.Func
	stopCSS func()
}

func attach(doc, el js.Value, host frame.Host, env device.Environment, probe device.GPUProbe, signals platform.Signals) error {
	cfg, err := config(el)
	if err != nil {
		return err
	}
	v := &view{el: el}
	v.canvas = doc.Call("createElement", "canvas")
	el.Call("appendChild", v.canvas)
	v.layer = doc.Call("createElement", "div")
	v.layer.Set("ariaHidden", "true")
	el.Call("appendChild", v.layer)

	var glc gl.Context
	if cfg.ForceMode != ripple.ForceCSS {
		if w, err := gl.NewWebGL(v.canvas); err == nil {
			glc = w
		} else {
			ripple.Logger().Info("ripple: WebGL unavailable", "err", err)
		}
	}

	src := attr(el, "data-ripple-src")
	opts := []ripple.Option{
		ripple.WithConfig(cfg),
		ripple.WithHost(host),
		ripple.WithContext(glc),
		ripple.WithEnvironment(env),
		ripple.WithSignals(signals),
		ripple.WithImage(src, attr(el, "data-ripple-alt")),
	}
	if glc != nil {
		opts = append(opts, ripple.WithGPUProbe(probe))
	}
	s, err := ripple.New(opts...)
	if err != nil {
		return err
	}
	v.s = s
	s.Selector().OnChange(func(_, to ripple.Mode) { v.present(to) })

	go func() {
		if _, err := s.Preload(context.Background()); err != nil {
			ripple.Logger().Warn("ripple: preload failed", "src", src, "err", err)
		}
	}()

	v.resizeCanvas()
	if err := s.Mount(platform.NewDOMElement(el)); err != nil {
		s.Close()
		return err
	}
	v.present(s.Mode())
	v.listen()
	return nil
}

// present shows the canvas for WebGL, or the image and ripple layer for the
// CSS fallback.
func (v *view) present(mode ripple.Mode) {
	if v.stopCSS != nil {
		v.stopCSS()
		v.stopCSS = nil
	}
	style := v.el.Get("style")
	if mode == ripple.ModeWebGL {
		v.canvas.Get("style").Set("display", "block")
		v.layer.Set("innerHTML", "")
		style.Set("backgroundImage", "")
		return
	}
	v.canvas.Get("style").Set("display", "none")
	eng := v.s.Fallback()
	if eng == nil {
		return
	}
	v.el.Call("setAttribute", "style", eng.ContainerStyle())
	v.el.Call("setAttribute", "role", "img")
	v.el.Call("setAttribute", "aria-label", eng.Alt())

	active := true
	v.stopCSS = func() { active = false }
	eng.OnChange(func(rs []fallback.Ripple) {
		if !active {
			return
		}
		var b strings.Builder
		for _, r := range rs {
			fmt.Fprintf(&b, `<span style="%s"></span>`, eng.Style(r))
		}
		v.layer.Set("innerHTML", b.String())
	})
}

func (v *view) resizeCanvas() (int, int) {
	w, h := platform.NewDOMElement(v.el).Size()
	dpr := js.Global().Get("devicePixelRatio").Float()
	scale := v.s.TextureScale().BaseScale
	v.canvas.Set("width", int(float64(w)*dpr*scale))
	v.canvas.Set("height", int(float64(h)*dpr*scale))
	return w, h
}

func (v *view) on(target js.Value, event string, fn func(js.Value)) {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		fn(args[0])
		return nil
	})
	v.funcs = append(v.funcs, f)
	target.Call("addEventListener", event, f)
}

func (v *view) listen() {
	v.on(v.el, "pointerdown", func(e js.Value) {
		v.s.PointerDown(e.Get("offsetX").Float(), e.Get("offsetY").Float())
	})
	v.on(v.el, "pointermove", func(e js.Value) {
		v.s.PointerMove(e.Get("offsetX").Float(), e.Get("offsetY").Float())
	})
	v.on(js.Global(), "resize", func(js.Value) {
		v.s.Resize(v.resizeCanvas())
	})
	doc := js.Global().Get("document")
	v.on(doc, "visibilitychange", func(js.Value) {
		v.s.SetPaused(doc.Get("hidden").Bool())
	})
	v.on(js.Global(), "pagehide", func(js.Value) {
		v.s.Close()
		for _, f := range v.funcs {
			f.Release()
		}
	})
}
