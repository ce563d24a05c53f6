// Package ripple renders an interactive ripple effect over an image and
// adapts it to the device it runs on.
//
// # Overview
//
// A Surface runs a small pipeline:
//
//	capability probe → tier classification → texture and shader selection
//	→ GL rendering with a CSS-only fallback
//
// and keeps adjusting while it runs: a performance monitor demotes the
// quality tier when frames are slow, and a debounced mode selector moves
// between WebGL and CSS rendering when WebGL is unavailable, fails, the
// battery is low, the surface is paused or the lowest tier is still too
// slow.
//
// # Quick Start
//
//	loop := frame.NewLoop(time.Now())
//	s, err := ripple.New(
//	    ripple.WithHost(loop),
//	    ripple.WithContext(glc),
//	    ripple.WithImage("hero.jpg", "Harbour at dusk"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	if _, err := s.Preload(ctx); err != nil {
//	    return err
//	}
//	if err := s.Mount(el); err != nil {
//	    return err
//	}
//	go loop.Run(ctx, 0)
//
// # Architecture
//
// The root package composes the sub-packages:
//   - device: capability probing and classification
//   - texture: texture bounds, resampling and the image registry
//   - shader: shader variants and the compiled program cache
//   - perf: frame timing and tier demotion
//   - resource: GL object ownership and render gating
//   - fallback: the CSS ripple engine
//   - gl, frame, platform: host boundaries
//
// # Threading
//
// Everything is cooperative and single-threaded. Callbacks are invoked by
// the frame host one at a time; a Surface must only be used from the
// goroutine driving its host.
package ripple

// Version is the library version.
const Version = "0.1.0"
