// Command ripplebench replays a frame-time trace through a headless ripple
// surface and reports how the adaptive pipeline reacts: tier demotions,
// mode switches and the frame rate the performance monitor observed.
//
// Usage:
//
//	ripplebench -frames 600 -slow-from 120 -slow-fps 20 -report bench.html
//	ripplebench -trace frames.txt -renderer "Intel(R) UHD Graphics 620"
//	ripplebench -gpu -metrics-addr :9090
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gogpu/ripple"
	"github.com/gogpu/ripple/device"
	"github.com/gogpu/ripple/fallback"
	"github.com/gogpu/ripple/frame"
	"github.com/gogpu/ripple/gl"
	"github.com/gogpu/ripple/perf"
	"github.com/gogpu/ripple/platform"
)

const defaultUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type flags struct {
	trace     string
	frames    int
	fps       float64
	slowFrom  int
	slowFPS   float64
	batteryAt int

	ua         string
	dpr        float64
	screenW    int
	screenH    int
	width      int
	height     int
	renderer   string
	maxTexture int
	useGPU     bool

	force     string
	quality   string
	intensity string

	report      string
	metricsAddr string
	verbose     bool
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.trace, "trace", "", "frame-time trace, one duration in milliseconds per line")
	flag.IntVar(&f.frames, "frames", 600, "synthetic trace length when -trace is empty")
	flag.Float64Var(&f.fps, "fps", 60, "synthetic frame rate")
	flag.IntVar(&f.slowFrom, "slow-from", -1, "frame index where the synthetic trace slows down, -1 for never")
	flag.Float64Var(&f.slowFPS, "slow-fps", 20, "synthetic frame rate after -slow-from")
	flag.IntVar(&f.batteryAt, "battery-low-at", -1, "frame index where the battery runs low, -1 for never")

	flag.StringVar(&f.ua, "ua", defaultUA, "user agent")
	flag.Float64Var(&f.dpr, "dpr", 1, "device pixel ratio")
	flag.IntVar(&f.screenW, "screen-width", 1920, "screen width")
	flag.IntVar(&f.screenH, "screen-height", 1080, "screen height")
	flag.IntVar(&f.width, "width", 1280, "element width")
	flag.IntVar(&f.height, "height", 720, "element height")
	flag.StringVar(&f.renderer, "renderer", "NVIDIA GeForce RTX 3080", "GL renderer string of the simulated context")
	flag.IntVar(&f.maxTexture, "max-texture", 16384, "MAX_TEXTURE_SIZE of the simulated context")
	flag.BoolVar(&f.useGPU, "gpu", false, "probe the real GPU through wgpu instead of the simulated context")

	flag.StringVar(&f.force, "force", "", "force a mode: webgl or css")
	flag.StringVar(&f.quality, "quality", "", "quality override: low, medium or high")
	flag.StringVar(&f.intensity, "intensity", "normal", "ripple intensity: subtle, normal or strong")

	flag.StringVar(&f.report, "report", "", "write an HTML report to this file")
	flag.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address after the replay")
	flag.BoolVar(&f.verbose, "v", false, "debug logging")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()

	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ripple.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f, logger); err != nil {
		log.Fatalf("ripplebench: %v", err)
	}
}

func run(ctx context.Context, f flags, logger *slog.Logger) error {
	cfg, err := config(f)
	if err != nil {
		return err
	}

	var trace []time.Duration
	if f.trace != "" {
		if trace, err = loadTrace(f.trace); err != nil {
			return err
		}
	} else {
		trace = syntheticTrace(f.frames, f.fps, f.slowFrom, f.slowFPS)
	}
	if len(trace) == 0 {
		return errors.New("empty trace")
	}

	start := time.Now()
	loop := frame.NewLoop(start)
	signals := platform.NewManual()
	glc := gl.NewNullContext(gl.NullConfig{MaxTextureSize: f.maxTexture, Renderer: f.renderer})

	opts := []ripple.Option{
		ripple.WithConfig(cfg),
		ripple.WithHost(loop),
		ripple.WithContext(glc),
		ripple.WithSignals(signals.Signals()),
		ripple.WithEnvironment(device.StaticEnvironment{
			UA:     f.ua,
			DPR:    f.dpr,
			Screen: device.Screen{Width: f.screenW, Height: f.screenH},
		}),
	}
	if f.useGPU {
		opts = append(opts, ripple.WithGPUProbe(device.WGPUProbe{}))
	}
	s, err := ripple.New(opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	c := s.Classification()
	logger.Info("classified",
		"type", c.Type,
		"tier", c.Tier,
		"webgl", c.Settings.UseWebGL,
		"renderer", s.Capabilities().Renderer,
		"texture", fmt.Sprintf("%dx%d", s.TextureScale().MaxWidth, s.TextureScale().MaxHeight))

	if err := s.Mount(element{f.width, f.height}); err != nil {
		return err
	}

	samples := make([]sample, 0, len(trace))
	for i, dt := range trace {
		if i == f.batteryAt {
			signals.SetBattery(platform.BatteryStatus{Level: 0.1})
		}
		loop.Advance(dt)
		m := s.Metrics()
		samples = append(samples, sample{
			At:         loop.Now().Sub(start),
			FrameTime:  dt,
			CurrentFPS: m.CurrentFPS,
			AverageFPS: m.AverageFPS,
			Tier:       s.Classification().Tier,
			Mode:       s.Mode(),
		})
	}

	st := s.Stats()
	logger.Info("replay finished",
		"frames", len(trace),
		"rendered", st.Frames,
		"skipped", st.Skipped,
		"drops", st.Metrics.FrameDrops,
		"avgFPS", fmt.Sprintf("%.1f", st.Metrics.AverageFPS),
		"tier", st.Tier,
		"mode", st.Mode,
		"resources", st.Resources.String(),
		"programs", st.Programs.Programs)

	if f.report != "" {
		if err := writeReport(f.report, s, samples); err != nil {
			return err
		}
		logger.Info("report written", "path", f.report)
	}
	if f.metricsAddr != "" {
		return serveMetrics(ctx, f.metricsAddr, s, logger)
	}
	return nil
}

func config(f flags) (ripple.Config, error) {
	cfg := ripple.DefaultConfig()
	var err error
	if cfg.ForceMode, err = ripple.ParseForceMode(f.force); err != nil {
		return cfg, err
	}
	if cfg.Quality, err = ripple.ParseQuality(f.quality); err != nil {
		return cfg, err
	}
	if cfg.RippleIntensity, err = fallback.ParseIntensity(f.intensity); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// element is a fixed-size host element.
type element struct{ w, h int }

func (e element) Size() (int, int) { return e.w, e.h }

// serveMetrics exposes the surface's monitor until ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, s *ripple.Surface, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(perf.NewCollector(s.Monitor(), prometheus.Labels{"surface": s.ID().String()}))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("serving metrics", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdown)
}
