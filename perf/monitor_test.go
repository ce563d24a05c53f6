package perf

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/ripple/device"
	"github.com/gogpu/ripple/frame"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestConfigDefaults(t *testing.T) {
	m := New(frame.NewLoop(t0), Config{})
	cfg := m.Config()
	if cfg.MinFPS != 30 || cfg.DropTolerance != 1.2 || cfg.Window != 60 || cfg.PoorWindow != 5 || cfg.DemotionThreshold != 45 {
		t.Errorf("Config() = %+v, want defaults", cfg)
	}
	if got, want := cfg.Budget(), time.Second/30; got != want {
		t.Errorf("Budget() = %v, want %v", got, want)
	}
	if m.State() != StateIdle {
		t.Errorf("State() = %v, want idle", m.State())
	}
}

func TestPerformanceDropFiresOncePerTransition(t *testing.T) {
	loop := frame.NewLoop(t0)
	m := New(loop, Config{})
	drops, recovers := 0, 0
	m.OnPerformanceDrop(func(Metrics) { drops++ })
	m.OnRecover(func(Metrics) { recovers++ })
	m.Start()

	// The first frame only sets the reference time.
	loop.Frames(11, 50*time.Millisecond)
	if !m.IsPerformancePoor() {
		t.Fatal("IsPerformancePoor() = false after 20 fps frames")
	}
	if drops != 1 {
		t.Errorf("OnPerformanceDrop fired %d times, want 1", drops)
	}
	mt := m.Metrics()
	if mt.FrameCount != 10 || mt.FrameDrops != 10 {
		t.Errorf("FrameCount, FrameDrops = %d, %d, want 10, 10", mt.FrameCount, mt.FrameDrops)
	}
	if mt.CurrentFPS != 20 || mt.AverageFPS != 20 {
		t.Errorf("CurrentFPS, AverageFPS = %v, %v, want 20, 20", mt.CurrentFPS, mt.AverageFPS)
	}

	loop.Frames(10, 16*time.Millisecond)
	if m.IsPerformancePoor() {
		t.Error("IsPerformancePoor() = true after 62.5 fps frames")
	}
	if recovers != 1 {
		t.Errorf("OnRecover fired %d times, want 1", recovers)
	}
	if got := m.Metrics().FrameDrops; got != 10 {
		t.Errorf("FrameDrops = %d, want 10 (fast frames are not drops)", got)
	}

	loop.Frames(10, 50*time.Millisecond)
	if drops != 2 {
		t.Errorf("OnPerformanceDrop fired %d times after second drop, want 2", drops)
	}
}

func TestFramesWithinToleranceAreNotDrops(t *testing.T) {
	loop := frame.NewLoop(t0)
	m := New(loop, Config{})
	m.Start()
	// 38ms is over the 33ms budget but inside the 1.2 tolerance.
	loop.Frames(6, 38*time.Millisecond)
	if got := m.Metrics().FrameDrops; got != 0 {
		t.Errorf("FrameDrops = %d, want 0", got)
	}
}

func TestSustainedPoorPerformanceDemotes(t *testing.T) {
	loop := frame.NewLoop(t0)
	m := New(loop, Config{DemotionThreshold: 10, Tier: device.TierHigh})
	var changes [][2]device.Tier
	m.OnTierChange(func(from, to device.Tier) { changes = append(changes, [2]device.Tier{from, to}) })
	m.Start()

	// Prime, 4 samples to fill the poor window, then 10 poor samples.
	loop.Frames(15, 50*time.Millisecond)
	if m.Tier() != device.TierMedium {
		t.Fatalf("Tier() = %v, want medium", m.Tier())
	}
	loop.Frames(10, 50*time.Millisecond)
	loop.Frames(10, 50*time.Millisecond)
	if m.Tier() != device.TierLow {
		t.Errorf("Tier() = %v, want low", m.Tier())
	}
	want := [][2]device.Tier{{device.TierHigh, device.TierMedium}, {device.TierMedium, device.TierLow}}
	if len(changes) != len(want) {
		t.Fatalf("OnTierChange calls = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d = %v, want %v", i, changes[i], want[i])
		}
	}
	if m.Demote() {
		t.Error("Demote() at low tier = true")
	}
}

func TestStopCancelsPendingSample(t *testing.T) {
	loop := frame.NewLoop(t0)
	m := New(loop, Config{})
	m.Start()
	loop.Frames(3, 16*time.Millisecond)
	m.Stop()
	if n := loop.PendingFrames(); n != 0 {
		t.Errorf("PendingFrames() after Stop = %d, want 0", n)
	}
	before := m.Metrics().FrameCount
	loop.Frames(5, 16*time.Millisecond)
	if got := m.Metrics().FrameCount; got != before {
		t.Errorf("FrameCount changed after Stop: %d -> %d", before, got)
	}
}

func TestStopDuringFrameSkipsQueuedSample(t *testing.T) {
	loop := frame.NewLoop(t0)
	m := New(loop, Config{})
	loop.RequestFrame(func(time.Time) { m.Stop() })
	m.Start()
	loop.Advance(16 * time.Millisecond)
	if n := loop.PendingFrames(); n != 0 {
		t.Errorf("PendingFrames() = %d, want 0", n)
	}
	if m.State() != StateIdle {
		t.Errorf("State() = %v, want idle", m.State())
	}
}

func TestDisposeIdempotent(t *testing.T) {
	loop := frame.NewLoop(t0)
	m := New(loop, Config{})
	called := false
	m.OnPerformanceDrop(func(Metrics) { called = true })
	m.Start()
	m.Dispose()
	m.Dispose()
	m.Start()
	if m.State() != StateIdle {
		t.Error("Start() after Dispose() restarted the monitor")
	}
	if loop.PendingFrames() != 0 {
		t.Error("disposed monitor left a frame scheduled")
	}
	for i := 0; i < 10; i++ {
		m.Sample(t0.Add(time.Duration(i) * 100 * time.Millisecond))
	}
	if called {
		t.Error("callback survived Dispose()")
	}
}

func TestResetKeepsRunState(t *testing.T) {
	loop := frame.NewLoop(t0)
	m := New(loop, Config{})
	m.Start()
	loop.Frames(10, 50*time.Millisecond)
	m.RecordRenderTime(3 * time.Millisecond)
	m.Reset()
	if got := m.Metrics(); got != (Metrics{}) {
		t.Errorf("Metrics() after Reset = %+v, want zero", got)
	}
	if m.IsPerformancePoor() {
		t.Error("IsPerformancePoor() after Reset = true")
	}
	if m.State() != StateRunning {
		t.Error("Reset() stopped the monitor")
	}
	loop.Frames(3, 20*time.Millisecond)
	if got := m.Metrics().FrameCount; got != 2 {
		t.Errorf("FrameCount after Reset = %d, want 2", got)
	}
}

func TestInteractionTracking(t *testing.T) {
	loop := frame.NewLoop(t0)
	m := New(loop, Config{})

	loop.Advance(2 * time.Second)
	if got := m.IdleFor(); got != 2*time.Second {
		t.Errorf("IdleFor() without interaction = %v, want 2s", got)
	}
	m.RecordInteraction()
	if got := m.Metrics().LastInteraction; !got.Equal(t0.Add(2 * time.Second)) {
		t.Errorf("LastInteraction = %v", got)
	}
	loop.Advance(4 * time.Second)
	if m.IsIdle(5 * time.Second) {
		t.Error("IsIdle(5s) after 4s = true")
	}
	loop.Advance(time.Second)
	if !m.IsIdle(5 * time.Second) {
		t.Error("IsIdle(5s) after 5s = false")
	}
}

func TestCollector(t *testing.T) {
	loop := frame.NewLoop(t0)
	m := New(loop, Config{Tier: device.TierMedium, MemoryUsage: func() int64 { return 4 << 20 }})
	m.Start()
	loop.Frames(4, 25*time.Millisecond)

	reg := prometheus.NewPedanticRegistry()
	reg.MustRegister(NewCollector(m, prometheus.Labels{"surface": "hero"}))
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	got := make(map[string]float64)
	for _, mf := range families {
		metric := mf.GetMetric()[0]
		switch {
		case metric.GetCounter() != nil:
			got[mf.GetName()] = metric.GetCounter().GetValue()
		case metric.GetGauge() != nil:
			got[mf.GetName()] = metric.GetGauge().GetValue()
		}
		if l := metric.GetLabel(); len(l) != 1 || l[0].GetValue() != "hero" {
			t.Errorf("%s labels = %v", mf.GetName(), l)
		}
	}
	want := map[string]float64{
		"ripple_frames_total":       3,
		"ripple_fps_current":        40,
		"ripple_quality_tier":       1,
		"ripple_memory_usage_bytes": 4 << 20,
		"ripple_performance_poor":   0,
		"ripple_frame_drops_total":  0,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %v, want %v", name, got[name], v)
		}
	}
	if len(families) != 9 {
		t.Errorf("len(families) = %d, want 9", len(families))
	}
}

func TestCollectorCountersSurviveReset(t *testing.T) {
	loop := frame.NewLoop(t0)
	m := New(loop, Config{})
	m.Start()
	loop.Frames(4, 100*time.Millisecond)
	m.Reset()
	loop.Frames(3, 100*time.Millisecond)

	if got, want := m.Totals(), (Totals{Frames: 5, FrameDrops: 5}); got != want {
		t.Errorf("Totals() = %+v, want %+v", got, want)
	}

	reg := prometheus.NewPedanticRegistry()
	reg.MustRegister(NewCollector(m, nil))
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		switch mf.GetName() {
		case "ripple_frames_total", "ripple_frame_drops_total":
			if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 5 {
				t.Errorf("%s = %v, want 5", mf.GetName(), got)
			}
		}
	}
}
