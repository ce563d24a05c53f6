package resource

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/ripple/gl"
	"github.com/gogpu/ripple/platform"
)

type box struct{ w, h int }

func (b *box) Size() (int, int) { return b.w, b.h }

func TestDisposeReleasesEveryHandleOnce(t *testing.T) {
	glc := gl.NewNullContext(gl.NullConfig{})
	m := NewManager(glc, Config{})

	for i := 0; i < 3; i++ {
		if err := m.RegisterTexture(glc.CreateTexture(), TextureInfo{Width: 64, Height: 64}); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 2; i++ {
		if err := m.RegisterBuffer(glc.CreateBuffer(), 128); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.RegisterProgram(glc.CreateProgram()); err != nil {
		t.Fatal(err)
	}

	if n := m.Dispose(); n != 6 {
		t.Errorf("Dispose() = %d, want 6", n)
	}
	calls := func() int {
		return glc.Calls("DeleteTexture") + glc.Calls("DeleteBuffer") + glc.Calls("DeleteProgram")
	}
	if n := calls(); n != 6 {
		t.Errorf("delete calls = %d, want 6", n)
	}
	if live := glc.Live(); live.Total() != 0 {
		t.Errorf("Live() = %+v, want nothing", live)
	}

	if n := m.Dispose(); n != 0 {
		t.Errorf("second Dispose() = %d, want 0", n)
	}
	if n := calls(); n != 6 {
		t.Errorf("delete calls after second Dispose = %d, want 6", n)
	}
	if err := m.RegisterTexture(glc.CreateTexture(), TextureInfo{}); !errors.Is(err, ErrDisposed) {
		t.Errorf("RegisterTexture() after Dispose error = %v, want ErrDisposed", err)
	}
}

func TestDisposeEmpty(t *testing.T) {
	m := NewManager(gl.NewNullContext(gl.NullConfig{}), Config{})
	if n := m.Dispose(); n != 0 {
		t.Errorf("Dispose() = %d, want 0", n)
	}
	if !m.Disposed() {
		t.Error("Disposed() = false")
	}
}

func TestEarlyReleaseIsNotRepeated(t *testing.T) {
	glc := gl.NewNullContext(gl.NullConfig{})
	m := NewManager(glc, Config{})
	tex := glc.CreateTexture()
	buf := glc.CreateBuffer()
	prog := glc.CreateProgram()
	_ = m.RegisterTexture(tex, TextureInfo{})
	_ = m.RegisterBuffer(buf, 16)
	_ = m.RegisterProgram(prog)

	if !m.ReleaseTexture(tex) || !m.ReleaseBuffer(buf) || !m.ReleaseProgram(prog) {
		t.Fatal("Release* of registered handle = false")
	}
	if m.ReleaseTexture(tex) || m.ReleaseBuffer(buf) || m.ReleaseProgram(prog) {
		t.Error("second Release* = true")
	}
	if n := m.Dispose(); n != 0 {
		t.Errorf("Dispose() after early release = %d, want 0", n)
	}
	for _, method := range []string{"DeleteTexture", "DeleteBuffer", "DeleteProgram"} {
		if n := glc.Calls(method); n != 1 {
			t.Errorf("%s calls = %d, want 1", method, n)
		}
	}
	if s := m.Stats(); s.Released != 3 {
		t.Errorf("Stats().Released = %d, want 3", s.Released)
	}
}

func TestZeroHandlesAreIgnored(t *testing.T) {
	m := NewManager(gl.NewNullContext(gl.NullConfig{}), Config{})
	_ = m.RegisterTexture(0, TextureInfo{})
	_ = m.RegisterBuffer(0, 10)
	_ = m.RegisterProgram(0)
	if s := m.Stats(); s.Textures+s.Buffers+s.Programs != 0 {
		t.Errorf("Stats() = %+v, want empty", s)
	}
}

func TestObserveElementReplacesSubscription(t *testing.T) {
	manual := platform.NewManual()
	m := NewManager(gl.NewNullContext(gl.NullConfig{}), Config{Visibility: manual})
	a, b := &box{100, 100}, &box{200, 200}

	m.ObserveElement(a)
	if n := manual.Observers(); n != 1 {
		t.Fatalf("Observers() = %d, want 1", n)
	}
	m.ObserveElement(b)
	if n := manual.Observers(); n != 1 {
		t.Errorf("Observers() after replacement = %d, want 1", n)
	}
	if m.Observed() != b {
		t.Error("Observed() is not the new element")
	}

	m.UnobserveElement(a)
	if n := manual.Observers(); n != 1 {
		t.Errorf("UnobserveElement(old) changed observers to %d", n)
	}
	m.UnobserveElement(b)
	if n := manual.Observers(); n != 0 {
		t.Errorf("Observers() after UnobserveElement = %d, want 0", n)
	}

	m.ObserveElement(a)
	m.Dispose()
	if n := manual.Observers(); n != 0 {
		t.Errorf("Observers() after Dispose = %d, want 0", n)
	}
}

func TestVisibilityAndPauseGating(t *testing.T) {
	manual := platform.NewManual()
	var changes []bool
	m := NewManager(gl.NewNullContext(gl.NullConfig{}), Config{
		Visibility:         manual,
		OnVisibilityChange: func(v bool) { changes = append(changes, v) },
	})
	m.ObserveElement(&box{10, 10})

	tests := []struct {
		name    string
		visible bool
		paused  bool
		want    bool
	}{
		{"visible running", true, false, false},
		{"hidden running", false, false, true},
		{"visible paused", true, true, true},
		{"hidden paused", false, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manual.SetVisible(tt.visible)
			if tt.paused {
				m.PauseRendering()
			} else {
				m.ResumeRendering()
			}
			if got := m.IsRenderingPaused(); got != tt.want {
				t.Errorf("IsRenderingPaused() = %v, want %v", got, tt.want)
			}
			if got := m.State(); got.IsVisible != tt.visible || got.IsPaused != tt.paused {
				t.Errorf("State() = %+v", got)
			}
		})
	}
	want := []bool{false, true, false}
	if len(changes) != len(want) {
		t.Fatalf("OnVisibilityChange calls = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("change %d = %v, want %v", i, changes[i], want[i])
		}
	}
}

func TestMemoryPressureIsReported(t *testing.T) {
	manual := platform.NewManual()
	var got []platform.Pressure
	m := NewManager(gl.NewNullContext(gl.NullConfig{}), Config{
		Memory:           manual,
		OnMemoryPressure: func(p platform.Pressure) { got = append(got, p) },
	})

	manual.TriggerPressure(platform.Pressure{UsedHeap: 900, HeapLimit: 1000})
	if len(got) != 1 || got[0].UsedHeap != 900 {
		t.Errorf("OnMemoryPressure calls = %v", got)
	}
	if m.IsRenderingPaused() {
		t.Error("memory pressure paused rendering")
	}
	if s := m.Stats(); s.PressureEvents != 1 {
		t.Errorf("Stats().PressureEvents = %d, want 1", s.PressureEvents)
	}

	m.Dispose()
	manual.TriggerPressure(platform.Pressure{Critical: true})
	if len(got) != 1 {
		t.Error("pressure delivered after Dispose")
	}
}

func TestEstimatedMemoryUsage(t *testing.T) {
	glc := gl.NewNullContext(gl.NullConfig{})
	m := NewManager(glc, Config{})
	_ = m.RegisterTexture(glc.CreateTexture(), TextureInfo{Width: 256, Height: 256, Format: gputypes.TextureFormatRGBA8Unorm})
	_ = m.RegisterTexture(glc.CreateTexture(), TextureInfo{Width: 64, Height: 64, Format: gputypes.TextureFormatR8Unorm})
	_ = m.RegisterTexture(glc.CreateTexture(), TextureInfo{Width: 16, Height: 16, Mipmaps: true})
	_ = m.RegisterTexture(glc.CreateTexture(), TextureInfo{})
	_ = m.RegisterBuffer(glc.CreateBuffer(), 1000)
	_ = m.RegisterBuffer(glc.CreateBuffer(), -5)
	_ = m.RegisterProgram(glc.CreateProgram())

	want := int64(256*256*4 + 64*64 + (1024 + 341) + DefaultTextureBytes + 1000 + ProgramOverheadBytes)
	if got := m.EstimatedMemoryUsage(); got != want {
		t.Errorf("EstimatedMemoryUsage() = %d, want %d", got, want)
	}
	s := m.Stats()
	if s.Textures != 4 || s.Buffers != 2 || s.Programs != 1 {
		t.Errorf("Stats() = %+v", s)
	}
	if s.String() == "" {
		t.Error("Stats.String() is empty")
	}
}

func TestBytesPerPixel(t *testing.T) {
	tests := []struct {
		f    gputypes.TextureFormat
		want int64
	}{
		{gputypes.TextureFormatUndefined, 4},
		{gputypes.TextureFormatR8Unorm, 1},
		{gputypes.TextureFormatRG8Unorm, 2},
		{gputypes.TextureFormatRGBA8UnormSrgb, 4},
		{gputypes.TextureFormatBGRA8Unorm, 4},
		{gputypes.TextureFormatRGBA16Float, 8},
		{gputypes.TextureFormatRGBA32Float, 16},
	}
	for _, tt := range tests {
		if got := BytesPerPixel(tt.f); got != tt.want {
			t.Errorf("BytesPerPixel(%v) = %d, want %d", tt.f, got, tt.want)
		}
	}
}

func TestMarkFrame(t *testing.T) {
	m := NewManager(gl.NewNullContext(gl.NullConfig{}), Config{})
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	m.MarkFrame(now)
	m.MarkFrame(now.Add(time.Second))
	s := m.State()
	if s.FrameCount != 2 || !s.LastRenderTime.Equal(now.Add(time.Second)) {
		t.Errorf("State() = %+v", s)
	}
}
