package texture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gogpu/ripple/device"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

type countingLoader struct {
	mu    sync.Mutex
	files map[string][]byte
	opens map[string]int
}

func (l *countingLoader) Open(_ context.Context, url string) (io.ReadCloser, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.opens[url]++
	data, ok := l.files[url]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func TestDecodeConfigAndDecode(t *testing.T) {
	data := encodePNG(t, 40, 30)

	cfg, format, err := DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	if format != "png" || cfg.Width != 40 || cfg.Height != 30 {
		t.Errorf("DecodeConfig() = %dx%d %q, want 40x30 png", cfg.Width, cfg.Height, format)
	}

	if _, _, err := Decode(bytes.NewReader([]byte("not an image"))); !errors.Is(err, ErrDecode) {
		t.Errorf("Decode(garbage) error = %v, want ErrDecode", err)
	}
}

func TestResampleAndPrepare(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 300, 200))
	for _, q := range []device.Tier{device.TierLow, device.TierMedium, device.TierHigh} {
		dst := Resample(src, Dimensions{Width: 64, Height: 32}, q)
		if b := dst.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
			t.Errorf("Resample(%v) bounds = %v, want 64x32", q, b)
		}
	}

	cfg := CalculateScale(device.TierMedium, 1, false, 4096)
	pix, dims := Prepare(src, cfg)
	if len(pix) != dims.Width*dims.Height*4 {
		t.Errorf("len(pixels) = %d, want %d", len(pix), dims.Width*dims.Height*4)
	}
	if !IsPowerOfTwo(dims.Width) || !IsPowerOfTwo(dims.Height) {
		t.Errorf("Prepare() dims = %dx%d, want powers of two", dims.Width, dims.Height)
	}
}

func TestRegistryPreloadOnce(t *testing.T) {
	l := &countingLoader{
		files: map[string][]byte{"hero.png": encodePNG(t, 16, 8)},
		opens: map[string]int{},
	}
	r := NewRegistry(l, 0, nil)

	img, err := r.Preload(context.Background(), "hero.png")
	if err != nil {
		t.Fatalf("Preload() error = %v", err)
	}
	if img.Width != 16 || img.Height != 8 || img.Format != "png" {
		t.Errorf("Preload() = %dx%d %q, want 16x8 png", img.Width, img.Height, img.Format)
	}
	if img.Aspect() != 2 {
		t.Errorf("Aspect() = %v, want 2", img.Aspect())
	}
	if _, err := r.Preload(context.Background(), "hero.png"); err != nil {
		t.Fatalf("second Preload() error = %v", err)
	}
	if l.opens["hero.png"] != 1 {
		t.Errorf("loader opened hero.png %d times, want 1", l.opens["hero.png"])
	}
	if !r.IsPreloaded("hero.png") {
		t.Error("IsPreloaded(hero.png) = false")
	}
}

func TestRegistryFailuresAreNotCached(t *testing.T) {
	l := &countingLoader{files: map[string][]byte{}, opens: map[string]int{}}
	r := NewRegistry(l, 0, nil)

	for i := 0; i < 2; i++ {
		if _, err := r.Preload(context.Background(), "missing.png"); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("Preload(missing) error = %v, want os.ErrNotExist", err)
		}
	}
	if l.opens["missing.png"] != 2 {
		t.Errorf("opens = %d, want 2", l.opens["missing.png"])
	}
	if r.IsPreloaded("missing.png") {
		t.Error("failed load was registered")
	}
}

func TestRegistryIsolatedInstances(t *testing.T) {
	a := NewRegistry(nil, 0, nil)
	b := NewRegistry(nil, 0, nil)
	a.Register("x", image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if b.IsPreloaded("x") {
		t.Error("registries share state")
	}
	if _, err := b.Preload(context.Background(), "x"); !errors.Is(err, ErrNoLoader) {
		t.Errorf("Preload() without loader error = %v, want ErrNoLoader", err)
	}
}

func TestRegistryCapacity(t *testing.T) {
	r := NewRegistry(nil, 2, nil)
	small := image.NewRGBA(image.Rect(0, 0, 1, 1))
	r.Register("a", small)
	r.Register("b", small)
	r.Register("c", small)
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	if r.IsPreloaded("a") {
		t.Error("oldest image not evicted")
	}
	if !r.Forget("c") || r.Forget("c") {
		t.Error("Forget(c) should succeed exactly once")
	}
}

func TestFileLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	if err := os.WriteFile(path, encodePNG(t, 4, 4), 0o600); err != nil {
		t.Fatal(err)
	}
	r := NewRegistry(FileLoader, 0, nil)
	img, err := r.Preload(context.Background(), path)
	if err != nil {
		t.Fatalf("Preload() error = %v", err)
	}
	if img.Width != 4 {
		t.Errorf("Width = %d, want 4", img.Width)
	}
}
