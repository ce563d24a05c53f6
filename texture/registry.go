// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package texture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gogpu/ripple/internal/cache"
	"github.com/gogpu/ripple/internal/slogx"
)

var (
	// ErrDecode wraps image decoding failures.
	ErrDecode = errors.New("texture: decode image")
	// ErrNoLoader is returned when a Registry has no Loader.
	ErrNoLoader = errors.New("texture: no image loader")
)

// Loader opens the encoded bytes of an image by URL.
type Loader interface {
	Open(ctx context.Context, url string) (io.ReadCloser, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, url string) (io.ReadCloser, error)

// Open calls f.
func (f LoaderFunc) Open(ctx context.Context, url string) (io.ReadCloser, error) { return f(ctx, url) }

// FileLoader treats URLs as local file paths.
var FileLoader = LoaderFunc(func(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
})

// HTTPLoader fetches URLs with an HTTP client. In js/wasm builds the
// default transport uses the browser fetch API.
type HTTPLoader struct {
	Client *http.Client
}

// Open implements Loader.
func (l HTTPLoader) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("texture: GET %s: %s", url, resp.Status)
	}
	return resp.Body, nil
}

// Image is a decoded source image.
type Image struct {
	URL      string
	Format   string
	Width    int
	Height   int
	Pixels   image.Image
	LoadedAt time.Time
}

// Aspect returns width divided by height, 1 for degenerate sizes.
func (i Image) Aspect() float64 {
	if i.Width <= 0 || i.Height <= 0 {
		return 1
	}
	return float64(i.Width) / float64(i.Height)
}

// DefaultRegistryCapacity bounds the number of decoded images kept.
const DefaultRegistryCapacity = 32

// Registry tracks preloaded images by URL. Concurrent preloads of the same
// URL share one load.
type Registry struct {
	loader Loader
	images *cache.Cache[string, Image]
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	inflight map[string]*load
}

type load struct {
	done chan struct{}
	img  Image
	err  error
}

// NewRegistry creates a registry holding at most capacity images; 0 selects
// DefaultRegistryCapacity. A nil logger disables logging.
func NewRegistry(loader Loader, capacity int, logger *slog.Logger) *Registry {
	if capacity <= 0 {
		capacity = DefaultRegistryCapacity
	}
	r := &Registry{
		loader:   loader,
		logger:   slogx.OrNop(logger),
		now:      time.Now,
		inflight: make(map[string]*load),
	}
	r.images = cache.New[string, Image](capacity, func(url string, _ Image) {
		r.logger.Debug("texture: evicted preloaded image", "url", url)
	})
	return r
}

// Preload loads and decodes url unless it is already registered.
func (r *Registry) Preload(ctx context.Context, url string) (Image, error) {
	if img, ok := r.images.Get(url); ok {
		return img, nil
	}
	if r.loader == nil {
		return Image{}, ErrNoLoader
	}

	r.mu.Lock()
	if l, ok := r.inflight[url]; ok {
		r.mu.Unlock()
		select {
		case <-l.done:
			return l.img, l.err
		case <-ctx.Done():
			return Image{}, ctx.Err()
		}
	}
	l := &load{done: make(chan struct{})}
	r.inflight[url] = l
	r.mu.Unlock()

	l.img, l.err = r.load(ctx, url)
	if l.err == nil {
		r.images.Set(url, l.img)
	}

	r.mu.Lock()
	delete(r.inflight, url)
	r.mu.Unlock()
	close(l.done)
	return l.img, l.err
}

func (r *Registry) load(ctx context.Context, url string) (Image, error) {
	rc, err := r.loader.Open(ctx, url)
	if err != nil {
		r.logger.Warn("texture: open image failed", "url", url, "err", err)
		return Image{}, fmt.Errorf("texture: open %s: %w", url, err)
	}
	defer rc.Close()

	img, format, err := Decode(rc)
	if err != nil {
		r.logger.Warn("texture: decode image failed", "url", url, "err", err)
		return Image{}, fmt.Errorf("texture: %s: %w", url, err)
	}
	b := img.Bounds()
	out := Image{
		URL:      url,
		Format:   format,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Pixels:   img,
		LoadedAt: r.now(),
	}
	r.logger.Debug("texture: preloaded image", "url", url, "format", format, "width", out.Width, "height", out.Height)
	return out, nil
}

// Register adds an already decoded image.
func (r *Registry) Register(url string, img image.Image) Image {
	b := img.Bounds()
	out := Image{URL: url, Width: b.Dx(), Height: b.Dy(), Pixels: img, LoadedAt: r.now()}
	r.images.Set(url, out)
	return out
}

// Lookup returns a registered image.
func (r *Registry) Lookup(url string) (Image, bool) {
	return r.images.Get(url)
}

// IsPreloaded reports whether url is registered, without touching recency.
func (r *Registry) IsPreloaded(url string) bool {
	_, ok := r.images.Peek(url)
	return ok
}

// Forget removes url from the registry.
func (r *Registry) Forget(url string) bool {
	return r.images.Delete(url)
}

// Len returns the number of registered images.
func (r *Registry) Len() int { return r.images.Len() }

// Stats returns cache statistics.
func (r *Registry) Stats() cache.Stats { return r.images.Stats() }
