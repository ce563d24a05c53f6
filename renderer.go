package ripple

import (
	"time"

	"github.com/gogpu/ripple/device"
)

// Renderer draws the ripple effect for one mode of a Surface.
//
// A Surface creates renderers from its registry when a mode is committed,
// mounts the incoming renderer before unmounting the outgoing one, and calls
// every method from the goroutine that drives its frame host.
type Renderer interface {
	// Mount acquires the renderer's resources for a width×height element.
	// Returning an error, ideally wrapping ErrFallbackToCSS, makes a WebGL
	// surface fall back to CSS.
	Mount(width, height int) error

	// Render draws one frame.
	Render(now time.Time) error

	// Pointer reports a pointer position in element coordinates. Down is
	// set for presses and touch starts.
	Pointer(x, y float64, down bool)

	// SetIdle toggles the self-running idle animation.
	SetIdle(idle bool)

	// SetTier switches the quality tier of a mounted renderer.
	SetTier(t device.Tier) error

	Resize(width, height int)

	// Unmount releases everything Mount acquired. It is called once.
	Unmount()
}
