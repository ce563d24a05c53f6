package ripple

import "errors"

var (
	// ErrFallbackToCSS indicates the WebGL path cannot render this surface.
	// Renderers return it, possibly wrapped, to request the CSS fallback.
	ErrFallbackToCSS = errors.New("ripple: falling back to CSS rendering")

	// ErrInvalidOption is returned for unparsable or out-of-range options.
	ErrInvalidOption = errors.New("ripple: invalid option")

	// ErrNoRenderer is returned when no renderer is registered for a mode.
	ErrNoRenderer = errors.New("ripple: no renderer registered")

	// ErrClosed is returned by methods called after Close.
	ErrClosed = errors.New("ripple: surface closed")

	// ErrNotMounted is returned when an operation needs a mounted surface.
	ErrNotMounted = errors.New("ripple: surface not mounted")
)
