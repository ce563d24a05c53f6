package gl

import "errors"

// ErrNoContext is returned when the platform cannot create a GL context.
var ErrNoContext = errors.New("gl: context unavailable")
