package ripple

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/ripple/internal/slogx"
)

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slogx.Nop())
}

// SetLogger configures the logger for ripple. By default ripple produces no
// log output. Surfaces pick up the logger when they are created and hand it
// to their sub-components.
//
// SetLogger is safe for concurrent use. Pass nil to restore silence.
//
// Log levels used by ripple:
//   - [slog.LevelDebug]: per-decision diagnostics (classification, cache hits, selector events)
//   - [slog.LevelInfo]: lifecycle events (mode commits, tier demotions, mount and unmount)
//   - [slog.LevelWarn]: recoverable failures (shader compile errors, CSS fallback, memory pressure)
//
// Example:
//
//	ripple.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	loggerPtr.Store(slogx.OrNop(l))
}

// Logger returns the current logger used by ripple.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
