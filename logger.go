package sway

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that discards all records. Enabled returns
// false so callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. The manipulation service calls back
// from its own goroutines, so access is atomic.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for sway and its sub-packages.
// By default sway produces no log output. Pass nil to restore silence.
//
// Log levels used by sway:
//   - [slog.LevelDebug]: status transitions, transform publish and release
//   - [slog.LevelInfo]: container initialization, host attach
//   - [slog.LevelWarn]: rejected transitions, service call failures,
//     force-stopped inertia
//
// Example:
//
//	sway.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger. The sim package calls this to share
// the same configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
