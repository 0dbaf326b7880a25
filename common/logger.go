package common

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler discards every record. Enabled reports false so callers skip
// formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// SetLogger configures the logger shared by every engine package. By default the
// engine produces no log output. Passing nil restores the silent default.
//
// Log levels used by the engine:
//   - slog.LevelDebug: GPU resource (re)allocation, bind group rebuilds
//   - slog.LevelInfo: lifecycle events (adapter selected, strategy initialized)
//   - slog.LevelWarn: degraded behaviour (tile light list truncation)
//
// Parameters:
//   - l: the logger to install, or nil to disable logging
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

// Logger returns the logger shared by every engine package. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
