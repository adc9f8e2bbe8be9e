package httpserver

import "log/slog"

// newNoopLogger returns a logger that discards everything. Used when no
// logger option was supplied.
func newNoopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
