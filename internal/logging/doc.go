// Package logging assembles the structured slog loggers used across wavsh.
//
// It owns the console and JSON handlers, level parsing and output plumbing,
// the session_id decoration that ties log lines to journal rows, and the
// component/warning helpers that keep field names consistent. A no-op logger
// is provided for tests and for wiring code that runs before configuration is
// available.
package logging
