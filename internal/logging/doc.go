// Package logging assembles structured slog loggers and formatting helpers used
// across gbswap.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and tags log lines with the session identifier carried in a
// request context. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
package logging
