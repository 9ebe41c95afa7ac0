// Package logging assembles structured slog loggers and formatting helpers used
// across lettervoice components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so engine code can tag log lines
// with session IDs, dataset keys, and recording keys. The package also provides
// a no-op logger for tests and wiring code that cannot fail.
package logging
