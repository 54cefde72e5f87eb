// Package logging assembles the structured slog loggers used across
// soundbridge components.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so mutation code can tag log
// lines with request IDs. A no-op logger is provided for tests and wiring
// code that cannot fail.
package logging
