// Package logging assembles structured slog loggers and formatting helpers used
// across catalogsync.
//
// It owns the console/JSON handlers and the level and output plumbing. It also
// exposes context-aware helpers that tag log lines with correlation IDs,
// external title IDs, and pipeline steps, plus a no-op logger for tests.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// records with the same shape as the rest of the system.
package logging
