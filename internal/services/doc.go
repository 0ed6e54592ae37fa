// Package services defines shared utilities consumed by the import pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, external title IDs,
//     and pipeline step names for logging.
//   - Structured error markers plus the Wrap helper that let callers classify
//     failures (validation, not found, transient, permanent) without string
//     matching, and HTTPStatus which maps those markers onto response codes.
//
// Use these helpers when wiring new pipeline logic so error classification and
// observability stay uniform between the HTTP surface, the CLI, and the bulk
// coordinator.
package services
