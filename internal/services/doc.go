// Package services defines shared utilities consumed by the lifecycle
// coordinator and external integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that classify failures
//     (precondition vs structural vs transient) for the coordinator's
//     error-handling policy.
//   - Context helpers that stamp correlation identifiers for logging.
//
// Use these helpers when wiring new operations so error handling and
// observability stay uniform across the daemon.
package services
