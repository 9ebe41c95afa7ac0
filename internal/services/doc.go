// Package services defines shared utilities consumed by the recording engine
// components.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, dataset keys, recording keys, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper, and StatusText which turns
//     a failure into the operator-facing status line.
//
// Every failure in the engine is recoverable; callers classify errors with
// errors.Is against the markers instead of matching strings.
package services
