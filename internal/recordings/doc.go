// Package recordings holds the takes captured during one operator session.
//
// The store is an in-memory SQLite database: it lives exactly as long as the
// Store value and is never written to disk. Entries are keyed by recording
// key, created only when a capture completes, and replaced wholesale when the
// same item is recorded again.
package recordings
