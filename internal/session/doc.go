// Package session owns the recording workflow for one operator.
//
// A Session holds the active dataset, the visible item list, the current
// index, and the capture state machine (idle, starting, recording). Every
// public method is safe for concurrent use: the state enum is checked under
// the session lock before any transition, and slow work such as microphone
// acquisition or playback runs outside the lock and is re-validated before
// its result is applied.
//
// A finished take is written to the recording store, played back, and on a
// natural end of playback the session advances to the next item unless the
// operator navigated in the meantime.
package session
