package session

import (
	"errors"
	"slices"
)

// State is the capture state of a session.
type State string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateRecording State = "recording"
)

var (
	// ErrBusy is returned when a request is not allowed in the current state.
	ErrBusy = errors.New("session busy")
	// ErrNoItems is returned when the visible list is empty.
	ErrNoItems = errors.New("no items to record")
	// ErrCaptureDisabled is returned until capture is retried after a failure.
	ErrCaptureDisabled = errors.New("capture disabled")
)

// transitionLocked moves to next when the current state is one of from.
// Callers hold s.mu.
func (s *Session) transitionLocked(next State, from ...State) bool {
	if !slices.Contains(from, s.state) {
		return false
	}
	s.state = next
	return true
}
