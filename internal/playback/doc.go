// Package playback plays captured takes back to the operator.
//
// At most one take plays at a time. Each playback gets its own handle, a
// temporary file holding the take, which is removed exactly once when the
// playback ends, fails, or is stopped.
package playback
