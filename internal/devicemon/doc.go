// Package devicemon watches udev netlink events for sound devices so capture
// can be re-enabled when a microphone is plugged in after a failure.
package devicemon
