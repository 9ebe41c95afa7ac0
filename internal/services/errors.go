package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrCapture       = errors.New("capture failure")
	ErrPermission    = errors.New("permission denied")
	ErrPlayback      = errors.New("playback failure")
	ErrExport        = errors.New("export failure")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later status classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// StatusText maps an engine error to the short status line shown to the
// operator. Every failure is recoverable, so the text always invites a retry.
func StatusText(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPermission):
		return "Microphone access required!"
	case errors.Is(err, ErrCapture):
		return "Recording failed!"
	case errors.Is(err, ErrPlayback):
		return "Playback failed"
	case errors.Is(err, ErrExport):
		return "Failed to create ZIP file"
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return "Configuration problem, check the logs"
	default:
		return "Something went wrong, try again"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
