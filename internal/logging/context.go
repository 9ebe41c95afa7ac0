package logging

import (
	"context"
	"log/slog"

	"lettervoice/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldDatasetKey is the standardized structured logging key for dataset keys.
	FieldDatasetKey = "dataset_key"
	// FieldRecordingKey is the standardized structured logging key for recording keys.
	FieldRecordingKey = "recording_key"
	// FieldVoicePath is the standardized structured logging key for remote voice paths.
	FieldVoicePath = "voice_path"
	// FieldState is the standardized structured logging key for session states.
	FieldState = "state"
	// FieldCorrelationID is the standardized structured logging key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := services.SessionIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSessionID, id))
	}
	if key, ok := services.DatasetKeyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldDatasetKey, key))
	}
	if key, ok := services.RecordingKeyFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRecordingKey, key))
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
