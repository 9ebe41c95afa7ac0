package services

import "context"

type contextKey string

const (
	sessionIDKey    contextKey = "session_id"
	datasetKeyKey   contextKey = "dataset_key"
	recordingKeyKey contextKey = "recording_key"
	requestIDKey    contextKey = "request_id"
)

// WithSessionID annotates context with the recording session identifier.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionIDFromContext extracts the recording session identifier if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithDatasetKey annotates context with the active dataset key.
func WithDatasetKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, datasetKeyKey, key)
}

// DatasetKeyFromContext returns the dataset key if present.
func DatasetKeyFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(datasetKeyKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRecordingKey annotates context with the item being captured or played.
func WithRecordingKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return context.WithValue(ctx, recordingKeyKey, key)
}

// RecordingKeyFromContext returns the recording key if present.
func RecordingKeyFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(recordingKeyKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
