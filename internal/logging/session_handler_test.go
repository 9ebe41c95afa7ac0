package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"lettervoice/internal/services"
)

func TestSessionIDHandlerStampsRecords(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(newSessionIDHandler(slog.NewJSONHandler(&buf, nil), "rec-1"))
	NewComponentLogger(logger, "session").Info("take stored", String(FieldRecordingKey, "words:a:ant"))

	out := buf.String()
	if !strings.Contains(out, `"session_id":"rec-1"`) {
		t.Fatalf("expected session id in output, got %s", out)
	}
	if !strings.Contains(out, `"recording_key":"words:a:ant"`) {
		t.Fatalf("expected recording key in output, got %s", out)
	}
}

func TestSessionIDHandlerDoesNotRepeatContextSession(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(newSessionIDHandler(slog.NewJSONHandler(&buf, nil), "rec-1"))
	ctx := services.WithSessionID(context.Background(), "rec-1")
	WithContext(ctx, logger).Warn("playback failed")
	logger.Info("inline", String(FieldSessionID, "rec-2"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two records, got %q", buf.String())
	}
	for _, line := range lines {
		if n := strings.Count(line, `"session_id"`); n != 1 {
			t.Fatalf("expected exactly one session_id, got %d in %s", n, line)
		}
	}
	if !strings.Contains(lines[1], `"session_id":"rec-2"`) {
		t.Fatalf("expected record value to win, got %s", lines[1])
	}
}

func TestSessionIDHandlerNilBase(t *testing.T) {
	t.Parallel()

	if _, ok := newSessionIDHandler(nil, "rec-1").(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when base is nil")
	}
}
