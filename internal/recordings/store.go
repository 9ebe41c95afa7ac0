package recordings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Blob is one captured take. MIMEType is whatever the encoder negotiated and
// is treated as opaque by every consumer.
type Blob struct {
	MIMEType   string
	Data       []byte
	CapturedAt time.Time
}

// Entry pairs a recording key with its take.
type Entry struct {
	RecordingKey string
	Blob         Blob
}

// Store keeps captured takes for the lifetime of the process.
type Store struct {
	db *sql.DB
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open creates an empty in-memory store. A single connection is kept open so
// every query sees the same database.
func Open(ctx context.Context) (*Store, error) {
	ctx = ensureContext(ctx)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragma: %w", err)
	}

	store := &Store{db: db}
	if err := store.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close discards every take.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores the take for key, replacing any earlier take for the same key.
func (s *Store) Put(ctx context.Context, key string, blob Blob) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("recording key is required")
	}
	if len(blob.Data) == 0 {
		return fmt.Errorf("recording %q has no audio data", key)
	}
	capturedAt := blob.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now()
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO recordings (recording_key, mime_type, data, captured_at, seq)
             VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM recordings))
             ON CONFLICT(recording_key) DO UPDATE SET
                mime_type = excluded.mime_type,
                data = excluded.data,
                captured_at = excluded.captured_at`,
			key,
			blob.MIMEType,
			blob.Data,
			capturedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("put recording %q: %w", key, err)
		}
		return nil
	})
}

// Get returns the take for key. The boolean is false when nothing was
// recorded.
func (s *Store) Get(ctx context.Context, key string) (Blob, bool, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT mime_type, data, captured_at FROM recordings WHERE recording_key = ?`, key)
	blob, err := scanBlob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Blob{}, false, nil
	}
	if err != nil {
		return Blob{}, false, fmt.Errorf("get recording %q: %w", key, err)
	}
	return blob, true, nil
}

// Has reports whether key has a take.
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM recordings WHERE recording_key = ?`, key).Scan(&count); err != nil {
		return false, fmt.Errorf("check recording %q: %w", key, err)
	}
	return count > 0, nil
}

// Len returns the number of recorded items.
func (s *Store) Len(ctx context.Context) (int, error) {
	ctx = ensureContext(ctx)
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM recordings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count recordings: %w", err)
	}
	return count, nil
}

// Keys lists recording keys in first-capture order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT recording_key FROM recordings ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan recording key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// All returns every take in first-capture order.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT recording_key, mime_type, data, captured_at FROM recordings ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry      Entry
			capturedAt string
		)
		if err := rows.Scan(&entry.RecordingKey, &entry.Blob.MIMEType, &entry.Blob.Data, &capturedAt); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		entry.Blob.CapturedAt = parseTime(capturedAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanBlob(row *sql.Row) (Blob, error) {
	var (
		blob       Blob
		capturedAt string
	)
	if err := row.Scan(&blob.MIMEType, &blob.Data, &capturedAt); err != nil {
		return Blob{}, err
	}
	blob.CapturedAt = parseTime(capturedAt)
	return blob, nil
}

func parseTime(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
