package playback

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"lettervoice/internal/logging"
	"lettervoice/internal/recordings"
	"lettervoice/internal/services"
)

// BlobSource resolves a recording key to its take.
type BlobSource interface {
	Get(ctx context.Context, key string) (recordings.Blob, bool, error)
}

// Controller enforces a single active playback.
type Controller struct {
	source  BlobSource
	player  Player
	tempDir string
	logger  *slog.Logger

	playMu sync.Mutex // serializes stop-then-start
	mu     sync.Mutex
	active *handle
}

type handle struct {
	key     string
	path    string
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
	stopped bool
}

func (h *handle) release(logger *slog.Logger) {
	h.once.Do(func() {
		if err := os.Remove(h.path); err != nil && !os.IsNotExist(err) {
			logger.Warn("playback handle cleanup failed",
				logging.String(logging.FieldRecordingKey, h.key),
				logging.Error(err),
				logging.String(logging.FieldEventType, "playback_release_failed"),
				logging.String(logging.FieldErrorHint, "remove the temporary file manually"),
				logging.String(logging.FieldImpact, "a temporary file was left behind"),
			)
		}
	})
}

// NewController constructs a playback controller. Handles are created in
// tempDir, or the system temp directory when empty.
func NewController(source BlobSource, player Player, tempDir string, logger *slog.Logger) *Controller {
	if player == nil {
		player = Silent{}
	}
	return &Controller{
		source:  source,
		player:  player,
		tempDir: tempDir,
		logger:  logging.NewComponentLogger(logger, "playback"),
	}
}

// StopPrevious stops the active playback, if any, and releases its handle. It
// returns once the playback has fully wound down and is safe to call with
// nothing playing.
func (c *Controller) StopPrevious() {
	c.mu.Lock()
	h := c.active
	c.active = nil
	if h != nil {
		h.stopped = true
	}
	c.mu.Unlock()
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
	h.release(c.logger)
}

// Playing reports the key of the active playback.
func (c *Controller) Playing() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return "", false
	}
	return c.active.key, true
}

// PlayRecordingForKey starts playing the take stored for key. It is a no-op
// when nothing was recorded for key. onEnded runs after natural completion
// and after a playback error, but not when the playback is stopped.
func (c *Controller) PlayRecordingForKey(ctx context.Context, key string, onEnded func()) error {
	blob, ok, err := c.source.Get(ctx, key)
	if err != nil {
		return services.Wrap(services.ErrPlayback, "playback", "load take", key, err)
	}
	if !ok {
		return nil
	}

	c.playMu.Lock()
	defer c.playMu.Unlock()

	c.StopPrevious()

	path, err := c.writeHandle(blob)
	if err != nil {
		return services.Wrap(services.ErrPlayback, "playback", "create handle", key, err)
	}

	playCtx, cancel := context.WithCancel(ctx)
	h := &handle{key: key, path: path, cancel: cancel, done: make(chan struct{})}
	c.mu.Lock()
	c.active = h
	c.mu.Unlock()

	go c.run(playCtx, h, onEnded)
	return nil
}

func (c *Controller) run(ctx context.Context, h *handle, onEnded func()) {
	err := c.player.Play(ctx, h.path)
	h.release(c.logger)

	c.mu.Lock()
	stopped := h.stopped || ctx.Err() != nil
	if c.active == h {
		c.active = nil
	}
	c.mu.Unlock()
	h.cancel()
	close(h.done)

	if stopped {
		return
	}
	if err != nil {
		logger := logging.WithContext(services.WithRecordingKey(ctx, h.key), c.logger)
		logging.WarnWithContext(logger, "playback failed", "playback_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the ffplay installation"),
			logging.String(logging.FieldImpact, "take was not heard"),
		)
	}
	if onEnded != nil {
		onEnded()
	}
}

func (c *Controller) writeHandle(blob recordings.Blob) (string, error) {
	file, err := os.CreateTemp(c.tempDir, "lettervoice-take-*"+extensionFor(blob.MIMEType))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := file.Write(blob.Data); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return file.Name(), nil
}

func extensionFor(mimeType string) string {
	mt := strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(mt, "audio/webm"), strings.HasPrefix(mt, "video/webm"):
		return ".webm"
	case strings.HasPrefix(mt, "audio/mp4"):
		return ".m4a"
	case strings.HasPrefix(mt, "audio/ogg"):
		return ".ogg"
	default:
		return ".bin"
	}
}
