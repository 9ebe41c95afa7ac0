package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"lettervoice/internal/logging"
)

const (
	chunkSize   = 32 * 1024
	stopTimeout = 5 * time.Second
)

// ffmpegRecorder runs one ffmpeg process per take and forwards its stdout as
// chunks.
type ffmpegRecorder struct {
	binary   string
	args     []string
	mimeType string
	logger   *slog.Logger

	mu       sync.Mutex
	cmd      *exec.Cmd
	stopping bool
	finished chan struct{}
}

func (r *ffmpegRecorder) MIMEType() string {
	return r.mimeType
}

func (r *ffmpegRecorder) Start(ctx context.Context, onData func([]byte), done func(error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cmd != nil {
		return errors.New("ffmpeg recorder already started")
	}

	cmd := exec.CommandContext(ctx, r.binary, r.args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	r.cmd = cmd
	r.finished = make(chan struct{})

	r.logger.Debug("ffmpeg capture started",
		logging.String("mime_type", r.mimeType),
		logging.String("command", r.binary+" "+strings.Join(r.args, " ")),
	)

	go func() {
		defer close(r.finished)
		readErr := pump(stdout, onData)
		waitErr := cmd.Wait()

		r.mu.Lock()
		stopping := r.stopping
		r.mu.Unlock()

		var result error
		switch {
		case readErr != nil:
			result = fmt.Errorf("read ffmpeg output: %w", readErr)
		case waitErr != nil && !stopping:
			result = fmt.Errorf("ffmpeg exited: %w: %s", waitErr, strings.TrimSpace(stderr.String()))
		}
		if done != nil {
			done(result)
		}
	}()
	return nil
}

// Stop interrupts ffmpeg so it finalizes the container, then waits for the
// output to drain. A process that ignores the interrupt is killed.
func (r *ffmpegRecorder) Stop() error {
	r.mu.Lock()
	cmd, finished := r.cmd, r.finished
	if cmd == nil {
		r.mu.Unlock()
		return nil
	}
	alreadyStopping := r.stopping
	r.stopping = true
	r.mu.Unlock()

	if !alreadyStopping && cmd.Process != nil {
		if err := cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
			_ = cmd.Process.Kill()
		}
	}

	select {
	case <-finished:
		return nil
	case <-time.After(stopTimeout):
		_ = cmd.Process.Kill()
		<-finished
		return fmt.Errorf("ffmpeg did not stop within %s", stopTimeout)
	}
}

func pump(r io.Reader, onData func([]byte)) error {
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 && onData != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			onData(chunk)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}
