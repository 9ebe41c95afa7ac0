package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultPoll = time.Second

// Filter selects log lines. Empty fields match every line.
type Filter struct {
	SessionID    string
	RecordingKey string
	EventType    string
}

// Match reports whether line carries every configured value.
func (f Filter) Match(line string) bool {
	for _, value := range []string{f.SessionID, f.RecordingKey, f.EventType} {
		if value = strings.TrimSpace(value); value != "" && !strings.Contains(line, value) {
			return false
		}
	}
	return true
}

// Options controls Stream.
type Options struct {
	// Lines is how many trailing lines to emit first; 0 emits none.
	Lines  int
	Follow bool
	Poll   time.Duration
	Filter Filter
}

// Stream emits the last matching lines of path, then with Follow set keeps
// emitting new matching lines until ctx ends. A missing file yields nothing
// unless following, in which case Stream waits for it to appear. Following
// reacts to file system events and polls every Poll as a fallback.
func Stream(ctx context.Context, path string, opts Options, onLine func(string)) error {
	poll := opts.Poll
	if poll <= 0 {
		poll = defaultPoll
	}

	lines, offset, err := lastLines(path, opts.Lines, opts.Filter)
	if err != nil {
		return err
	}
	for _, line := range lines {
		onLine(line)
	}
	if !opts.Follow {
		return nil
	}

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		defer watcher.Close()
		if err := watcher.Add(filepath.Dir(path)); err == nil {
			events, watchErrs = watcher.Events, watcher.Errors
		}
	}
	target := filepath.Clean(path)

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
		case _, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
			}
			continue
		case <-ticker.C:
		}
		next, err := readFrom(path, offset, opts.Filter, onLine)
		if err != nil {
			return err
		}
		offset = next
	}
}

func lastLines(path string, limit int, filter Filter) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	if limit <= 0 {
		return nil, info.Size(), nil
	}

	ring := make([]string, limit)
	count, idx := 0, 0
	offset, err := scanLines(file, filter, func(line string) {
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}

	lines := make([]string, count)
	if count == limit {
		for i := range count {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

// readFrom emits matching lines after offset and returns the new offset. A
// file shorter than offset was truncated and is read from the start.
func readFrom(path string, offset int64, filter Filter, onLine func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if info.Size() < offset {
		offset = 0
	}
	if info.Size() == offset {
		return offset, nil
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	consumed, err := scanLines(file, filter, onLine)
	if err != nil {
		return offset, err
	}
	return offset + consumed, nil
}

// scanLines passes complete matching lines to emit and returns the number of
// bytes consumed. A trailing partial line is left for the next read.
func scanLines(r io.Reader, filter Filter, emit func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		line = strings.TrimRight(line, "\r\n")
		if filter.Match(line) {
			emit(line)
		}
	}
}
