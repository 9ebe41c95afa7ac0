package playback_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"lettervoice/internal/logging"
	"lettervoice/internal/playback"
	"lettervoice/internal/recordings"
)

type mapSource map[string]recordings.Blob

func (m mapSource) Get(_ context.Context, key string) (recordings.Blob, bool, error) {
	blob, ok := m[key]
	return blob, ok, nil
}

// gatedPlayer blocks each playback until finish is called or ctx ends.
type gatedPlayer struct {
	mu      sync.Mutex
	live    int
	peak    int
	started chan string
	finish  chan error
}

func newGatedPlayer() *gatedPlayer {
	return &gatedPlayer{started: make(chan string, 16), finish: make(chan error)}
}

func (p *gatedPlayer) Play(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	p.mu.Lock()
	p.live++
	if p.live > p.peak {
		p.peak = p.live
	}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.live--
		p.mu.Unlock()
	}()

	p.started <- path
	select {
	case err := <-p.finish:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *gatedPlayer) peakLive() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

func waitStarted(t *testing.T, p *gatedPlayer) string {
	t.Helper()
	select {
	case path := <-p.started:
		return path
	case <-time.After(5 * time.Second):
		t.Fatal("playback never started")
		return ""
	}
}

func handleCount(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	return len(entries)
}

func testSource() mapSource {
	return mapSource{
		"words:a:ant": {MIMEType: "audio/webm;codecs=opus", Data: []byte("ant")},
		"words:b:bee": {MIMEType: "audio/mp4", Data: []byte("bee")},
	}
}

func TestPlayMissingKeyIsNoop(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	player := newGatedPlayer()
	c := playback.NewController(testSource(), player, dir, logging.NewNop())

	called := false
	if err := c.PlayRecordingForKey(context.Background(), "words:z:zebra", func() { called = true }); err != nil {
		t.Fatalf("expected no error for missing key, got %v", err)
	}
	if _, playing := c.Playing(); playing || called {
		t.Fatal("expected nothing to play")
	}
	if handleCount(t, dir) != 0 {
		t.Fatal("expected no handle for missing key")
	}
}

func TestNaturalEndReleasesHandleAndCallsOnEnded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	player := newGatedPlayer()
	c := playback.NewController(testSource(), player, dir, logging.NewNop())

	ended := make(chan struct{})
	if err := c.PlayRecordingForKey(context.Background(), "words:a:ant", func() { close(ended) }); err != nil {
		t.Fatalf("PlayRecordingForKey: %v", err)
	}
	path := waitStarted(t, player)
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "ant" {
		t.Fatalf("expected handle to hold the take, got %q err=%v", data, err)
	}
	if key, playing := c.Playing(); !playing || key != "words:a:ant" {
		t.Fatalf("expected ant to be playing, got %q %v", key, playing)
	}

	player.finish <- nil
	select {
	case <-ended:
	case <-time.After(5 * time.Second):
		t.Fatal("onEnded never called")
	}
	if handleCount(t, dir) != 0 {
		t.Fatal("expected handle released after natural end")
	}
	if _, playing := c.Playing(); playing {
		t.Fatal("expected nothing playing after end")
	}
}

func TestPlaybackErrorStillCallsOnEnded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	player := newGatedPlayer()
	c := playback.NewController(testSource(), player, dir, logging.NewNop())

	ended := make(chan struct{})
	if err := c.PlayRecordingForKey(context.Background(), "words:b:bee", func() { close(ended) }); err != nil {
		t.Fatalf("PlayRecordingForKey: %v", err)
	}
	waitStarted(t, player)
	player.finish <- errors.New("decode failure")
	select {
	case <-ended:
	case <-time.After(5 * time.Second):
		t.Fatal("onEnded not called after playback error")
	}
	if handleCount(t, dir) != 0 {
		t.Fatal("expected handle released after error")
	}
}

func TestNeverTwoLiveHandles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	player := newGatedPlayer()
	c := playback.NewController(testSource(), player, dir, logging.NewNop())

	var endedMu sync.Mutex
	ended := 0
	onEnded := func() {
		endedMu.Lock()
		ended++
		endedMu.Unlock()
	}

	keys := []string{"words:a:ant", "words:b:bee", "words:a:ant", "words:b:bee", "words:a:ant"}
	for _, key := range keys {
		if err := c.PlayRecordingForKey(context.Background(), key, onEnded); err != nil {
			t.Fatalf("PlayRecordingForKey(%s): %v", key, err)
		}
		waitStarted(t, player)
		if n := handleCount(t, dir); n != 1 {
			t.Fatalf("expected exactly one live handle, found %d", n)
		}
	}
	if player.peakLive() != 1 {
		t.Fatalf("expected at most one concurrent playback, peak was %d", player.peakLive())
	}

	c.StopPrevious()
	c.StopPrevious()
	if handleCount(t, dir) != 0 {
		t.Fatal("expected all handles released after stop")
	}
	endedMu.Lock()
	defer endedMu.Unlock()
	if ended != 0 {
		t.Fatalf("stopped playbacks must not report natural end, got %d", ended)
	}
}

func TestStopPreviousWithNothingPlaying(t *testing.T) {
	t.Parallel()

	c := playback.NewController(testSource(), playback.Silent{}, t.TempDir(), logging.NewNop())
	c.StopPrevious()
	c.StopPrevious()
}

func TestSilentPlayerEndsImmediately(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := playback.NewController(testSource(), playback.Silent{}, dir, logging.NewNop())
	ended := make(chan struct{})
	if err := c.PlayRecordingForKey(context.Background(), "words:a:ant", func() { close(ended) }); err != nil {
		t.Fatalf("PlayRecordingForKey: %v", err)
	}
	select {
	case <-ended:
	case <-time.After(5 * time.Second):
		t.Fatal("silent playback never ended")
	}
	if handleCount(t, dir) != 0 {
		t.Fatal("expected handle released")
	}
}
