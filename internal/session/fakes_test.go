package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"lettervoice/internal/capture"
	"lettervoice/internal/catalog"
	"lettervoice/internal/logging"
	"lettervoice/internal/probe"
	"lettervoice/internal/recordings"
	"lettervoice/internal/session"
	"lettervoice/internal/testsupport"
)

type fakeStream struct {
	mu       sync.Mutex
	released int
}

func (s *fakeStream) Release() {
	s.mu.Lock()
	s.released++
	s.mu.Unlock()
}

func (s *fakeStream) releaseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

type fakeDevices struct {
	mu      sync.Mutex
	err     error
	gate    chan struct{}
	streams []*fakeStream
}

func (d *fakeDevices) Acquire(ctx context.Context) (capture.Stream, error) {
	d.mu.Lock()
	gate, err := d.gate, d.err
	d.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	stream := &fakeStream{}
	d.mu.Lock()
	d.streams = append(d.streams, stream)
	d.mu.Unlock()
	return stream, nil
}

func (d *fakeDevices) lastStream() *fakeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

type fakeRecorder struct {
	mimeType string
	onData   func([]byte)
	done     func(error)
	once     sync.Once
}

func (r *fakeRecorder) Start(_ context.Context, onData func([]byte), done func(error)) error {
	r.onData, r.done = onData, done
	return nil
}

func (r *fakeRecorder) Stop() error {
	r.finish(nil)
	return nil
}

func (r *fakeRecorder) MIMEType() string { return r.mimeType }

func (r *fakeRecorder) emit(chunk string) { r.onData([]byte(chunk)) }

func (r *fakeRecorder) finish(err error) {
	r.once.Do(func() { r.done(err) })
}

type fakePlatform struct {
	mu        sync.Mutex
	supported map[string]bool
	recorders []*fakeRecorder
}

func (p *fakePlatform) IsTypeSupported(mimeType string) bool {
	return p.supported[mimeType]
}

func (p *fakePlatform) NewRecorder(_ capture.Stream, mimeType string) (capture.Recorder, error) {
	rec := &fakeRecorder{mimeType: mimeType}
	p.mu.Lock()
	p.recorders = append(p.recorders, rec)
	p.mu.Unlock()
	return rec, nil
}

func (p *fakePlatform) lastRecorder(t *testing.T) *fakeRecorder {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.recorders) == 0 {
		t.Fatal("no recorder created")
	}
	return p.recorders[len(p.recorders)-1]
}

type playCall struct {
	key     string
	onEnded func()
}

type fakePlayback struct {
	mu      sync.Mutex
	calls   []playCall
	stopped int
}

func (p *fakePlayback) StopPrevious() {
	p.mu.Lock()
	p.stopped++
	p.mu.Unlock()
}

func (p *fakePlayback) PlayRecordingForKey(_ context.Context, key string, onEnded func()) error {
	p.mu.Lock()
	p.calls = append(p.calls, playCall{key: key, onEnded: onEnded})
	p.mu.Unlock()
	return nil
}

func (p *fakePlayback) last(t *testing.T) playCall {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.calls) == 0 {
		t.Fatal("nothing was played")
	}
	return p.calls[len(p.calls)-1]
}

type harness struct {
	session  *session.Session
	store    *recordings.Store
	devices  *fakeDevices
	platform *fakePlatform
	playback *fakePlayback
}

var allTypes = map[string]bool{
	"audio/webm;codecs=opus": true,
	"audio/webm":             true,
	"audio/mp4":              true,
}

func testDatasets(t *testing.T) []catalog.Dataset {
	t.Helper()
	words, err := catalog.DecorateItems([]catalog.RawItem{
		{Letter: "a", Name: "ant", DownloadPath: "a/ant.webm"},
		{Letter: "a", Name: "arrow", DownloadPath: "a/arrow.webm"},
		{Letter: "b", Name: "bee", DownloadPath: "b/bee.webm"},
		{Letter: "b", Name: "boat", DownloadPath: "b/boat.webm"},
		{Letter: "c", Name: "cat", DownloadPath: "c/cat.webm"},
	}, "words")
	if err != nil {
		t.Fatalf("DecorateItems: %v", err)
	}
	letters, err := catalog.DecorateItems([]catalog.RawItem{
		{Letter: "a", Name: "a", DownloadPath: "a.webm"},
		{Letter: "b", Name: "b", DownloadPath: "b.webm"},
	}, "letters")
	if err != nil {
		t.Fatalf("DecorateItems: %v", err)
	}
	return []catalog.Dataset{
		{Key: "words", Label: "Words", Items: words},
		{Key: "letters", Label: "Letters", Items: letters},
	}
}

func newHarness(t *testing.T, mutate ...func(*session.Options)) *harness {
	t.Helper()
	h := &harness{
		store:    testsupport.MustOpenRecordings(t),
		devices:  &fakeDevices{},
		platform: &fakePlatform{supported: allTypes},
		playback: &fakePlayback{},
	}
	opts := session.Options{
		Datasets: testDatasets(t),
		Index:    probe.NewIndex(),
		Store:    h.store,
		Devices:  h.devices,
		Platform: h.platform,
		Playback: h.playback,
		Logger:   logging.NewNop(),
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	s, err := session.New(opts)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	h.session = s
	return h
}

// record runs one full capture of the current item.
func (h *harness) record(t *testing.T, chunks ...string) {
	t.Helper()
	ctx := context.Background()
	if err := h.session.RequestStartRecording(ctx); err != nil {
		t.Fatalf("RequestStartRecording: %v", err)
	}
	rec := h.platform.lastRecorder(t)
	for _, chunk := range chunks {
		rec.emit(chunk)
	}
	if err := h.session.RequestStop(ctx); err != nil {
		t.Fatalf("RequestStop: %v", err)
	}
}

var errDenied = errors.New("denied")
