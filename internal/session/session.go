package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"lettervoice/internal/capture"
	"lettervoice/internal/catalog"
	"lettervoice/internal/logging"
	"lettervoice/internal/recordings"
	"lettervoice/internal/services"
)

// Store is the recording store used by a session.
type Store interface {
	Put(ctx context.Context, key string, blob recordings.Blob) error
	Has(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (recordings.Blob, bool, error)
	Len(ctx context.Context) (int, error)
}

// Playback plays takes one at a time.
type Playback interface {
	StopPrevious()
	PlayRecordingForKey(ctx context.Context, key string, onEnded func()) error
}

// Options configures a Session. When ID is set the caller's Logger is
// expected to carry it already; otherwise a fresh ID is generated and
// attached to the session logger.
type Options struct {
	ID           string
	Datasets     []catalog.Dataset
	Index        catalog.AssetIndex
	Store        Store
	Devices      capture.MediaDevices
	Platform     capture.Platform
	Playback     Playback
	Logger       *slog.Logger
	DatasetKey   string
	HideExisting bool
}

// Session is the recording controller for one operator.
type Session struct {
	id       string
	logger   *slog.Logger
	datasets []catalog.Dataset
	index    catalog.AssetIndex
	store    Store
	devices  capture.MediaDevices
	platform capture.Platform
	playback Playback

	mu              sync.Mutex
	state           State
	datasetKey      string
	items           []catalog.Item
	current         int
	generation      uint64
	hideExisting    bool
	captureDisabled bool
	status          string
	take            *take
}

// New builds a session showing the requested dataset, or the first one.
func New(opts Options) (*Session, error) {
	if len(opts.Datasets) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "session", "new", "no datasets", nil)
	}
	if opts.Store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "session", "new", "recording store is required", nil)
	}
	key := opts.DatasetKey
	if key == "" {
		key = opts.Datasets[0].Key
	}
	ds, ok := catalog.Find(opts.Datasets, key)
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "session", "new", fmt.Sprintf("dataset %q", key), nil)
	}

	id := strings.TrimSpace(opts.ID)
	logger := logging.NewComponentLogger(opts.Logger, "session")
	if id == "" {
		id = uuid.NewString()
		logger = logger.With(logging.String(logging.FieldSessionID, id))
	}
	s := &Session{
		id:           id,
		logger:       logger,
		datasets:     opts.Datasets,
		index:        opts.Index,
		store:        opts.Store,
		devices:      opts.Devices,
		platform:     opts.Platform,
		playback:     opts.Playback,
		state:        StateIdle,
		hideExisting: opts.HideExisting,
	}
	s.applyFilterLocked(ds, 0, "")
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Context returns ctx annotated with the session identifier.
func (s *Session) Context(ctx context.Context) context.Context {
	return services.WithSessionID(ctx, s.id)
}

// Datasets returns every dataset available to the session.
func (s *Session) Datasets() []catalog.Dataset {
	return s.datasets
}

// State returns the capture state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Items returns a copy of the visible list.
func (s *Session) Items() []catalog.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.Item(nil), s.items...)
}

// CurrentIndex returns the position of the current item in the visible list.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// CurrentItem returns the current item, if the visible list is not empty.
func (s *Session) CurrentItem() (catalog.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentItemLocked()
}

func (s *Session) currentItemLocked() (catalog.Item, bool) {
	if s.current < 0 || s.current >= len(s.items) {
		return catalog.Item{}, false
	}
	return s.items[s.current], true
}

// Next moves to the following item. It does nothing on the last item.
func (s *Session) Next() error {
	return s.move(1)
}

// Prev moves to the preceding item. It does nothing on the first item.
func (s *Session) Prev() error {
	return s.move(-1)
}

func (s *Session) move(delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrBusy
	}
	next := s.current + delta
	if next < 0 || next >= len(s.items) {
		return nil
	}
	s.current = next
	s.generation++
	s.status = ""
	return nil
}

// GoTo selects the item at position i of the visible list.
func (s *Session) GoTo(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrBusy
	}
	if i < 0 || i >= len(s.items) {
		return services.Wrap(services.ErrValidation, "session", "go to",
			fmt.Sprintf("item %d is out of range (1-%d)", i+1, len(s.items)), nil)
	}
	if s.current != i {
		s.generation++
	}
	s.current = i
	s.status = ""
	return nil
}

// SwitchDataset shows another dataset, starting at its first visible item.
func (s *Session) SwitchDataset(key string) error {
	ds, ok := catalog.Find(s.datasets, key)
	if !ok {
		return services.Wrap(services.ErrNotFound, "session", "switch dataset", fmt.Sprintf("dataset %q", key), nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrBusy
	}
	s.applyFilterLocked(ds, 0, "")
	s.status = ""
	s.logger.Debug("dataset switched",
		logging.String(logging.FieldDatasetKey, key),
		logging.Int("visible", len(s.items)),
	)
	return nil
}

// SetHideExisting toggles hiding items that already exist on the host. The
// current item stays selected when it remains visible.
func (s *Session) SetHideExisting(hide bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return ErrBusy
	}
	if hide == s.hideExisting {
		return nil
	}
	ds, _ := catalog.Find(s.datasets, s.datasetKey)
	preferred := ""
	if item, ok := s.currentItemLocked(); ok {
		preferred = item.RecordingKey
	}
	s.hideExisting = hide
	s.applyFilterLocked(ds, s.current, preferred)
	return nil
}

// HideExisting reports whether existing items are hidden.
func (s *Session) HideExisting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hideExisting
}

// DatasetKey returns the active dataset key.
func (s *Session) DatasetKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.datasetKey
}

func (s *Session) applyFilterLocked(ds catalog.Dataset, current int, preferred string) {
	s.datasetKey = ds.Key
	s.items, s.current = catalog.Filter(ds.Items, s.index, s.hideExisting, current, preferred)
	s.generation++
}

// PlayCurrent plays the take of the current item, if there is one.
func (s *Session) PlayCurrent(ctx context.Context) error {
	item, ok := s.CurrentItem()
	if !ok || s.playback == nil {
		return nil
	}
	return s.playback.PlayRecordingForKey(s.Context(ctx), item.RecordingKey, nil)
}

// CurrentTake returns the current item and its take.
func (s *Session) CurrentTake(ctx context.Context) (catalog.Item, recordings.Blob, bool, error) {
	item, ok := s.CurrentItem()
	if !ok {
		return catalog.Item{}, recordings.Blob{}, false, nil
	}
	blob, found, err := s.store.Get(ctx, item.RecordingKey)
	if err != nil {
		return item, recordings.Blob{}, false, err
	}
	return item, blob, found, nil
}

// CanExport reports whether at least one take exists.
func (s *Session) CanExport(ctx context.Context) (bool, error) {
	n, err := s.store.Len(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Progress counts recorded items against the visible list.
func (s *Session) Progress(ctx context.Context) (recorded, total int, err error) {
	items := s.Items()
	for _, item := range items {
		has, err := s.store.Has(ctx, item.RecordingKey)
		if err != nil {
			return 0, 0, err
		}
		if has {
			recorded++
		}
	}
	return recorded, len(items), nil
}

// ProgressText renders progress as "<recorded> / <total> recorded".
func (s *Session) ProgressText(ctx context.Context) (string, error) {
	recorded, total, err := s.Progress(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d / %d recorded", recorded, total), nil
}

// Item status labels.
const (
	StatusRecording   = "Recording..."
	StatusRecorded    = "Recorded"
	StatusNotRecorded = "Not recorded yet"
	StatusExists      = "Exists on host"
)

// ItemStatus describes an item: being recorded, recorded this session,
// already on the host, or not recorded.
func (s *Session) ItemStatus(ctx context.Context, item catalog.Item) (string, error) {
	s.mu.Lock()
	recording := s.take != nil && s.take.item.RecordingKey == item.RecordingKey && s.state == StateRecording
	s.mu.Unlock()
	if recording {
		return StatusRecording, nil
	}
	has, err := s.store.Has(ctx, item.RecordingKey)
	if err != nil {
		return "", err
	}
	switch {
	case has:
		return StatusRecorded, nil
	case s.index != nil && s.index.Has(item.VoicePath):
		return StatusExists, nil
	default:
		return StatusNotRecorded, nil
	}
}

// Status returns the last operator-facing message, such as a capture failure.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CaptureEnabled reports whether recording may be started.
func (s *Session) CaptureEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.captureDisabled
}

// DisableCapture turns off recording until RetryCapture, recording err as the
// status message.
func (s *Session) DisableCapture(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captureDisabled = true
	s.status = services.StatusText(err)
}

// RetryCapture re-enables recording after a capture failure.
func (s *Session) RetryCapture() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.captureDisabled {
		s.logger.Info("capture re-enabled", logging.String(logging.FieldEventType, "capture_retry"))
	}
	s.captureDisabled = false
	s.status = ""
}

// CheckMicrophone acquires and immediately releases the microphone. A failure
// disables capture.
func (s *Session) CheckMicrophone(ctx context.Context) error {
	if s.devices == nil {
		err := services.Wrap(services.ErrCapture, "session", "check microphone", "no capture device configured", nil)
		s.DisableCapture(err)
		return err
	}
	stream, err := s.devices.Acquire(ctx)
	if err != nil {
		err = wrapCaptureError("check microphone", err)
		s.DisableCapture(err)
		return err
	}
	stream.Release()
	return nil
}

func wrapCaptureError(operation string, err error) error {
	if errors.Is(err, services.ErrPermission) || errors.Is(err, services.ErrCapture) {
		return err
	}
	return services.Wrap(services.ErrCapture, "session", operation, "", err)
}
