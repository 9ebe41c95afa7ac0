package session

import (
	"bytes"
	"context"
	"sync"
	"time"

	"lettervoice/internal/capture"
	"lettervoice/internal/catalog"
	"lettervoice/internal/logging"
	"lettervoice/internal/recordings"
	"lettervoice/internal/services"
)

// take is one capture attempt. Chunks arrive from the recorder goroutine.
type take struct {
	item     catalog.Item
	stream   capture.Stream
	recorder capture.Recorder
	mimeType string
	ctx      context.Context

	mu     sync.Mutex
	chunks [][]byte
}

func (t *take) append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	t.mu.Lock()
	t.chunks = append(t.chunks, chunk)
	t.mu.Unlock()
}

func (t *take) data() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return bytes.Join(t.chunks, nil)
}

// RequestStartRecording begins capturing the current item. It returns ErrBusy
// while a capture is starting or running, and ErrNoItems when nothing is
// visible. Acquisition or encoder failures return the session to idle,
// disable capture, and are returned wrapped in services.ErrCapture.
func (s *Session) RequestStartRecording(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.captureDisabled {
		s.mu.Unlock()
		return ErrCaptureDisabled
	}
	item, ok := s.currentItemLocked()
	if !ok {
		s.mu.Unlock()
		return ErrNoItems
	}
	s.transitionLocked(StateStarting, StateIdle)
	takeCtx := services.WithRecordingKey(services.WithDatasetKey(s.Context(ctx), item.DatasetKey), item.RecordingKey)
	t := &take{item: item, ctx: context.WithoutCancel(takeCtx)}
	s.take = t
	s.status = ""
	s.mu.Unlock()

	if s.playback != nil {
		s.playback.StopPrevious()
	}

	if err := s.startTake(ctx, t); err != nil {
		s.abortStart(t, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.take != t || s.state != StateStarting {
		// The recorder already finished on its own.
		return nil
	}
	s.transitionLocked(StateRecording, StateStarting)
	s.status = StatusRecording
	s.logger.Info("recording started",
		logging.String(logging.FieldEventType, "recording_started"),
		logging.String(logging.FieldRecordingKey, item.RecordingKey),
		logging.String("mime_type", t.mimeType),
	)
	return nil
}

func (s *Session) startTake(ctx context.Context, t *take) error {
	if s.devices == nil || s.platform == nil {
		return services.Wrap(services.ErrCapture, "session", "start", "no capture backend configured", nil)
	}
	stream, err := s.devices.Acquire(ctx)
	if err != nil {
		return wrapCaptureError("acquire microphone", err)
	}
	t.stream = stream

	mimeType, err := capture.Negotiate(s.platform)
	if err != nil {
		return wrapCaptureError("negotiate encoder", err)
	}
	t.mimeType = mimeType

	recorder, err := s.platform.NewRecorder(stream, mimeType)
	if err != nil {
		return wrapCaptureError("create recorder", err)
	}
	t.recorder = recorder

	if err := recorder.Start(t.ctx, t.append, func(err error) { s.finishTake(t, err) }); err != nil {
		t.recorder = nil
		return wrapCaptureError("start recorder", err)
	}
	return nil
}

func (s *Session) abortStart(t *take, err error) {
	if t.stream != nil {
		t.stream.Release()
	}
	s.mu.Lock()
	if s.take == t {
		s.take = nil
	}
	s.transitionLocked(StateIdle, StateStarting)
	s.captureDisabled = true
	s.status = services.StatusText(err)
	s.mu.Unlock()

	logging.WarnWithContext(s.logger, "recording could not start", "recording_start_failed",
		logging.String(logging.FieldRecordingKey, t.item.RecordingKey),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check microphone access, then retry capture"),
		logging.String(logging.FieldImpact, "capture disabled until retried"),
	)
}

// RequestStop ends the running capture. It returns after the take has been
// stored and the session is idle again. Outside of recording it does nothing.
func (s *Session) RequestStop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateRecording || s.take == nil || s.take.recorder == nil {
		s.mu.Unlock()
		return nil
	}
	recorder := s.take.recorder
	s.mu.Unlock()

	if err := recorder.Stop(); err != nil {
		return services.Wrap(services.ErrCapture, "session", "stop", "", err)
	}
	return nil
}

// Toggle starts a capture when idle and stops it while recording. It is
// ignored while a capture is starting.
func (s *Session) Toggle(ctx context.Context) error {
	switch s.State() {
	case StateIdle:
		return s.RequestStartRecording(ctx)
	case StateRecording:
		return s.RequestStop(ctx)
	default:
		return nil
	}
}

// finishTake runs once per take when its recorder is done, whether stopped
// by the operator or on its own.
func (s *Session) finishTake(t *take, recErr error) {
	if t.stream != nil {
		t.stream.Release()
	}

	s.mu.Lock()
	if s.take != t {
		s.mu.Unlock()
		return
	}
	s.take = nil
	s.transitionLocked(StateIdle, StateStarting, StateRecording)
	s.mu.Unlock()

	key := t.item.RecordingKey
	data := t.data()
	if recErr != nil || len(data) == 0 {
		err := recErr
		if err == nil {
			err = services.Wrap(services.ErrCapture, "session", "finish", "recorder produced no audio", nil)
		} else {
			err = wrapCaptureError("finish", err)
		}
		s.setStatus(services.StatusText(err))
		logging.WarnWithContext(s.logger, "recording discarded", "recording_failed",
			logging.String(logging.FieldRecordingKey, key),
			logging.Error(err),
			logging.String(logging.FieldImpact, "take was not stored"),
		)
		return
	}

	blob := recordings.Blob{MIMEType: t.mimeType, Data: data, CapturedAt: time.Now()}
	if err := s.store.Put(t.ctx, key, blob); err != nil {
		s.setStatus(services.StatusText(services.ErrCapture))
		logging.ErrorWithContext(s.logger, "recording could not be stored", "recording_store_failed",
			logging.String(logging.FieldRecordingKey, key),
			logging.Error(err),
		)
		return
	}
	s.setStatus(StatusRecorded)
	s.logger.Info("recording stored",
		logging.String(logging.FieldEventType, "recording_stored"),
		logging.String(logging.FieldRecordingKey, key),
		logging.Int("bytes", len(data)),
		logging.String("mime_type", t.mimeType),
	)

	s.AutoPlayAndAdvance(t.ctx, key)
}

func (s *Session) setStatus(status string) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}
