package session

import (
	"context"

	"lettervoice/internal/logging"
)

// AutoPlayAndAdvance makes the item with key current, plays its take, and
// after a natural end moves to the next item. The move happens only when the
// item was not the last one and the operator has not navigated, switched
// datasets, or started another capture since playback began.
func (s *Session) AutoPlayAndAdvance(ctx context.Context, key string) {
	s.mu.Lock()
	idx := -1
	for i, item := range s.items {
		if item.RecordingKey == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.current = idx
	generation := s.generation
	s.mu.Unlock()

	if s.playback == nil {
		s.advanceIfUnchanged(idx, generation)
		return
	}
	err := s.playback.PlayRecordingForKey(ctx, key, func() {
		s.advanceIfUnchanged(idx, generation)
	})
	if err != nil {
		logging.WarnWithContext(s.logger, "playback could not start", "playback_start_failed",
			logging.String(logging.FieldRecordingKey, key),
			logging.Error(err),
			logging.String(logging.FieldImpact, "auto-advance skipped"),
		)
	}
}

func (s *Session) advanceIfUnchanged(startIndex int, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle || s.generation != generation || s.current != startIndex {
		return
	}
	if startIndex >= len(s.items)-1 {
		return
	}
	s.current = startIndex + 1
	s.status = ""
}
