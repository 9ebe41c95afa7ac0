package capture

import (
	"context"
	"errors"
)

// PreferredTypes is the encoder negotiation order. The first type the
// platform supports wins.
var PreferredTypes = []string{
	"audio/webm;codecs=opus",
	"audio/webm",
	"audio/mp4",
}

// ErrNoEncoder reports that the platform supports none of PreferredTypes.
var ErrNoEncoder = errors.New("no supported audio encoder")

// Stream is an acquired microphone. Release frees every underlying track and
// is safe to call more than once.
type Stream interface {
	Release()
}

// MediaDevices acquires microphone streams.
type MediaDevices interface {
	Acquire(ctx context.Context) (Stream, error)
}

// Recorder encodes one take from a stream.
type Recorder interface {
	// Start begins encoding. Chunks are passed to onData in order. done is
	// called exactly once after the final chunk, whether the take ended
	// through Stop or on its own.
	Start(ctx context.Context, onData func([]byte), done func(error)) error
	// Stop asks the recorder to finish and returns after done has run.
	Stop() error
	// MIMEType is the negotiated container and codec of the take.
	MIMEType() string
}

// Platform reports encoder capabilities and builds recorders.
type Platform interface {
	IsTypeSupported(mimeType string) bool
	NewRecorder(stream Stream, mimeType string) (Recorder, error)
}

// Negotiate returns the first of PreferredTypes the platform supports.
func Negotiate(platform Platform) (string, error) {
	if platform == nil {
		return "", ErrNoEncoder
	}
	for _, mimeType := range PreferredTypes {
		if platform.IsTypeSupported(mimeType) {
			return mimeType, nil
		}
	}
	return "", ErrNoEncoder
}
