package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"lettervoice/internal/config"
	"lettervoice/internal/logging"
	"lettervoice/internal/services"
)

const (
	alsaDeviceDir      = "/dev/snd"
	capabilityTimeout  = 10 * time.Second
	defaultInputFormat = "pulse"
)

// FFmpeg captures through an ffmpeg binary. It implements both MediaDevices
// and Platform.
type FFmpeg struct {
	binary      string
	inputFormat string
	inputDevice string
	sampleRate  int
	channels    int
	maxSeconds  int
	logger      *slog.Logger

	// accessCheck reports whether the ALSA device tree is usable.
	accessCheck func(path string) error

	capsOnce sync.Once
	caps     capabilities
	capsErr  error
}

// NewFFmpeg builds the ffmpeg backend from the capture configuration.
func NewFFmpeg(cfg *config.Config, logger *slog.Logger) *FFmpeg {
	f := &FFmpeg{
		binary:      "ffmpeg",
		inputFormat: defaultInputFormat,
		inputDevice: "default",
		logger:      logging.NewComponentLogger(logger, "capture"),
		accessCheck: func(path string) error {
			return unix.Access(path, unix.R_OK|unix.W_OK)
		},
	}
	if cfg != nil {
		if bin := strings.TrimSpace(cfg.Capture.FFmpegBinary); bin != "" {
			f.binary = bin
		}
		if format := strings.TrimSpace(cfg.Capture.InputFormat); format != "" {
			f.inputFormat = format
		}
		if device := strings.TrimSpace(cfg.Capture.InputDevice); device != "" {
			f.inputDevice = device
		}
		f.sampleRate = cfg.Capture.SampleRate
		f.channels = cfg.Capture.Channels
		f.maxSeconds = cfg.Capture.MaxSeconds
	}
	return f
}

// Binary returns the ffmpeg executable in use.
func (f *FFmpeg) Binary() string {
	return f.binary
}

// Acquire checks that the configured input can be opened and returns a
// stream handle for it. ALSA inputs require read/write access to /dev/snd.
func (f *FFmpeg) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(f.binary); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "capture", "acquire",
			fmt.Sprintf("ffmpeg binary %q not found", f.binary), err)
	}
	if f.inputFormat == "alsa" {
		if err := f.accessCheck(alsaDeviceDir); err != nil {
			marker := services.ErrCapture
			if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) {
				marker = services.ErrPermission
			}
			return nil, services.Wrap(marker, "capture", "acquire",
				"sound devices are not accessible", err)
		}
	}
	stream := &deviceStream{format: f.inputFormat, device: f.inputDevice}
	f.logger.Debug("microphone acquired",
		logging.String("input_format", f.inputFormat),
		logging.String("input_device", f.inputDevice),
	)
	return stream, nil
}

// IsTypeSupported reports whether ffmpeg can encode mimeType. Capabilities are
// read once per backend.
func (f *FFmpeg) IsTypeSupported(mimeType string) bool {
	f.capsOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), capabilityTimeout)
		defer cancel()
		f.caps, f.capsErr = f.readCapabilities(ctx)
		if f.capsErr != nil {
			logging.WarnWithContext(f.logger, "ffmpeg capability check failed", "capture_capabilities_failed",
				logging.Error(f.capsErr),
				logging.String(logging.FieldErrorHint, "verify ffmpeg is installed and runs"),
				logging.String(logging.FieldImpact, "recording is unavailable"),
			)
		}
	})
	if f.capsErr != nil {
		return false
	}
	return f.caps.supports(mimeType)
}

func (f *FFmpeg) readCapabilities(ctx context.Context) (capabilities, error) {
	muxers, err := f.list(ctx, "-muxers")
	if err != nil {
		return capabilities{}, err
	}
	encoders, err := f.list(ctx, "-encoders")
	if err != nil {
		return capabilities{}, err
	}
	return capabilities{muxers: parseMuxers(muxers), encoders: parseEncoders(encoders)}, nil
}

func (f *FFmpeg) list(ctx context.Context, flag string) (string, error) {
	cmd := exec.CommandContext(ctx, f.binary, "-hide_banner", flag)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("ffmpeg %s: %w: %s", flag, err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// NewRecorder builds a recorder for the negotiated type.
func (f *FFmpeg) NewRecorder(stream Stream, mimeType string) (Recorder, error) {
	ds, ok := stream.(*deviceStream)
	if !ok || ds == nil {
		return nil, fmt.Errorf("ffmpeg recorder: unsupported stream %T", stream)
	}
	if ds.released() {
		return nil, errors.New("ffmpeg recorder: stream already released")
	}
	if !f.IsTypeSupported(mimeType) {
		return nil, fmt.Errorf("ffmpeg recorder: %w: %s", ErrNoEncoder, mimeType)
	}
	args, err := f.encodeArgs(ds, mimeType)
	if err != nil {
		return nil, err
	}
	return &ffmpegRecorder{
		binary:   f.binary,
		args:     args,
		mimeType: mimeType,
		logger:   f.logger,
	}, nil
}

func (f *FFmpeg) encodeArgs(ds *deviceStream, mimeType string) ([]string, error) {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin",
		"-f", ds.format, "-i", ds.device}
	if f.channels > 0 {
		args = append(args, "-ac", strconv.Itoa(f.channels))
	}
	if f.sampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(f.sampleRate))
	}
	if f.maxSeconds > 0 {
		args = append(args, "-t", strconv.Itoa(f.maxSeconds))
	}

	var (
		codec string
		muxer []string
	)
	switch normalizeMIME(mimeType) {
	case "audio/webm;codecs=opus":
		codec, muxer = f.caps.opusEncoder(), []string{"-f", "webm"}
	case "audio/webm":
		codec, muxer = f.caps.webmEncoder(), []string{"-f", "webm"}
	case "audio/mp4":
		codec, muxer = "aac", []string{"-movflags", "frag_keyframe+empty_moov", "-f", "mp4"}
	}
	if codec == "" {
		return nil, fmt.Errorf("ffmpeg recorder: %w: %s", ErrNoEncoder, mimeType)
	}
	args = append(args, "-c:a", codec)
	args = append(args, muxer...)
	return append(args, "pipe:1"), nil
}

type deviceStream struct {
	format string
	device string

	mu   sync.Mutex
	done bool
}

func (s *deviceStream) Release() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
}

func (s *deviceStream) released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}
