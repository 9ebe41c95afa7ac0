package config

const (
	defaultLogDir              = "~/.local/share/lettervoice/logs"
	defaultLockDir             = "~/.local/share/lettervoice"
	defaultExportDir           = "."
	defaultVoiceRootURL        = "http://localhost:3000/bee_letters/assets/voice"
	defaultProbeTimeoutSeconds = 10
	defaultProbeUserAgent      = "lettervoice/dev"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFplayBinary        = "ffplay"
	defaultCaptureInputFormat  = "pulse"
	defaultCaptureInputDevice  = "default"
	defaultCaptureSampleRate   = 48000
	defaultCaptureChannels     = 1
	defaultCaptureMaxSeconds   = 30
	defaultExportFileName      = "sounds.zip"
	defaultExportCompression   = 6
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	maxCaptureSeconds          = 600
	maxExportCompressionLevel  = 9
	minExportCompressionLevel  = -1
	maxProbeTimeoutSeconds     = 300
	maxCaptureSampleRate       = 192000
	minCaptureSampleRate       = 8000
	maxCaptureChannels         = 2
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:    defaultLogDir,
			LockDir:   defaultLockDir,
			ExportDir: defaultExportDir,
		},
		Voice: Voice{
			RootURL: defaultVoiceRootURL,
		},
		Probe: Probe{
			Enabled:        true,
			TimeoutSeconds: defaultProbeTimeoutSeconds,
			UserAgent:      defaultProbeUserAgent,
		},
		Capture: Capture{
			FFmpegBinary: defaultFFmpegBinary,
			InputFormat:  defaultCaptureInputFormat,
			InputDevice:  defaultCaptureInputDevice,
			SampleRate:   defaultCaptureSampleRate,
			Channels:     defaultCaptureChannels,
			MaxSeconds:   defaultCaptureMaxSeconds,
		},
		Playback: Playback{
			Enabled:      true,
			FFplayBinary: defaultFFplayBinary,
		},
		Export: Export{
			FileName:         defaultExportFileName,
			CompressionLevel: defaultExportCompression,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
