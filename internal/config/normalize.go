package config

import (
	"fmt"
	"path"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVoice()
	c.normalizeProbe()
	c.normalizeCapture()
	c.normalizePlayback()
	c.normalizeExport()
	c.normalizeLogging()
	c.normalizeDatasets()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LockDir) == "" {
		c.Paths.LockDir = defaultLockDir
	}
	if c.Paths.LockDir, err = expandPath(c.Paths.LockDir); err != nil {
		return fmt.Errorf("paths.lock_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ExportDir) == "" {
		c.Paths.ExportDir = defaultExportDir
	}
	if c.Paths.ExportDir, err = expandPath(c.Paths.ExportDir); err != nil {
		return fmt.Errorf("paths.export_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeVoice() {
	c.Voice.RootURL = strings.TrimRight(strings.TrimSpace(c.Voice.RootURL), "/")
}

func (c *Config) normalizeProbe() {
	if c.Probe.TimeoutSeconds <= 0 {
		c.Probe.TimeoutSeconds = defaultProbeTimeoutSeconds
	}
	c.Probe.UserAgent = strings.TrimSpace(c.Probe.UserAgent)
	if c.Probe.UserAgent == "" {
		c.Probe.UserAgent = defaultProbeUserAgent
	}
}

func (c *Config) normalizeCapture() {
	c.Capture.FFmpegBinary = strings.TrimSpace(c.Capture.FFmpegBinary)
	if c.Capture.FFmpegBinary == "" {
		c.Capture.FFmpegBinary = defaultFFmpegBinary
	}
	c.Capture.InputFormat = strings.ToLower(strings.TrimSpace(c.Capture.InputFormat))
	if c.Capture.InputFormat == "" {
		c.Capture.InputFormat = defaultCaptureInputFormat
	}
	c.Capture.InputDevice = strings.TrimSpace(c.Capture.InputDevice)
	if c.Capture.InputDevice == "" {
		c.Capture.InputDevice = defaultCaptureInputDevice
	}
	if c.Capture.SampleRate == 0 {
		c.Capture.SampleRate = defaultCaptureSampleRate
	}
	if c.Capture.Channels == 0 {
		c.Capture.Channels = defaultCaptureChannels
	}
	if c.Capture.MaxSeconds == 0 {
		c.Capture.MaxSeconds = defaultCaptureMaxSeconds
	}
}

func (c *Config) normalizePlayback() {
	c.Playback.FFplayBinary = strings.TrimSpace(c.Playback.FFplayBinary)
	if c.Playback.FFplayBinary == "" {
		c.Playback.FFplayBinary = defaultFFplayBinary
	}
}

func (c *Config) normalizeExport() {
	c.Export.FileName = strings.TrimSpace(c.Export.FileName)
	if c.Export.FileName == "" {
		c.Export.FileName = defaultExportFileName
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeDatasets() {
	for i := range c.Datasets {
		ds := &c.Datasets[i]
		ds.Key = strings.TrimSpace(ds.Key)
		ds.Label = strings.TrimSpace(ds.Label)
		ds.Description = strings.TrimSpace(ds.Description)
		for j := range ds.Items {
			item := &ds.Items[j]
			item.Letter = strings.ToLower(strings.TrimSpace(item.Letter))
			item.Name = strings.TrimSpace(item.Name)
			item.DownloadPath = cleanAssetPath(item.DownloadPath)
			item.VoicePath = cleanAssetPath(item.VoicePath)
			item.ImagePath = strings.TrimSpace(item.ImagePath)
		}
	}
}

// cleanAssetPath keeps asset paths relative and slash separated so they can
// double as archive entry names.
func cleanAssetPath(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "\\", "/"))
	if value == "" {
		return ""
	}
	cleaned := strings.TrimLeft(path.Clean("/"+value), "/")
	if cleaned == "." {
		return ""
	}
	return cleaned
}
