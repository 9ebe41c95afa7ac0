package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateVoice(); err != nil {
		return err
	}
	if err := c.validateProbe(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateDatasets(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateVoice() error {
	if !c.Probe.Enabled && c.Voice.RootURL == "" {
		return nil
	}
	if c.Voice.RootURL == "" {
		return errors.New("voice.root_url must be set when probing is enabled")
	}
	parsed, err := url.Parse(c.Voice.RootURL)
	if err != nil {
		return fmt.Errorf("voice.root_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("voice.root_url must use http or https, got %q", c.Voice.RootURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("voice.root_url is missing a host: %q", c.Voice.RootURL)
	}
	return nil
}

func (c *Config) validateProbe() error {
	if c.Probe.TimeoutSeconds > maxProbeTimeoutSeconds {
		return fmt.Errorf("probe.timeout_seconds must be at most %d", maxProbeTimeoutSeconds)
	}
	if c.Probe.Concurrency < 0 {
		return errors.New("probe.concurrency must be zero (unbounded) or positive")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.SampleRate < minCaptureSampleRate || c.Capture.SampleRate > maxCaptureSampleRate {
		return fmt.Errorf("capture.sample_rate must be between %d and %d", minCaptureSampleRate, maxCaptureSampleRate)
	}
	if c.Capture.Channels < 1 || c.Capture.Channels > maxCaptureChannels {
		return fmt.Errorf("capture.channels must be between 1 and %d", maxCaptureChannels)
	}
	if c.Capture.MaxSeconds < 0 || c.Capture.MaxSeconds > maxCaptureSeconds {
		return fmt.Errorf("capture.max_seconds must be between 0 and %d", maxCaptureSeconds)
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.CompressionLevel < minExportCompressionLevel || c.Export.CompressionLevel > maxExportCompressionLevel {
		return fmt.Errorf("export.compression_level must be between %d and %d", minExportCompressionLevel, maxExportCompressionLevel)
	}
	if strings.ContainsAny(c.Export.FileName, `/\`) {
		return fmt.Errorf("export.file_name must be a bare file name, got %q", c.Export.FileName)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateDatasets() error {
	seen := make(map[string]struct{}, len(c.Datasets))
	for i, ds := range c.Datasets {
		if ds.Key == "" {
			return fmt.Errorf("datasets[%d].key must be set", i)
		}
		if strings.Contains(ds.Key, ":") {
			return fmt.Errorf("datasets[%d].key %q must not contain ':'", i, ds.Key)
		}
		if _, ok := seen[ds.Key]; ok {
			return fmt.Errorf("datasets[%d].key %q is declared more than once", i, ds.Key)
		}
		seen[ds.Key] = struct{}{}
		if len(ds.Items) == 0 {
			return fmt.Errorf("dataset %q has no items", ds.Key)
		}
	}
	return nil
}
