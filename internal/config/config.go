package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LogDir    string `toml:"log_dir"`
	LockDir   string `toml:"lock_dir"`
	ExportDir string `toml:"export_dir"`
}

// Voice describes the remote host serving existing voice assets.
type Voice struct {
	RootURL string `toml:"root_url"`
}

// Probe contains configuration for the asset existence prober.
type Probe struct {
	Enabled        bool   `toml:"enabled"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	Concurrency    int    `toml:"concurrency"` // 0 probes every path at once
	UserAgent      string `toml:"user_agent"`
}

// Capture contains configuration for microphone capture through ffmpeg.
type Capture struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	InputFormat  string `toml:"input_format"`
	InputDevice  string `toml:"input_device"`
	SampleRate   int    `toml:"sample_rate"`
	Channels     int    `toml:"channels"`
	MaxSeconds   int    `toml:"max_seconds"`
}

// Playback contains configuration for take playback.
type Playback struct {
	Enabled      bool   `toml:"enabled"`
	FFplayBinary string `toml:"ffplay_binary"`
}

// Export contains configuration for the bulk zip export.
type Export struct {
	FileName         string `toml:"file_name"`
	CompressionLevel int    `toml:"compression_level"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// DatasetItem is one raw entry of a configured dataset.
type DatasetItem struct {
	Letter       string `toml:"letter"`
	Name         string `toml:"name"`
	DownloadPath string `toml:"download_path"`
	VoicePath    string `toml:"voice_path"`
	ImagePath    string `toml:"image_path"`
}

// Dataset is a configured, ordered collection of recordable items.
type Dataset struct {
	Key         string        `toml:"key"`
	Label       string        `toml:"label"`
	Description string        `toml:"description"`
	Items       []DatasetItem `toml:"items"`
}

// Config encapsulates all configuration values for lettervoice.
//
// Configuration sections by subsystem:
//   - Paths: log, lock, and export directories
//   - Voice: remote host holding already published voice assets
//   - Probe: existence probing timeouts and parallelism
//   - Capture: ffmpeg microphone capture settings
//   - Playback: ffplay settings for hearing takes back
//   - Export: zip archive naming and compression
//   - Logging: log format and level
//   - Datasets: recordable item lists (built-in lists when empty)
type Config struct {
	Paths    Paths     `toml:"paths"`
	Voice    Voice     `toml:"voice"`
	Probe    Probe     `toml:"probe"`
	Capture  Capture   `toml:"capture"`
	Playback Playback  `toml:"playback"`
	Export   Export    `toml:"export"`
	Logging  Logging   `toml:"logging"`
	Datasets []Dataset `toml:"datasets"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lettervoice/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lettervoice.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and lock directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.LockDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ExportPath returns the absolute destination of the bulk export archive.
func (c *Config) ExportPath() string {
	return filepath.Join(c.Paths.ExportDir, c.Export.FileName)
}

// LockPath returns the operator lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LockDir, "lettervoice.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
