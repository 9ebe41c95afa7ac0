package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"lettervoice/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "lettervoice", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if !cfg.Probe.Enabled {
		t.Fatal("expected probing enabled by default")
	}
	if !cfg.Playback.Enabled {
		t.Fatal("expected playback enabled by default")
	}
	if cfg.Export.FileName != "sounds.zip" {
		t.Fatalf("unexpected export file name: %q", cfg.Export.FileName)
	}
	if cfg.Export.CompressionLevel != 6 {
		t.Fatalf("unexpected compression level: %d", cfg.Export.CompressionLevel)
	}
	if len(cfg.Datasets) != 0 {
		t.Fatalf("expected no configured datasets, got %d", len(cfg.Datasets))
	}
}

func TestLoadCustomConfigOverridesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := map[string]any{
		"voice":   map[string]any{"root_url": "https://cdn.example.com/voice/"},
		"probe":   map[string]any{"concurrency": 4, "timeout_seconds": 3},
		"capture": map[string]any{"input_format": " ALSA ", "input_device": "hw:1", "max_seconds": 12},
		"logging": map[string]any{"format": "JSON", "level": "Debug"},
		"paths":   map[string]any{"export_dir": "~/exports"},
		"datasets": []map[string]any{
			{
				"key":   "words",
				"label": "Words",
				"items": []map[string]any{
					{"letter": "A", "name": "ant", "download_path": "/a//ant.webm"},
				},
			},
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected config at %q to be used, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Voice.RootURL != "https://cdn.example.com/voice" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Voice.RootURL)
	}
	if cfg.Probe.Concurrency != 4 || cfg.Probe.TimeoutSeconds != 3 {
		t.Fatalf("unexpected probe settings: %+v", cfg.Probe)
	}
	if cfg.Capture.InputFormat != "alsa" || cfg.Capture.InputDevice != "hw:1" {
		t.Fatalf("unexpected capture settings: %+v", cfg.Capture)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging settings: %+v", cfg.Logging)
	}
	if cfg.Paths.ExportDir != filepath.Join(tempHome, "exports") {
		t.Fatalf("unexpected export dir: %q", cfg.Paths.ExportDir)
	}
	if cfg.ExportPath() != filepath.Join(tempHome, "exports", "sounds.zip") {
		t.Fatalf("unexpected export path: %q", cfg.ExportPath())
	}
	if len(cfg.Datasets) != 1 {
		t.Fatalf("expected one dataset, got %d", len(cfg.Datasets))
	}
	item := cfg.Datasets[0].Items[0]
	if item.Letter != "a" {
		t.Fatalf("expected lowercased letter, got %q", item.Letter)
	}
	if item.DownloadPath != "a/ant.webm" {
		t.Fatalf("expected cleaned download path, got %q", item.DownloadPath)
	}
}

func TestValidateRejectsInvalidSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:    "bad root url scheme",
			mutate:  func(c *config.Config) { c.Voice.RootURL = "ftp://example.com/voice" },
			wantErr: "voice.root_url",
		},
		{
			name:    "missing root url while probing",
			mutate:  func(c *config.Config) { c.Voice.RootURL = "" },
			wantErr: "voice.root_url must be set",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *config.Config) { c.Probe.Concurrency = -1 },
			wantErr: "probe.concurrency",
		},
		{
			name:    "compression out of range",
			mutate:  func(c *config.Config) { c.Export.CompressionLevel = 12 },
			wantErr: "export.compression_level",
		},
		{
			name:    "export file name with directory",
			mutate:  func(c *config.Config) { c.Export.FileName = "out/sounds.zip" },
			wantErr: "export.file_name",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *config.Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
		{
			name: "duplicate dataset keys",
			mutate: func(c *config.Config) {
				ds := config.Dataset{Key: "words", Items: []config.DatasetItem{{Letter: "a", Name: "ant", DownloadPath: "a/ant.webm"}}}
				c.Datasets = []config.Dataset{ds, ds}
			},
			wantErr: "declared more than once",
		},
		{
			name: "dataset key with separator",
			mutate: func(c *config.Config) {
				c.Datasets = []config.Dataset{{Key: "a:b", Items: []config.DatasetItem{{Letter: "a", Name: "ant"}}}}
			},
			wantErr: "must not contain",
		},
		{
			name: "empty dataset",
			mutate: func(c *config.Config) {
				c.Datasets = []config.Dataset{{Key: "words"}}
			},
			wantErr: "has no items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateSampleWritesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Capture.FFmpegBinary != "ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary from sample: %q", cfg.Capture.FFmpegBinary)
	}
}
