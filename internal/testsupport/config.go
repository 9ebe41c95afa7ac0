package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"lettervoice/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Probing is disabled and the built-in datasets are used unless options say
// otherwise.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LockDir = filepath.Join(base, "lock")
	cfgVal.Paths.ExportDir = filepath.Join(base, "export")
	cfgVal.Probe.Enabled = false
	cfgVal.Probe.TimeoutSeconds = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithVoiceRoot enables probing against the given root URL.
func WithVoiceRoot(rootURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Voice.RootURL = rootURL
		b.cfg.Probe.Enabled = true
	}
}

// WithDataset appends a dataset built from "letter/name" pairs. Each item is
// stored at "<letter>/<name>.webm".
func WithDataset(key string, pairs ...[2]string) ConfigOption {
	return func(b *configBuilder) {
		ds := config.Dataset{Key: key, Label: key}
		for _, pair := range pairs {
			ds.Items = append(ds.Items, config.DatasetItem{
				Letter:       pair[0],
				Name:         pair[1],
				DownloadPath: pair[0] + "/" + pair[1] + ".webm",
			})
		}
		b.cfg.Datasets = append(b.cfg.Datasets, ds)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffplay are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffplay"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
