package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"lettervoice/internal/catalog"
	"lettervoice/internal/config"
	"lettervoice/internal/logging"
	"lettervoice/internal/probe"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// processLogger builds the logger once for commands that run outside a
// recording session.
func (c *commandContext) processLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		c.logger, c.loggerErr = logging.NewFromConfig(c.configValue(), "")
	})
	return c.logger, c.loggerErr
}

// sessionLogger builds a logger that stamps every line with sessionID.
func (c *commandContext) sessionLogger(sessionID string) (*slog.Logger, error) {
	return logging.NewFromConfig(c.configValue(), sessionID)
}

func (c *commandContext) datasets() ([]catalog.Dataset, error) {
	return catalog.BuildDatasets(c.configValue())
}

// assetIndex probes the voice host once when probing is enabled and force is
// unset; otherwise it returns an empty index.
func (c *commandContext) assetIndex(ctx context.Context, datasets []catalog.Dataset, force bool, logger *slog.Logger) (probe.Index, []probe.Result) {
	cfg := c.configValue()
	if cfg == nil || (!cfg.Probe.Enabled && !force) || strings.TrimSpace(cfg.Voice.RootURL) == "" {
		return probe.NewIndex(), nil
	}
	prober := probe.New(cfg, nil, logger)
	return prober.BuildIndex(ctx, catalog.VoicePaths(datasets))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
