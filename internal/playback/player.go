package playback

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"lettervoice/internal/config"
)

// Player plays one audio file and returns when playback ends. Cancelling ctx
// stops playback early.
type Player interface {
	Play(ctx context.Context, path string) error
}

// FFplay plays files through ffplay without a display window.
type FFplay struct {
	Binary string
}

// Play runs ffplay until the file ends.
func (p FFplay) Play(ctx context.Context, path string) error {
	binary := strings.TrimSpace(p.Binary)
	if binary == "" {
		binary = "ffplay"
	}
	cmd := exec.CommandContext(ctx, binary, "-nodisp", "-autoexit", "-hide_banner", "-loglevel", "error", path)
	output, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("ffplay: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Silent is a Player that finishes immediately. It keeps auto-advance
// working when audible playback is disabled.
type Silent struct{}

// Play returns at once.
func (Silent) Play(ctx context.Context, _ string) error {
	return ctx.Err()
}

// NewPlayer selects the player for the configuration.
func NewPlayer(cfg *config.Config) Player {
	if cfg == nil || !cfg.Playback.Enabled {
		return Silent{}
	}
	return FFplay{Binary: cfg.Playback.FFplayBinary}
}
