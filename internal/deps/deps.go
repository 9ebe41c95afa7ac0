package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"lettervoice/internal/config"
)

// Requirement defines an external binary lettervoice relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Requirements lists the binaries the configuration needs. ffplay is optional
// when playback is disabled.
func Requirements(cfg *config.Config) []Requirement {
	ffmpeg, ffplay := "ffmpeg", "ffplay"
	playbackOptional := false
	if cfg != nil {
		if bin := strings.TrimSpace(cfg.Capture.FFmpegBinary); bin != "" {
			ffmpeg = bin
		}
		if bin := strings.TrimSpace(cfg.Playback.FFplayBinary); bin != "" {
			ffplay = bin
		}
		playbackOptional = !cfg.Playback.Enabled
	}
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, Description: "Microphone capture and encoding"},
		{Name: "FFplay", Command: ffplay, Description: "Playback of recorded takes", Optional: playbackOptional},
	}
}
