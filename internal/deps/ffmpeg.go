package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFplay finds the ffplay binary to use for playback.
//
// FFmpeg builds ship ffplay beside ffmpeg, so an ffplay next to the resolved
// ffmpeg executable wins over one found on PATH. An explicitly configured
// ffplay other than the bare name is used as given.
func ResolveFFplay(ffmpegCommand, ffplayCommand string) Status {
	result := Status{
		Name:        "FFplay",
		Description: "Playback of recorded takes",
	}

	ffplayName := strings.TrimSpace(ffplayCommand)
	if ffplayName == "" {
		ffplayName = "ffplay"
	}
	if ffplayName != "ffplay" {
		result.Command = ffplayName
		if _, err := exec.LookPath(ffplayName); err != nil {
			result.Detail = fmt.Sprintf("binary %q not found", ffplayName)
			return result
		}
		result.Available = true
		return result
	}

	ffmpegBinary := strings.TrimSpace(ffmpegCommand)
	if ffmpegBinary != "" {
		if resolved, err := exec.LookPath(ffmpegBinary); err == nil {
			if candidate, ok := siblingCandidate(resolved, "ffplay"); ok {
				if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
					result.Command = candidate
					result.Available = true
					return result
				}
			}
		}
	}

	if ffplayPath, err := exec.LookPath(ffplayName); err == nil {
		result.Command = ffplayPath
		result.Available = true
		return result
	}

	result.Command = ffplayName
	result.Available = false
	result.Detail = fmt.Sprintf("binary %q not found", ffplayName)
	return result
}

func siblingCandidate(binaryPath, name string) (string, bool) {
	if binaryPath == "" {
		return "", false
	}
	dir := filepath.Dir(binaryPath)
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(dir, name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
