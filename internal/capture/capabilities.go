package capture

import (
	"bufio"
	"strings"
)

// capabilities is the subset of ffmpeg's muxer and encoder lists relevant to
// negotiation.
type capabilities struct {
	muxers   map[string]bool
	encoders map[string]bool
}

func (c capabilities) supports(mimeType string) bool {
	switch normalizeMIME(mimeType) {
	case "audio/webm;codecs=opus":
		return c.muxers["webm"] && c.opusEncoder() != ""
	case "audio/webm":
		return c.muxers["webm"] && c.webmEncoder() != ""
	case "audio/mp4":
		return c.muxers["mp4"] && c.encoders["aac"]
	default:
		return false
	}
}

func (c capabilities) opusEncoder() string {
	for _, name := range []string{"libopus", "opus"} {
		if c.encoders[name] {
			return name
		}
	}
	return ""
}

func (c capabilities) webmEncoder() string {
	if enc := c.opusEncoder(); enc != "" {
		return enc
	}
	for _, name := range []string{"libvorbis", "vorbis"} {
		if c.encoders[name] {
			return name
		}
	}
	return ""
}

func normalizeMIME(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.ReplaceAll(mimeType, " ", "")
}

// parseMuxers reads `ffmpeg -muxers` output. Entries follow the "--" line as
// "<flags> <name[,name]> <description>".
func parseMuxers(output string) map[string]bool {
	return parseListing(output, func(flags string) bool {
		return strings.Contains(flags, "E")
	})
}

// parseEncoders reads `ffmpeg -encoders` output, keeping audio encoders only.
func parseEncoders(output string) map[string]bool {
	return parseListing(output, func(flags string) bool {
		return strings.HasPrefix(flags, "A")
	})
}

func parseListing(output string, keep func(flags string) bool) map[string]bool {
	names := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(output))
	inBody := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !inBody {
			if strings.HasPrefix(line, "--") {
				inBody = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || !keep(fields[0]) {
			continue
		}
		for _, name := range strings.Split(fields[1], ",") {
			if name = strings.TrimSpace(name); name != "" {
				names[name] = true
			}
		}
	}
	return names
}
