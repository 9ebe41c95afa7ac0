package probe

import (
	"bytes"
	"net/http"
	"strings"
)

// Verdict is the outcome of inspecting one response.
type Verdict int

const (
	Inconclusive Verdict = iota
	Exists
	Absent
)

func (v Verdict) String() string {
	switch v {
	case Exists:
		return "exists"
	case Absent:
		return "absent"
	default:
		return "inconclusive"
	}
}

// ebmlSignature opens every Matroska/WebM file.
var ebmlSignature = []byte{0x1A, 0x45, 0xDF, 0xA3}

// ClassifyResponse applies the existence decision table. A nil firstBytes
// means no body was inspected (HEAD): an unsuccessful or ambiguous answer is
// then Inconclusive. With a body (ranged GET) the result is always conclusive.
func ClassifyResponse(status int, contentType string, firstBytes []byte) Verdict {
	success := isSuccess(status)
	media := isMediaType(contentType)

	switch {
	case success && media:
		return Exists
	case isHTML(contentType):
		return Absent
	case status == http.StatusNotFound || status == http.StatusGone:
		return Absent
	case firstBytes == nil:
		return Inconclusive
	case !success:
		return Absent
	case media:
		return Exists
	case len(firstBytes) >= len(ebmlSignature) && bytes.Equal(firstBytes[:len(ebmlSignature)], ebmlSignature):
		return Exists
	default:
		return Absent
	}
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func isMediaType(contentType string) bool {
	ct := mediaType(contentType)
	return strings.HasPrefix(ct, "audio/") ||
		strings.HasPrefix(ct, "video/") ||
		ct == "application/octet-stream"
}

func isHTML(contentType string) bool {
	ct := mediaType(contentType)
	return ct == "text/html" || ct == "application/xhtml+xml"
}

func mediaType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return ct
}
