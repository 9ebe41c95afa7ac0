package capture_test

import (
	"errors"
	"testing"

	"lettervoice/internal/capture"
)

type fakePlatform struct {
	supported map[string]bool
	asked     []string
}

func (p *fakePlatform) IsTypeSupported(mimeType string) bool {
	p.asked = append(p.asked, mimeType)
	return p.supported[mimeType]
}

func (p *fakePlatform) NewRecorder(capture.Stream, string) (capture.Recorder, error) {
	return nil, errors.New("not used")
}

func TestNegotiatePrefersOpusInWebM(t *testing.T) {
	t.Parallel()

	p := &fakePlatform{supported: map[string]bool{
		"audio/webm;codecs=opus": true,
		"audio/webm":             true,
		"audio/mp4":              true,
	}}
	got, err := capture.Negotiate(p)
	if err != nil {
		t.Fatalf("Negotiate: %v", err)
	}
	if got != "audio/webm;codecs=opus" {
		t.Fatalf("expected opus in webm, got %q", got)
	}
	if len(p.asked) != 1 {
		t.Fatalf("expected negotiation to stop at first match, asked %v", p.asked)
	}
}

func TestNegotiateFallsBackInOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		supported map[string]bool
		want      string
		wantAsked []string
	}{
		{
			name:      "generic webm",
			supported: map[string]bool{"audio/webm": true, "audio/mp4": true},
			want:      "audio/webm",
			wantAsked: []string{"audio/webm;codecs=opus", "audio/webm"},
		},
		{
			name:      "mp4 last resort",
			supported: map[string]bool{"audio/mp4": true},
			want:      "audio/mp4",
			wantAsked: []string{"audio/webm;codecs=opus", "audio/webm", "audio/mp4"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &fakePlatform{supported: tt.supported}
			got, err := capture.Negotiate(p)
			if err != nil {
				t.Fatalf("Negotiate: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
			if len(p.asked) != len(tt.wantAsked) {
				t.Fatalf("expected probes %v, got %v", tt.wantAsked, p.asked)
			}
			for i := range tt.wantAsked {
				if p.asked[i] != tt.wantAsked[i] {
					t.Fatalf("expected probes %v, got %v", tt.wantAsked, p.asked)
				}
			}
		})
	}
}

func TestNegotiateNothingSupported(t *testing.T) {
	t.Parallel()

	if _, err := capture.Negotiate(&fakePlatform{}); !errors.Is(err, capture.ErrNoEncoder) {
		t.Fatalf("expected ErrNoEncoder, got %v", err)
	}
	if _, err := capture.Negotiate(nil); !errors.Is(err, capture.ErrNoEncoder) {
		t.Fatalf("expected ErrNoEncoder for nil platform, got %v", err)
	}
}

func TestPreferredTypesOrder(t *testing.T) {
	t.Parallel()

	want := []string{"audio/webm;codecs=opus", "audio/webm", "audio/mp4"}
	if len(capture.PreferredTypes) != len(want) {
		t.Fatalf("unexpected preference list %v", capture.PreferredTypes)
	}
	for i := range want {
		if capture.PreferredTypes[i] != want[i] {
			t.Fatalf("unexpected preference list %v", capture.PreferredTypes)
		}
	}
}
