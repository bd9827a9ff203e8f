package transcribe

import (
	"context"
	"strings"
	"testing"

	"github.com/kapu/voice-chess-go/internal/fault"
)

func TestTranscribeNotConfigured(t *testing.T) {
	c := NewGroqClient("", "whisper-large-v3", nil)
	_, err := c.Transcribe(context.Background(), AudioClip{Data: []byte("audio")})
	if fault.ReasonOf(err) != fault.ReasonNotConfigured {
		t.Fatalf("reason = %q, want not_configured", fault.ReasonOf(err))
	}
	if fault.KindOf(err) != fault.KindTranscription {
		t.Fatalf("kind = %v, want KindTranscription", fault.KindOf(err))
	}
}

func TestTranscribeEmptyPayload(t *testing.T) {
	c := NewGroqClient("key", "whisper-large-v3", nil)
	_, err := c.Transcribe(context.Background(), AudioClip{})
	if fault.ReasonOf(err) != fault.ReasonEmptyAudio {
		t.Fatalf("reason = %q, want empty_audio", fault.ReasonOf(err))
	}
}

func TestExtensionFor(t *testing.T) {
	cases := []struct {
		contentType string
		want        string
	}{
		{"audio/mp3", "mp3"},
		{"audio/mp3; rate=44100", "mp3"},
		{"audio/mp4", "m4a"},
		{"audio/m4a", "m4a"},
		{"audio/wav", "wav"},
		{"audio/ogg", "ogg"},
		{"audio/webm", "webm"},
		{"application/octet-stream", "webm"},
		{"", "webm"},
	}
	for _, tc := range cases {
		if got := extensionFor(tc.contentType); got != tc.want {
			t.Fatalf("extensionFor(%q) = %q, want %q", tc.contentType, got, tc.want)
		}
	}
}

func TestBuildForm(t *testing.T) {
	c := NewGroqClient("key", "whisper-large-v3", nil)
	body, contentType, err := c.buildForm(AudioClip{
		Data:        []byte{0x1a, 0x45, 0xdf, 0xa3},
		ContentType: "audio/webm",
	})
	if err != nil {
		t.Fatalf("buildForm: %v", err)
	}
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		t.Fatalf("content type = %q", contentType)
	}
	text := string(body)
	for _, want := range []string{
		`filename="audio.webm"`,
		`name="model"`,
		"whisper-large-v3",
		`name="response_format"`,
		`name="language"`,
		`name="temperature"`,
		`name="prompt"`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("form body missing %q", want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 3); got != "abc" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("ab", 3); got != "ab" {
		t.Fatalf("truncate = %q", got)
	}
}
