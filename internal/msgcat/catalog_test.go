package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderEmbeddedKeys(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	msg, err := c.Render("move.illegal", map[string]any{"Transcript": "pawn e5", "UCI": "e2e5"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `Illegal move: Heard "pawn e5" but e2e5 is not a legal move in this position.`
	if msg != want {
		t.Fatalf("msg = %q, want %q", msg, want)
	}

	for _, key := range []string{
		"session.not_found", "audio.empty",
		"transcribe.not_configured", "transcribe.timeout", "transcribe.network", "transcribe.no_text",
		"interpret.failed", "interpret.no_move",
		"move.unparseable",
		"engine.no_move", "engine.failed",
		"speech.not_configured", "speech.failed",
	} {
		if _, err := c.Render(key, map[string]any{"Transcript": "x"}); err != nil {
			t.Fatalf("Render(%s): %v", key, err)
		}
	}
}

func TestRenderMissingKey(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Render("no.such.key", nil); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	override := "session:\n  not_found: \"No such game\"\n"
	if err := os.WriteFile(filepath.Join(dir, "overrides.yaml"), []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	msg, err := c.Render("session.not_found", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg != "No such game" {
		t.Fatalf("msg = %q", msg)
	}

	// Keys not overridden keep their embedded text.
	msg, err = c.Render("engine.failed", nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(msg, "Engine") {
		t.Fatalf("msg = %q", msg)
	}
}
