package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestRedactPathAttr(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{ReplaceAttr: redactPathAttr})
	logger := slog.New(handler)

	logger.Info("renamed", String("src", "/media/tv/secret show/ep.mkv"), String("note", "/keep/me"))

	out := buf.String()
	if strings.Contains(out, "secret show") {
		t.Fatalf("path not redacted: %s", out)
	}
	if !strings.Contains(out, "…/ep.mkv") {
		t.Fatalf("expected base name retained: %s", out)
	}
	if !strings.Contains(out, "/keep/me") {
		t.Fatalf("non-path attr should be untouched: %s", out)
	}
}

func TestNewComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))
	NewComponentLogger(base, "planner").Info("ready")
	if !strings.Contains(buf.String(), "component=planner") {
		t.Fatalf("component attr missing: %s", buf.String())
	}
}
