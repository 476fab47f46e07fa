package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestInitWithWriter_FiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "warn", false)

	Info("hidden")
	Warn("shown", "stage", "quantize")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Expected info message to be filtered")
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "stage=quantize") {
		t.Errorf("Expected warn message with attribute, got %q", out)
	}
}

func TestInitWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", true)

	With("session", "abc").Debug("snapshot")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "snapshot" || entry["session"] != "abc" {
		t.Errorf("Unexpected entry %v", entry)
	}
}
