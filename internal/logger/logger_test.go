package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestSetup_ReturnsJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	if l == nil {
		t.Fatal("expected non-nil logger")
	}

	l.Info("test message", slog.String("key", "value"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log output, got error: %v\nraw output: %s", err, buf.String())
	}

	if entry["msg"] != "test message" {
		t.Errorf("msg = %q, want %q", entry["msg"], "test message")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %q, want %q", entry["key"], "value")
	}
}

func TestSetup_LevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	var buf bytes.Buffer
	l := Setup(&buf)

	l.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info log must be suppressed at warn level, got %q", buf.String())
	}

	l.Warn("emitted")
	if buf.Len() == 0 {
		t.Error("warn log must be emitted at warn level")
	}
}

func TestSetup_UnknownLevelDefaultsToInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")

	var buf bytes.Buffer
	l := Setup(&buf)

	l.Debug("suppressed")
	if buf.Len() != 0 {
		t.Error("debug log must be suppressed at default info level")
	}

	l.Info("emitted")
	if buf.Len() == 0 {
		t.Error("info log must be emitted at default info level")
	}
}
