package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// TestSetup_ReturnsJSONLogger はJSON形式でログが出力されることを検証する。
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

// TestSetup_LevelFromEnv はLOG_LEVEL環境変数がレベル制御に反映されることを検証する。
func TestSetup_LevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")

	var buf bytes.Buffer
	l := Setup(&buf)

	l.Info("should be suppressed")
	if buf.Len() != 0 {
		t.Errorf("infoログが抑制されていない: %s", buf.String())
	}

	l.Warn("should appear")
	if buf.Len() == 0 {
		t.Error("warnログが出力されていない")
	}
}

// TestSetup_UnknownLevelDefaultsToInfo は未知のLOG_LEVEL値でinfoが有効になることを検証する。
func TestSetup_UnknownLevelDefaultsToInfo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")

	var buf bytes.Buffer
	l := Setup(&buf)

	l.Info("info should appear")
	if buf.Len() == 0 {
		t.Error("infoログが出力されていない")
	}
}
