package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("text format with level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: "warn", Format: "text"}, &buf)

		log.Info("should be filtered")
		log.Warn("kept", "key", "value")

		out := buf.String()
		if strings.Contains(out, "should be filtered") {
			t.Errorf("info line leaked through warn level: %s", out)
		}
		if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "msg=kept") {
			t.Errorf("expected warn line, got: %s", out)
		}
	})

	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: "debug", Format: "json"}, &buf)

		log.Debug("test message")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("failed to unmarshal JSON log: %v, output: %s", err, buf.String())
		}
		if entry["level"] != "DEBUG" || entry["msg"] != "test message" {
			t.Errorf("unexpected JSON log entry: %v", entry)
		}
	})

	t.Run("unknown level defaults to info", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: "noisy"}, &buf)

		log.Debug("filtered")
		log.Info("kept")

		out := buf.String()
		if strings.Contains(out, "filtered") || !strings.Contains(out, "kept") {
			t.Errorf("unexpected output: %s", out)
		}
	})
}
