package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/garnizeh/jobtrail/internal/config"
	"github.com/garnizeh/jobtrail/internal/logging"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New(config.LogConfig{Level: "debug", Format: "JSON"}, &buf)
	l.Debug("hello", slog.String("job_id", "j1"))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected json output, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "hello" || rec["job_id"] != "j1" {
		t.Fatalf("unexpected record: %#v", rec)
	}
}

func TestNew_TextLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New(config.LogConfig{Level: "warn"}, &buf)
	l.Info("dropped")
	l.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info record should be filtered at warn: %q", out)
	}
	if !strings.Contains(out, "msg=kept") {
		t.Fatalf("expected text record, got %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logging.ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
