package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseLevelRejectsUnknown(t *testing.T) {
	t.Parallel()

	if _, err := ParseLevel("verbose"); !errors.Is(err, ErrInvalidLogLevel) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidLogLevel)
	}
}

func TestNewWritesJSONForNonTerminal(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "debug")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("toggled", "action", "added")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if record["msg"] != "toggled" || record["action"] != "added" {
		t.Fatalf("record = %v", record)
	}
}

func TestNewHonorsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New(&buf, "warn")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected info record to be dropped, got %q", buf.String())
	}
}
