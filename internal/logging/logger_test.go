package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase TRACE", "TRACE", LevelTrace},
		{"mixed case Debug", "Debug", slog.LevelDebug},
		{"padded", " debug ", slog.LevelDebug},
		{"unknown defaults to info", "verbose", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level      string
		logAtTrace bool
		logAtDebug bool
	}{
		{"info", false, false},
		{"debug", false, true},
		{"trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Log(t.Context(), LevelTrace, "trace message")
			if got := strings.Contains(buf.String(), "trace message"); got != tt.logAtTrace {
				t.Errorf("trace visible = %v, want %v", got, tt.logAtTrace)
			}
			if tt.logAtTrace && !strings.Contains(buf.String(), "level=TRACE") {
				t.Errorf("trace level should be labeled TRACE, got %q", buf.String())
			}

			buf.Reset()
			logger.Debug("debug message")
			if got := strings.Contains(buf.String(), "debug message"); got != tt.logAtDebug {
				t.Errorf("debug visible = %v, want %v", got, tt.logAtDebug)
			}

			buf.Reset()
			logger.Info("round finished", "round", 3)
			if !strings.Contains(buf.String(), "round=3") {
				t.Errorf("info should always be visible, got %q", buf.String())
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	Discard().Info("nothing to see")
}

func TestNewDecisionLogger_InfoLevel(t *testing.T) {
	dir := t.TempDir()
	dl := NewDecisionLogger(dir, "info")
	if dl != nil {
		t.Error("expected nil DecisionLogger at info level")
	}

	dl.LogDecision(Decision{Round: 1, Agent: 1, Action: "connect"})
	dl.Log(map[string]any{"event": "test"})

	if _, err := os.Stat(filepath.Join(dir, DecisionsFile)); err == nil {
		t.Error("decisions.jsonl should not exist at info level")
	}
}

func TestNewDecisionLogger_DebugLevel(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".coevolve")
	dl := NewDecisionLogger(dir, "debug")
	if dl == nil {
		t.Fatal("expected non-nil DecisionLogger at debug level")
	}
	defer dl.Close()

	dl.LogDecision(Decision{Run: "r1", Round: 2, Agent: 4, Action: "connect", Partner: 7, Gain: 1.5, Applied: true})

	data, err := os.ReadFile(filepath.Join(dir, DecisionsFile))
	if err != nil {
		t.Fatalf("failed to read decisions.jsonl: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("failed to parse entry: %v", err)
	}
	if entry["event"] != "decision" || entry["action"] != "connect" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["partner"] != 7.0 || entry["gain"] != 1.5 || entry["applied"] != true {
		t.Errorf("unexpected decision fields: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected time field")
	}

	info, err := os.Stat(filepath.Join(dir, DecisionsFile))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestDecisionWriter_MultipleEvents(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDecisionWriter(&buf)

	event := map[string]any{"event": "round_finished", "round": 1}
	dl.Log(event)
	dl.LogDecision(Decision{Round: 1, Agent: 2, Action: "disconnect", Partner: 3, Gain: -0.5})

	if _, hasTime := event["time"]; hasTime {
		t.Error("Log() should not mutate the caller's map")
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	var first, second map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if first["event"] != "round_finished" {
		t.Errorf("first event = %v", first["event"])
	}
	if second["action"] != "disconnect" || second["applied"] != false {
		t.Errorf("second event = %v", second)
	}
}

func TestDecisionLogger_LogAfterClose(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDecisionWriter(&buf)
	dl.Close()
	dl.Log(map[string]any{"event": "after_close"})
	if buf.Len() != 0 {
		t.Errorf("expected no output after Close, got %q", buf.String())
	}

	var nilLogger *DecisionLogger
	nilLogger.Close()
}
