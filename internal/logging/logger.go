// Package logging provides leveled logging and decision tracing for coevolve.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A DecisionLogger for JSONL traces of agent tie decisions (.coevolve/decisions.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. At this level every
// per-agent evaluation is logged, not just the applied tie changes.
const LevelTrace = slog.LevelDebug - 4

// DecisionsFile is the name of the decision trace inside the data directory.
const DecisionsFile = "decisions.jsonl"

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Decision is one traced agent decision.
type Decision struct {
	Run     string  `json:"run,omitempty"`
	Round   int     `json:"round"`
	Agent   int     `json:"agent"`
	Action  string  `json:"action"`
	Partner int     `json:"partner,omitempty"`
	Gain    float64 `json:"gain"`
	Applied bool    `json:"applied"`
	Reason  string  `json:"reason,omitempty"`
}

// DecisionLogger writes decision events as JSONL. It is safe for concurrent
// use. A nil DecisionLogger is safe to use; all methods are no-ops.
type DecisionLogger struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

// NewDecisionLogger creates a decision logger writing to dir/decisions.jsonl.
// At "info" level it returns nil and creates nothing. At "debug" or "trace"
// the file is opened for append. Returns nil if the file cannot be opened.
func NewDecisionLogger(dir string, level string) *DecisionLogger {
	if ParseLevel(level) == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	f, err := os.OpenFile(filepath.Join(dir, DecisionsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}
	return &DecisionLogger{w: f, c: f}
}

// NewDecisionWriter wraps an arbitrary writer. Closing the logger does not close w.
func NewDecisionWriter(w io.Writer) *DecisionLogger {
	return &DecisionLogger{w: w}
}

// LogDecision writes d as a single JSONL line.
func (dl *DecisionLogger) LogDecision(d Decision) {
	if dl == nil {
		return
	}
	dl.write(struct {
		Event string `json:"event"`
		Decision
		Time string `json:"time"`
	}{"decision", d, now()})
}

// Log writes a free-form event as a single JSONL line. A "time" field is
// added; the caller's map is not mutated.
func (dl *DecisionLogger) Log(event map[string]any) {
	if dl == nil {
		return
	}

	entry := make(map[string]any, len(event)+1)
	for k, v := range event {
		entry[k] = v
	}
	entry["time"] = now()
	dl.write(entry)
}

func (dl *DecisionLogger) write(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	data = append(data, '\n')

	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.w == nil {
		return
	}
	_, _ = dl.w.Write(data)
}

// Close closes the underlying file, if any. Later writes are dropped.
func (dl *DecisionLogger) Close() {
	if dl == nil {
		return
	}

	dl.mu.Lock()
	defer dl.mu.Unlock()

	if dl.c != nil {
		dl.c.Close()
	}
	dl.w = nil
	dl.c = nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
