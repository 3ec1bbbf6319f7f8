// Package logging provides leveled logging and round tracing for coopnet.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (progress and diagnostics)
//   - A RoundLogger for per-round JSONL traces (<dir>/rounds.jsonl)
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

// LevelTrace is a custom slog level below Debug. At this level round traces
// also carry the full strategy assignment of every node.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
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

// Discard returns a logger that drops everything. Useful as a default for
// library callers that did not supply one.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// RoundEvent is one line of the round trace.
type RoundEvent struct {
	Run        int     `json:"run"`
	T          float64 `json:"t"`
	S          float64 `json:"s"`
	Round      int     `json:"round"`
	Fraction   float64 `json:"fraction"`
	Assignment string  `json:"assignment,omitempty"`
	Time       string  `json:"time"`
}

// RoundLogger appends RoundEvents to a JSONL file.
// It is safe for concurrent use. A nil RoundLogger is safe to use;
// all methods are no-ops on nil receiver.
type RoundLogger struct {
	mu    sync.Mutex
	file  *os.File
	trace bool
}

// NewRoundLogger creates a round logger writing to dir/rounds.jsonl.
// At "info" level (the default), returns nil and no file is created.
// At "trace" level each event keeps its Assignment; at "debug" it is dropped.
// Returns nil if the file cannot be opened.
func NewRoundLogger(dir string, level string) *RoundLogger {
	lvl := ParseLevel(level)
	if lvl == slog.LevelInfo {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, "rounds.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &RoundLogger{file: f, trace: lvl <= LevelTrace}
}

// Trace reports whether events keep the full assignment. Callers can skip
// building it otherwise. Safe to call on nil receiver.
func (rl *RoundLogger) Trace() bool {
	return rl != nil && rl.trace
}

// Log writes ev as a single JSONL line, stamping Time.
// Safe to call on nil receiver.
func (rl *RoundLogger) Log(ev RoundEvent) {
	if rl == nil {
		return
	}
	if !rl.trace {
		ev.Assignment = ""
	}
	ev.Time = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	data = append(data, '\n')

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if rl.file == nil {
		return
	}
	_, _ = rl.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (rl *RoundLogger) Close() {
	if rl == nil {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.file != nil {
		rl.file.Close()
		rl.file = nil
	}
}
