// Package testutils holds small helpers shared by tests across packages.
package testutils

import (
	"context"
	"log/slog"
	"sync"
)

// LogEntry is a captured log record flattened to a map. The message is
// stored under "msg" and the level under "level".
type LogEntry map[string]any

// RecordingHandler is a slog.Handler that keeps every record in memory.
// Loggers derived with With share the parent's record list.
type RecordingHandler struct {
	state *recordingState
	attrs []slog.Attr
}

type recordingState struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ slog.Handler = (*RecordingHandler)(nil)

// NewRecordingLogger returns a logger backed by a fresh RecordingHandler.
func NewRecordingLogger() (*slog.Logger, *RecordingHandler) {
	h := &RecordingHandler{state: &recordingState{}}
	return slog.New(h), h
}

// Enabled satisfies slog.Handler; every level is recorded.
func (h *RecordingHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle satisfies slog.Handler.
func (h *RecordingHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	for _, a := range h.attrs {
		entry[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		entry[a.Key] = a.Value.Any()
		return true
	})

	h.state.mu.Lock()
	h.state.entries = append(h.state.entries, entry)
	h.state.mu.Unlock()
	return nil
}

// WithAttrs satisfies slog.Handler.
func (h *RecordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &RecordingHandler{state: h.state, attrs: merged}
}

// WithGroup satisfies slog.Handler. Groups are flattened.
func (h *RecordingHandler) WithGroup(string) slog.Handler {
	return h
}

// Entries returns a copy of all captured entries.
func (h *RecordingHandler) Entries() []LogEntry {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()

	out := make([]LogEntry, len(h.state.entries))
	copy(out, h.state.entries)
	return out
}

// Find returns the captured entries with the given message.
func (h *RecordingHandler) Find(msg string) []LogEntry {
	var out []LogEntry
	for _, e := range h.Entries() {
		if e["msg"] == msg {
			out = append(out, e)
		}
	}
	return out
}
