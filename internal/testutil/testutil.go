package testutil

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"testing"
)

// MockLogger is a test logger that captures log calls for verification
type MockLogger struct {
	InfoCalls  []LogCall
	ErrorCalls []LogCall
}

// LogCall represents a single log method invocation
type LogCall struct {
	Msg  string
	Args []any
}

// Info implements logger.Logger
func (m *MockLogger) Info(msg string, args ...any) {
	m.InfoCalls = append(m.InfoCalls, LogCall{Msg: msg, Args: args})
}

// Error implements logger.Logger
func (m *MockLogger) Error(msg string, args ...any) {
	m.ErrorCalls = append(m.ErrorCalls, LogCall{Msg: msg, Args: args})
}

// Reset clears all captured log calls
func (m *MockLogger) Reset() {
	m.InfoCalls = nil
	m.ErrorCalls = nil
}

// AssertInfoCount verifies the number of Info calls
func (m *MockLogger) AssertInfoCount(t *testing.T, expected int) {
	t.Helper()
	if len(m.InfoCalls) != expected {
		t.Errorf("expected %d Info calls, got %d", expected, len(m.InfoCalls))
	}
}

// AssertErrorCount verifies the number of Error calls
func (m *MockLogger) AssertErrorCount(t *testing.T, expected int) {
	t.Helper()
	if len(m.ErrorCalls) != expected {
		t.Errorf("expected %d Error calls, got %d", expected, len(m.ErrorCalls))
	}
}

// Record is a captured slog record
type Record struct {
	Msg   string
	Attrs map[string]any
}

// LogHandler is a slog.Handler that records every entry by level
type LogHandler struct {
	mu         sync.Mutex
	attrs      []slog.Attr
	root       *LogHandler
	InfoCalls  []Record
	WarnCalls  []Record
	ErrorCalls []Record
}

// NewTestLogger returns a debug-level logger and the handler capturing its output
func NewTestLogger() (*slog.Logger, *LogHandler) {
	h := &LogHandler{}
	h.root = h
	return slog.New(h), h
}

// Enabled implements slog.Handler
func (h *LogHandler) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler
func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	rec := Record{Msg: r.Message, Attrs: make(map[string]any)}
	for _, a := range h.attrs {
		rec.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs[a.Key] = a.Value.Any()
		return true
	})

	root := h.root
	root.mu.Lock()
	defer root.mu.Unlock()
	switch {
	case r.Level >= slog.LevelError:
		root.ErrorCalls = append(root.ErrorCalls, rec)
	case r.Level >= slog.LevelWarn:
		root.WarnCalls = append(root.WarnCalls, rec)
	case r.Level >= slog.LevelInfo:
		root.InfoCalls = append(root.InfoCalls, rec)
	}
	return nil
}

// WithAttrs implements slog.Handler
func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &LogHandler{attrs: merged, root: h.root}
}

// WithGroup implements slog.Handler; groups are flattened
func (h *LogHandler) WithGroup(string) slog.Handler { return h }

// AssertInfoCount verifies the number of Info records
func (h *LogHandler) AssertInfoCount(t *testing.T, expected int) {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.InfoCalls) != expected {
		t.Errorf("expected %d Info calls, got %d", expected, len(h.InfoCalls))
	}
}

// AssertWarnCount verifies the number of Warn records
func (h *LogHandler) AssertWarnCount(t *testing.T, expected int) {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.WarnCalls) != expected {
		t.Errorf("expected %d Warn calls, got %d", expected, len(h.WarnCalls))
	}
}

// AssertErrorCount verifies the number of Error records
func (h *LogHandler) AssertErrorCount(t *testing.T, expected int) {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.ErrorCalls) != expected {
		t.Errorf("expected %d Error calls, got %d", expected, len(h.ErrorCalls))
	}
}

// MockMCPServer is a test MCP HTTP server
type MockMCPServer struct {
	ServeHTTPFunc func(http.ResponseWriter, *http.Request)
}

// ServeHTTP implements http.Handler
func (m *MockMCPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Handle nil receiver (shouldn't happen in practice, but tests may pass nil)
	if m == nil {
		http.Error(w, "MockMCPServer is nil", http.StatusInternalServerError)
		return
	}

	if m.ServeHTTPFunc != nil {
		m.ServeHTTPFunc(w, r)
	} else {
		// Default behavior if no func is set
		w.WriteHeader(http.StatusOK)
	}
}
