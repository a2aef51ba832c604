// Package logging writes one JSON object per line, the format used by every component of the service.
package logging

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Logger emits JSON log lines stamped in a fixed time zone.
// It is safe for concurrent use.
type Logger struct {
	mu        *sync.Mutex
	w         io.Writer
	loc       *time.Location
	component string
}

// New creates a Logger writing to w. A nil location means UTC.
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{mu: &sync.Mutex{}, w: w, loc: loc}
}

// Default logs to stdout in UTC.
func Default() *Logger {
	return New(os.Stdout, time.UTC)
}

// With returns a child logger tagging every line with the given component name.
func (l *Logger) With(component string) *Logger {
	c := *l
	c.component = component
	return &c
}

// Location returns the time zone timestamps are written in.
func (l *Logger) Location() *time.Location {
	return l.loc
}

// Info logs an informational event.
func (l *Logger) Info(ctx context.Context, event string, fields map[string]any) {
	l.write(ctx, "info", event, nil, fields)
}

// Warn logs a recoverable problem.
func (l *Logger) Warn(ctx context.Context, event string, err error, fields map[string]any) {
	l.write(ctx, "warn", event, err, fields)
}

// Error logs a failed operation.
func (l *Logger) Error(ctx context.Context, event string, err error, fields map[string]any) {
	l.write(ctx, "error", event, err, fields)
}

func (l *Logger) write(ctx context.Context, level, event string, err error, fields map[string]any) {
	data := make(map[string]any, len(fields)+6)
	for k, v := range fields {
		data[k] = v
	}
	data["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	data["level"] = level
	data["event"] = event
	if l.component != "" {
		data["component"] = l.component
	}
	if err != nil {
		data["error_message"] = err.Error()
	}
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			data["trace_id"] = sc.TraceID().String()
		}
	}

	b, mErr := json.Marshal(data)
	if mErr != nil {
		b, _ = json.Marshal(map[string]any{"level": "error", "event": "log_marshal_failed", "error_message": mErr.Error()})
	}
	b = append(b, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(b)
}
