package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	oteltrace "go.opentelemetry.io/otel/trace"
)

func newBufferedLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: level})
	return slog.New(&traceHandler{baseHandler: handler}), &buf
}

// spanContext starts a real recorded span so trace and span ids are valid.
func spanContext(t *testing.T) context.Context {
	t.Helper()

	exp := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exp))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(nil) })

	ctx, span := otel.Tracer("test").Start(context.Background(), "test-span")
	t.Cleanup(func() { span.End() })
	return ctx
}

func parseLogEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	return entry
}

func TestTraceHandlerLevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		handler   slog.Level
		record    slog.Level
		shouldLog bool
	}{
		{"debug handler logs debug", slog.LevelDebug, slog.LevelDebug, true},
		{"info handler filters debug", slog.LevelInfo, slog.LevelDebug, false},
		{"info handler logs info", slog.LevelInfo, slog.LevelInfo, true},
		{"warn handler filters info", slog.LevelWarn, slog.LevelInfo, false},
		{"warn handler logs warn", slog.LevelWarn, slog.LevelWarn, true},
		{"error handler filters warn", slog.LevelError, slog.LevelWarn, false},
		{"error handler logs error", slog.LevelError, slog.LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferedLogger(tt.handler)

			logger.Log(context.Background(), tt.record, "message")

			if tt.shouldLog && buf.Len() == 0 {
				t.Error("expected log output but got none")
			}
			if !tt.shouldLog && buf.Len() > 0 {
				t.Errorf("expected no log output but got: %s", buf.String())
			}
		})
	}
}

func TestTraceHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	handler := &traceHandler{baseHandler: slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})}
	ctx := context.Background()

	if handler.Enabled(ctx, slog.LevelDebug) {
		t.Error("expected debug to be disabled for an info handler")
	}
	if !handler.Enabled(ctx, slog.LevelInfo) {
		t.Error("expected info to be enabled for an info handler")
	}
	if !handler.Enabled(ctx, slog.LevelError) {
		t.Error("expected error to be enabled for an info handler")
	}
}

func TestTraceHandlerEnrichment(t *testing.T) {
	t.Run("adds trace and span ids from an active span", func(t *testing.T) {
		logger, buf := newBufferedLogger(slog.LevelInfo)
		ctx := spanContext(t)

		logger.InfoContext(ctx, "test message", "key", "value")

		entry := parseLogEntry(t, buf)
		span := oteltrace.SpanContextFromContext(ctx)
		if entry["trace_id"] != span.TraceID().String() {
			t.Errorf("expected trace_id %s, got %v", span.TraceID(), entry["trace_id"])
		}
		if entry["span_id"] != span.SpanID().String() {
			t.Errorf("expected span_id %s, got %v", span.SpanID(), entry["span_id"])
		}
		if entry["msg"] != "test message" || entry["key"] != "value" {
			t.Errorf("unexpected log entry %v", entry)
		}
	})

	t.Run("omits trace ids without a span", func(t *testing.T) {
		logger, buf := newBufferedLogger(slog.LevelInfo)

		logger.InfoContext(context.Background(), "test message")

		entry := parseLogEntry(t, buf)
		if _, exists := entry["trace_id"]; exists {
			t.Error("expected trace_id to not be present")
		}
		if _, exists := entry["span_id"]; exists {
			t.Error("expected span_id to not be present")
		}
	})
}

func TestTraceHandlerWithAttrsAndGroups(t *testing.T) {
	t.Run("chained attributes survive enrichment", func(t *testing.T) {
		logger, buf := newBufferedLogger(slog.LevelInfo)
		ctx := spanContext(t)

		logger.With("request_id", "req-123").With("attempt", 2).InfoContext(ctx, "test message")

		entry := parseLogEntry(t, buf)
		if entry["request_id"] != "req-123" {
			t.Errorf("expected request_id req-123, got %v", entry["request_id"])
		}
		if entry["attempt"] != float64(2) {
			t.Errorf("expected attempt 2, got %v", entry["attempt"])
		}
		if _, ok := entry["trace_id"].(string); !ok {
			t.Error("expected trace_id to be present")
		}
	})

	t.Run("trace ids stay at the root outside groups", func(t *testing.T) {
		logger, buf := newBufferedLogger(slog.LevelInfo)
		ctx := spanContext(t)

		logger.WithGroup("http").InfoContext(ctx, "request", "method", "GET", "path", "/v1/orders")

		entry := parseLogEntry(t, buf)
		if _, ok := entry["trace_id"].(string); !ok {
			t.Error("expected trace_id at the root level")
		}
		if _, ok := entry["span_id"].(string); !ok {
			t.Error("expected span_id at the root level")
		}

		httpGroup, ok := entry["http"].(map[string]any)
		if !ok {
			t.Fatal("expected http group to be present")
		}
		if httpGroup["method"] != "GET" || httpGroup["path"] != "/v1/orders" {
			t.Errorf("unexpected group contents %v", httpGroup)
		}
		if _, exists := httpGroup["trace_id"]; exists {
			t.Error("trace_id must not leak into the group")
		}
	})

	t.Run("nested groups keep their structure", func(t *testing.T) {
		logger, buf := newBufferedLogger(slog.LevelInfo)
		ctx := spanContext(t)

		logger.WithGroup("http").WithGroup("request").InfoContext(ctx, "nested", "method", "POST")

		entry := parseLogEntry(t, buf)
		httpGroup, ok := entry["http"].(map[string]any)
		if !ok {
			t.Fatal("expected http group to be present")
		}
		requestGroup, ok := httpGroup["request"].(map[string]any)
		if !ok {
			t.Fatal("expected request group inside http")
		}
		if requestGroup["method"] != "POST" {
			t.Errorf("expected method POST, got %v", requestGroup["method"])
		}
	})
}
