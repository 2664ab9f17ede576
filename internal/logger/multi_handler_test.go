package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestMultiHandler_FanOut(t *testing.T) {
	var a, b bytes.Buffer
	multi := NewMultiHandler(
		slog.NewJSONHandler(&a, nil),
		slog.NewJSONHandler(&b, nil),
	)

	log := slog.New(multi)
	log.Info("hello")

	for name, buf := range map[string]*bytes.Buffer{"first": &a, "second": &b} {
		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("%s handler did not receive record: %q", name, buf.String())
		}
	}
}

func TestMultiHandler_SkipsNil(t *testing.T) {
	var buf bytes.Buffer
	multi := NewMultiHandler(nil, slog.NewJSONHandler(&buf, nil), nil)

	if err := multi.Handle(context.Background(), slog.Record{}); err != nil {
		t.Fatalf("Handle returned error: %v", err)
	}
}

func TestMultiHandler_LevelGating(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	multi := NewMultiHandler(
		slog.NewJSONHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)

	slog.New(multi).Debug("low level")

	if !strings.Contains(debugBuf.String(), "low level") {
		t.Error("debug handler should receive debug record")
	}
	if warnBuf.Len() != 0 {
		t.Errorf("warn handler should not receive debug record, got %q", warnBuf.String())
	}
}
