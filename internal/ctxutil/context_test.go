package ctxutil

import (
	"context"
	"testing"
)

func TestSessionID(t *testing.T) {
	ctx := context.Background()

	if got := GetSessionID(ctx); got != "" {
		t.Errorf("GetSessionID on empty context = %q, want empty", got)
	}

	ctx = WithSessionID(ctx, "sess-42")
	if got := GetSessionID(ctx); got != "sess-42" {
		t.Errorf("GetSessionID = %q, want %q", got, "sess-42")
	}

	// Empty values are treated as absent
	ctx = WithSessionID(context.Background(), "")
	if got := GetSessionID(ctx); got != "" {
		t.Errorf("GetSessionID with empty value = %q, want empty", got)
	}
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()

	if _, ok := GetRequestID(ctx); ok {
		t.Error("GetRequestID on empty context should report not found")
	}

	ctx = WithRequestID(ctx, "req-1")
	got, ok := GetRequestID(ctx)
	if !ok || got != "req-1" {
		t.Errorf("GetRequestID = (%q, %v), want (%q, true)", got, ok, "req-1")
	}
}
