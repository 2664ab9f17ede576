package logger

import (
	"context"
	"errors"
	"log/slog"
	"slices"
)

// teeHandler duplicates each record to every child handler so one Logger can
// write locally and ship to Better Stack at the same time. Records are cloned
// before delivery; children must not share a mutable record.
type teeHandler struct {
	children []slog.Handler
}

// NewMultiHandler combines handlers into one. Nil entries are dropped, so
// callers can pass an optional remote handler unconditionally.
func NewMultiHandler(handlers ...slog.Handler) slog.Handler {
	children := slices.DeleteFunc(slices.Clone(handlers), func(h slog.Handler) bool {
		return h == nil
	})
	return &teeHandler{children: children}
}

// Enabled reports whether at least one child would accept the level.
func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, child := range t.children {
		if child.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle delivers the record to every child whose level admits it. Delivery
// continues past failures; the joined error reports all of them.
func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, child := range t.children {
		if !child.Enabled(ctx, r.Level) {
			continue
		}
		errs = append(errs, child.Handle(ctx, r.Clone()))
	}
	return errors.Join(errs...)
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	children := make([]slog.Handler, len(t.children))
	for i, child := range t.children {
		children[i] = child.WithAttrs(attrs)
	}
	return &teeHandler{children: children}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	children := make([]slog.Handler, len(t.children))
	for i, child := range t.children {
		children[i] = child.WithGroup(name)
	}
	return &teeHandler{children: children}
}
