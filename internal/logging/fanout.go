package logging

import (
	"context"
	"errors"
	"log/slog"
)

// FanOut sends each record to every handler that accepts its level. A failing
// handler does not stop the others.
type FanOut struct {
	handlers []slog.Handler
}

func NewFanOut(handlers ...slog.Handler) *FanOut {
	return &FanOut{handlers: handlers}
}

func (f *FanOut) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *FanOut) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *FanOut) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *FanOut) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *FanOut) each(fn func(slog.Handler) slog.Handler) *FanOut {
	handlers := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		handlers[i] = fn(h)
	}
	return &FanOut{handlers: handlers}
}
