package logging

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// sink holds the handler installed by the latest Initialize.
type sink struct {
	handler atomic.Pointer[installed]
	once    sync.Once
}

// installed is one generation of the base handler. Its pointer identity
// tells liveHandler when to rebuild.
type installed struct {
	h slog.Handler
}

func (s *sink) set(h slog.Handler) {
	s.handler.Store(&installed{h: h})
}

func (s *sink) load() *installed {
	s.once.Do(func() {
		if s.handler.Load() == nil {
			s.handler.CompareAndSwap(nil, &installed{h: newBaseHandler(Config{})})
		}
	})
	return s.handler.Load()
}

// liveHandler filters by a module level and forwards to the current base
// handler, replaying WithAttrs and WithGroup calls onto it.
type liveHandler struct {
	sink  *sink
	level slog.Leveler
	ops   []func(slog.Handler) slog.Handler

	cache atomic.Pointer[resolved]
}

type resolved struct {
	from *installed
	h    slog.Handler
}

func (h *liveHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *liveHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.resolve().Handle(ctx, r)
}

func (h *liveHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return h.with(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *liveHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return h.with(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *liveHandler) with(op func(slog.Handler) slog.Handler) *liveHandler {
	ops := slices.Clip(h.ops)
	return &liveHandler{sink: h.sink, level: h.level, ops: append(ops, op)}
}

func (h *liveHandler) resolve() slog.Handler {
	base := h.sink.load()
	if c := h.cache.Load(); c != nil && c.from == base {
		return c.h
	}
	out := base.h
	for _, op := range h.ops {
		out = op(out)
	}
	h.cache.Store(&resolved{from: base, h: out})
	return out
}

// fanout writes each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(f, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}
