package logger

import (
	"context"
	"io"
	"log/slog"
)

// Formats accepted by NewHandler.
var Formats = []string{"line", "json", "text"}

type Config struct {
	Level     slog.Level
	Format    string
	Output    io.Writer
	AddSource bool
	// LevelNames replaces level names in the "line" format.
	LevelNames map[slog.Level]string
}

// NewHandler creates the handler described by cfg. Format is "json",
// "text" or "line" (the default).
func NewHandler(cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	switch cfg.Format {
	case "json":
		return slog.NewJSONHandler(cfg.Output, opts)
	case "text":
		return slog.NewTextHandler(cfg.Output, opts)
	}
	return NewLineHandler(cfg.Output, cfg.Level, cfg.LevelNames)
}

// ForComponent returns a logger of the component. Package level loggers
// are created before logging is configured, so the logger looks up the
// default handler on each record.
func ForComponent(component string) *slog.Logger {
	return slog.New(defaultHandler{}).With("component", component)
}

// defaultHandler forwards records to the current slog default handler.
type defaultHandler struct {
	wrap []func(slog.Handler) slog.Handler
}

func (h defaultHandler) current() slog.Handler {
	handler := slog.Default().Handler()
	for _, w := range h.wrap {
		handler = w(handler)
	}
	return handler
}

func (h defaultHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return slog.Default().Handler().Enabled(ctx, level)
}

func (h defaultHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.current().Handle(ctx, r)
}

func (h defaultHandler) with(w func(slog.Handler) slog.Handler) defaultHandler {
	wrap := make([]func(slog.Handler) slog.Handler, len(h.wrap), len(h.wrap)+1)
	copy(wrap, h.wrap)
	return defaultHandler{wrap: append(wrap, w)}
}

func (h defaultHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.with(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h defaultHandler) WithGroup(name string) slog.Handler {
	return h.with(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}
