package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const timeFormat = "2006-01-02 15:04:05.000"

// LineHandler writes records as
//
//	[2024-01-02 10:00:00.000] INFO:component:message key=value
//
// Level names may be colored.
type LineHandler struct {
	mu         *sync.Mutex
	w          io.Writer
	level      slog.Leveler
	levelNames map[slog.Level]string
	component  string
	attrs      string
	group      string
}

// NewLineHandler creates a LineHandler. levelNames overrides the
// displayed names of levels.
func NewLineHandler(w io.Writer, level slog.Leveler, levelNames map[slog.Level]string) *LineHandler {
	return &LineHandler{
		mu:         &sync.Mutex{},
		w:          w,
		level:      level,
		levelNames: levelNames,
	}
}

func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LineHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteByte('[')
	if r.Time.IsZero() {
		b.WriteString(time.Now().Format(timeFormat))
	} else {
		b.WriteString(r.Time.Format(timeFormat))
	}
	b.WriteString("] ")
	b.WriteString(h.levelName(r.Level))
	b.WriteByte(':')
	if h.component != "" {
		b.WriteString(h.component)
	} else {
		b.WriteString("root")
	}
	b.WriteByte(':')
	b.WriteString(r.Message)
	b.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.group, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *LineHandler) levelName(level slog.Level) string {
	if name, ok := h.levelNames[level]; ok {
		return name
	}
	return level.String()
}

func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		if a.Key == "component" && h.group == "" {
			h2.component = a.Value.String()
			continue
		}
		writeAttr(&b, h.group, a)
	}
	h2.attrs = b.String()
	return &h2
}

func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.group = h.group + name + "."
	return &h2
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(b, prefix, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	var s string
	switch a.Value.Kind() {
	case slog.KindTime:
		s = a.Value.Time().Format(timeFormat)
	default:
		s = a.Value.String()
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		s = strconv.Quote(s)
	}
	b.WriteString(s)
}

// MultiHandler sends records to all the handlers enabled for the level.
type MultiHandler []slog.Handler

func (m MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range m {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to handle log record: %w", errors.Join(errs...))
	}
	return nil
}

func (m MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	res := make(MultiHandler, len(m))
	for i, h := range m {
		res[i] = h.WithAttrs(attrs)
	}
	return res
}

func (m MultiHandler) WithGroup(name string) slog.Handler {
	res := make(MultiHandler, len(m))
	for i, h := range m {
		res[i] = h.WithGroup(name)
	}
	return res
}
