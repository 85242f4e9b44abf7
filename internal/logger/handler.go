// Package logger provides the coloured console slog handler shared by the
// server and the CLI.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	timeColor  = color.New(color.FgHiBlack)
	keyColor   = color.New(color.FgCyan)
	msgColor   = color.New(color.FgHiWhite)
	levelColor = map[slog.Level]*color.Color{
		slog.LevelDebug: color.New(color.FgMagenta),
		slog.LevelInfo:  color.New(color.FgGreen),
		slog.LevelWarn:  color.New(color.FgYellow),
		slog.LevelError: color.New(color.FgRed, color.Bold),
	}
)

// PrettyHandler writes one line per record: time, level, message, key=value.
// Colour follows fatih/color, so it turns off for non-terminals and NO_COLOR.
type PrettyHandler struct {
	level slog.Leveler
	w     io.Writer
	mu    *sync.Mutex
	attrs []slog.Attr
	group string
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &PrettyHandler{
		level: level,
		w:     w,
		mu:    &sync.Mutex{},
	}
}

// Setup installs a PrettyHandler at the named level as the slog default.
func Setup(w io.Writer, levelName string) *slog.Logger {
	log := slog.New(NewPrettyHandler(w, &slog.HandlerOptions{Level: ParseLevel(levelName)}))
	slog.SetDefault(log)
	return log
}

// ParseLevel maps debug/info/warn/error (any case) to a level; anything
// else is info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	b.WriteString(timeColor.Sprint(r.Time.Format("15:04:05.000")))
	b.WriteByte(' ')
	b.WriteString(colorFor(r.Level).Sprintf("%-5s", r.Level.String()))
	b.WriteByte(' ')
	b.WriteString(msgColor.Sprint(r.Message))

	for _, a := range h.attrs {
		h.writeAttr(&b, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&b, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *PrettyHandler) writeAttr(b *strings.Builder, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}

	if a.Value.Kind() == slog.KindGroup {
		nested := &PrettyHandler{group: key}
		for _, inner := range a.Value.Group() {
			nested.writeAttr(b, inner)
		}
		return
	}

	fmt.Fprintf(b, " %s=%s", keyColor.Sprint(key), formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return strconv.Quote(s)
		}
		return s
	default:
		return fmt.Sprint(v.Any())
	}
}

func colorFor(level slog.Level) *color.Color {
	if c, ok := levelColor[level]; ok {
		return c
	}
	return msgColor
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return &next
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if h.group != "" {
		next.group = h.group + "." + name
	} else {
		next.group = name
	}
	return &next
}
