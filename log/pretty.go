package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// prettyHandler writes one colorized line per record. Colors are chosen by
// the lipgloss renderer for the output, so a pipe or file gets plain text.
type prettyHandler struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	prefix string

	key, str, num, msg lipgloss.Style
	levels             map[slog.Level]lipgloss.Style
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	r := lipgloss.NewRenderer(w)

	return &prettyHandler{
		opts: *opts,
		mu:   new(sync.Mutex),
		w:    w,
		key:  r.NewStyle().Foreground(lipgloss.Color("8")),
		str:  r.NewStyle().Foreground(lipgloss.Color("2")),
		num:  r.NewStyle().Foreground(lipgloss.Color("6")),
		msg:  r.NewStyle().Bold(true),
		levels: map[slog.Level]lipgloss.Style{
			slog.Level(LevelTrace): r.NewStyle().Foreground(lipgloss.Color("5")),
			slog.LevelDebug:        r.NewStyle().Foreground(lipgloss.Color("4")),
			slog.LevelInfo:         r.NewStyle().Foreground(lipgloss.Color("2")),
			slog.LevelWarn:         r.NewStyle().Foreground(lipgloss.Color("3")),
			slog.LevelError:        r.NewStyle().Foreground(lipgloss.Color("1")),
		},
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	if !r.Time.IsZero() {
		h.writeAttr(&buf, h.replace(slog.Time(slog.TimeKey, r.Time)))
	}

	lvl := h.replace(slog.Any(slog.LevelKey, r.Level))
	if !lvl.Equal(slog.Attr{}) {
		space(&buf)
		buf.WriteString(h.levels[r.Level].Render(lvl.Value.String()))
	}

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			h.writeAttr(&buf, slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", src.File, src.Line)))
		}
	}

	space(&buf)
	buf.WriteString(h.msg.Render(r.Message))

	for _, a := range h.attrs {
		h.writeAttr(&buf, a)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, h.qualify(a))

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], mapAttrs(attrs, h.qualify)...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

func (h *prettyHandler) replace(a slog.Attr) slog.Attr {
	if h.opts.ReplaceAttr == nil {
		return a
	}

	return h.opts.ReplaceAttr(nil, a)
}

func (h *prettyHandler) qualify(a slog.Attr) slog.Attr {
	a.Key = h.prefix + a.Key

	return a
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, g := range a.Value.Group() {
			g.Key = a.Key + "." + g.Key
			h.writeAttr(buf, g)
		}

		return
	}

	space(buf)
	buf.WriteString(h.key.Render(a.Key + "="))

	switch a.Value.Kind() {
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindBool, slog.KindDuration:
		buf.WriteString(h.num.Render(a.Value.String()))
	default:
		s := a.Value.String()
		if strings.ContainsAny(s, " \t\n\"=") {
			s = fmt.Sprintf("%q", s)
		}

		buf.WriteString(h.str.Render(s))
	}
}

func space(buf *bytes.Buffer) {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}
}

func mapAttrs(attrs []slog.Attr, f func(slog.Attr) slog.Attr) []slog.Attr {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = f(a)
	}

	return out
}
