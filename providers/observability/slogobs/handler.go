package slogobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
)

// Handler is a slog.Handler with compact, pretty and JSON renderings.
// Attributes are emitted in key order so output is stable.
type Handler struct {
	format Format
	level  slog.Leveler
	output io.Writer
	colors bool
	mu     *sync.Mutex
	attrs  []slog.Attr
	prefix string
}

// HandlerOptions configures NewHandler.
type HandlerOptions struct {
	Format Format
	Level  slog.Leveler
	Output io.Writer
	Colors bool
}

// NewHandler builds a Handler. Colors are enabled automatically when the
// output is a terminal and the format is not JSON.
func NewHandler(opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}
	h := &Handler{
		format: opts.Format,
		level:  opts.Level,
		output: opts.Output,
		colors: opts.Colors,
		mu:     &sync.Mutex{},
	}
	if h.output == nil {
		h.output = os.Stderr
	}
	if h.format == "" {
		h.format = FormatCompact
	}
	if h.level == nil {
		h.level = slog.LevelInfo
	}
	if !h.colors && h.format != FormatJSON {
		if f, ok := h.output.(*os.File); ok {
			h.colors = isTerminal(f)
		}
	}
	return h
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	fields := h.fields(r)

	var line []byte
	var err error
	switch h.format {
	case FormatJSON:
		line, err = h.renderJSON(r, fields)
	case FormatPretty:
		line = h.renderPretty(r, fields)
	default:
		line, err = h.renderCompact(r, fields)
	}
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.output.Write(line)
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

type field struct {
	key   string
	value any
}

// fields flattens handler and record attributes, later keys winning, sorted
// by key.
func (h *Handler) fields(r slog.Record) []field {
	merged := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		addAttr(merged, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(merged, h.prefix, a)
		return true
	})

	out := make([]field, 0, len(merged))
	for k, v := range merged {
		out = append(out, field{key: k, value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

func addAttr(dst map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		for _, sub := range a.Value.Group() {
			addAttr(dst, prefix+a.Key+".", sub)
		}
		return
	}
	if a.Key == "" {
		return
	}
	v := a.Value.Any()
	if err, ok := v.(error); ok {
		v = err.Error()
	}
	dst[prefix+a.Key] = v
}

func (h *Handler) renderCompact(r slog.Record, fields []field) ([]byte, error) {
	var b strings.Builder
	b.WriteString(r.Time.Format("2006-01-02 15:04:05"))
	b.WriteByte(' ')
	b.WriteString(h.paint(r.Level, fmt.Sprintf("%5s", levelString(r.Level))))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	if len(fields) > 0 {
		obj, err := encodeFields(fields)
		if err != nil {
			return nil, err
		}
		b.WriteString(" ")
		b.Write(obj)
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

func (h *Handler) renderPretty(r slog.Record, fields []field) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | %s\n",
		r.Time.Format("2006-01-02 15:04:05"),
		h.paint(r.Level, levelString(r.Level)),
		r.Message)
	for _, f := range fields {
		fmt.Fprintf(&b, "    %s = %v\n", f.key, f.value)
	}
	return []byte(b.String())
}

func (h *Handler) renderJSON(r slog.Record, fields []field) ([]byte, error) {
	all := make([]field, 0, len(fields)+3)
	all = append(all,
		field{key: slog.TimeKey, value: r.Time.Format("2006-01-02T15:04:05.000Z07:00")},
		field{key: slog.LevelKey, value: levelString(r.Level)},
		field{key: slog.MessageKey, value: r.Message},
	)
	for _, f := range fields {
		switch f.key {
		case slog.TimeKey, slog.LevelKey, slog.MessageKey:
			f.key = "attr." + f.key
		}
		all = append(all, f)
	}
	obj, err := encodeFields(all)
	if err != nil {
		return nil, err
	}
	return append(obj, '\n'), nil
}

// encodeFields writes fields as a JSON object preserving their order.
func encodeFields(fields []field) ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		k, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.value)
		if err != nil {
			v, _ = json.Marshal(fmt.Sprint(f.value))
		}
		b.Write(k)
		b.WriteByte(':')
		b.Write(v)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

func levelString(level slog.Level) string {
	switch {
	case level < slog.LevelDebug:
		return "TRACE"
	case level < slog.LevelInfo:
		return "DEBUG"
	case level < slog.LevelWarn:
		return "INFO"
	case level < slog.LevelError:
		return "WARN"
	default:
		return "ERROR"
	}
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

func (h *Handler) paint(level slog.Level, s string) string {
	if !h.colors {
		return s
	}
	var c string
	switch {
	case level < slog.LevelDebug:
		c = colorGray
	case level < slog.LevelInfo:
		c = colorBlue
	case level < slog.LevelWarn:
		c = colorGreen
	case level < slog.LevelError:
		c = colorYellow
	default:
		c = colorRed
	}
	return c + s + colorReset
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
