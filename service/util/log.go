package util

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

// ColorHandler writes one line per record: time, colored level, message,
// then key=value attributes. Groups are flattened into dotted keys.
type ColorHandler struct {
	mu       *sync.Mutex
	w        io.Writer
	level    slog.Leveler
	prefix   string
	preAttrs []slog.Attr
}

func NewColorHandler(w io.Writer, opts *slog.HandlerOptions) *ColorHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &ColorHandler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
	}
}

func (h *ColorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newH := *h
	newH.preAttrs = append([]slog.Attr{}, h.preAttrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		newH.preAttrs = append(newH.preAttrs, a)
	}
	return &newH
}

func (h *ColorHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newH := *h
	newH.prefix = h.prefix + name + "."
	return &newH
}

func (h *ColorHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s%s%s [%s%s%s] %s",
		colorGray, r.Time.Format("15:04:05"), colorReset,
		levelColor(r.Level), r.Level.String(), colorReset,
		r.Message)

	for _, a := range h.preAttrs {
		writeAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(b, prefix+a.Key+".", ga)
		}
		return
	}
	fmt.Fprintf(b, " %s%s=%v", prefix, a.Key, a.Value)
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorBlue
	default:
		return colorGray
	}
}

func NewLogger(verbose bool) *slog.Logger {
	return NewLoggerTo(os.Stdout, verbose)
}

func NewLoggerTo(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(NewColorHandler(w, &slog.HandlerOptions{Level: level}))
}

// DiscardLogger is used by tests and by components constructed without a logger.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func LogError(logger *slog.Logger, msg string, err error, attrs ...any) error {
	allAttrs := append([]any{"error", err}, attrs...)
	logger.Error(msg, allAttrs...)
	return fmt.Errorf("%s: %w", strings.ToLower(msg), err)
}
