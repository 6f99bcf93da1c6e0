// Package telemetry sets up the process logger: colored status lines for
// operators, JSON for machines.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// LevelSuccess marks a completed step. It sorts between info and warn so
// it is shown whenever info is.
const LevelSuccess = slog.Level(2)

// StatusHandler renders records as one colored status line each:
//
//	[INFO] starting services
//	[ OK ] network proxy ready
//	[WARN] occ app:enable notify_push failed err="exit status 1"
type StatusHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

// NewStatusHandler writes status lines for records at or above level.
func NewStatusHandler(w io.Writer, level slog.Leveler) *StatusHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &StatusHandler{mu: &sync.Mutex{}, w: w, level: level}
}

func (h *StatusHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *StatusHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(levelLabel(r.Level))
	b.WriteString(" ")
	b.WriteString(r.Message)

	var extra []string
	for _, a := range h.attrs {
		extra = appendAttr(extra, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		extra = appendAttr(extra, h.prefix, a)
		return true
	})
	if len(extra) > 0 {
		b.WriteString(" ")
		b.WriteString(mutedStyle.Render(strings.Join(extra, " ")))
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *StatusHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &next
}

func (h *StatusHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func levelLabel(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return errorStyle.Render("[FAIL]")
	case l >= slog.LevelWarn:
		return warningStyle.Render("[WARN]")
	case l >= LevelSuccess:
		return successStyle.Render("[ OK ]")
	case l >= slog.LevelInfo:
		return infoStyle.Render("[INFO]")
	default:
		return mutedStyle.Render("[DBUG]")
	}
}

func appendAttr(out []string, prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return out
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			out = appendAttr(out, prefix+a.Key+".", ga)
		}
		return out
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\"") {
		val = fmt.Sprintf("%q", val)
	}
	return append(out, prefix+a.Key+"="+val)
}

// Success logs msg at LevelSuccess.
func Success(ctx context.Context, log *slog.Logger, msg string, args ...any) {
	log.Log(ctx, LevelSuccess, msg, args...)
}

// ParseLevel maps a --log-level value to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// NewLogger builds the process logger. format "json" selects the JSON
// handler; anything else gets status lines.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	lvl := ParseLevel(level)
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: lvl,
			ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
				if a.Key == slog.LevelKey && a.Value.Any() == LevelSuccess {
					a.Value = slog.StringValue("SUCCESS")
				}
				return a
			},
		}))
	}
	return slog.New(NewStatusHandler(w, lvl))
}
