package log

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// journalHandler is a slog.Handler writing structured entries to the systemd
// journal. Attribute keys become upper-case journal fields.
type journalHandler struct {
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

func newJournalHandler(level slog.Leveler) *journalHandler {
	return &journalHandler{level: level}
}

func (h *journalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *journalHandler) Handle(_ context.Context, r slog.Record) error {
	fields := map[string]string{"SYSLOG_IDENTIFIER": "panelctl"}
	for _, a := range h.attrs {
		addJournalField(fields, a, h.groups)
	}
	r.Attrs(func(a slog.Attr) bool {
		addJournalField(fields, a, h.groups)
		return true
	})
	return journal.Send(r.Message, journalPriority(r.Level), fields)
}

func (h *journalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	return &journalHandler{level: h.level, attrs: append(merged, attrs...), groups: h.groups}
}

func (h *journalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	return &journalHandler{level: h.level, attrs: h.attrs, groups: append(groups, name)}
}

func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

func addJournalField(fields map[string]string, a slog.Attr, groups []string) {
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, "_") + "_" + key
	}
	key = strings.ToUpper(key)

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		sub := append(append([]string(nil), groups...), a.Key)
		for _, ga := range v.Group() {
			addJournalField(fields, ga, sub)
		}
	case slog.KindInt64:
		fields[key] = strconv.FormatInt(v.Int64(), 10)
	case slog.KindBool:
		fields[key] = strconv.FormatBool(v.Bool())
	case slog.KindAny:
		fields[key] = fmt.Sprint(v.Any())
	default:
		fields[key] = v.String()
	}
}
