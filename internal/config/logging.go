package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
	}
	return level, nil
}

// Handler returns a slog handler writing to w. Invalid settings fall back
// to info-level text output.
func (l LogConfig) Handler(w io.Writer) slog.Handler {
	level, _ := parseLevel(l.Level)
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Logger returns a logger writing to w.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	return slog.New(l.Handler(w))
}
