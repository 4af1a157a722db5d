package config

import (
	"io"
	"log/slog"
)

// NewLogger returns a JSON logger in production and a text logger otherwise.
func NewLogger(cfg *Config, w io.Writer) *slog.Logger {
	if cfg.Production() {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
