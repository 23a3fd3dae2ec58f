package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger from LOG_FORMAT. "json" is the shipping
// format and carries source locations for triage; the default "pretty" is a
// terse text handler for local development.
func NewLogger(cfg *Config) *slog.Logger {
	format := "pretty"
	if cfg != nil {
		format = cfg.LogFormat
	}
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	case "pretty":
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
}
