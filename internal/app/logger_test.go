package app

import (
	"context"
	"testing"

	"log/slog"
)

func TestNewLoggerFormats(t *testing.T) {
	jsonLogger := NewLogger(&Config{LogFormat: "json"})
	if _, ok := jsonLogger.Handler().(*slog.JSONHandler); !ok {
		t.Fatalf("json format handler = %T, want *slog.JSONHandler", jsonLogger.Handler())
	}

	pretty := NewLogger(&Config{LogFormat: "pretty"})
	if _, ok := pretty.Handler().(*slog.TextHandler); !ok {
		t.Fatalf("pretty format handler = %T, want *slog.TextHandler", pretty.Handler())
	}
	if !pretty.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("pretty format should log at debug level")
	}

	if !NewLogger(nil).Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("nil config should fall back to the pretty debug handler")
	}

	fallback := NewLogger(&Config{LogFormat: "xml"})
	if _, ok := fallback.Handler().(*slog.TextHandler); !ok {
		t.Fatalf("unknown format handler = %T, want *slog.TextHandler", fallback.Handler())
	}
	if fallback.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("unknown format should not enable debug logging")
	}
}
