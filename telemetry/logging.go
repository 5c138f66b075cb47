package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogger installs the default slog logger from LOG_LEVEL (debug|info|warn|error)
// and LOG_FORMAT (text|json). Defaults: level=info, format=text.
func SetupLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	lvl := slog.LevelInfo
	unknown := false
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
	default:
		unknown = true
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT"))
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	default:
		format = "text"
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	if unknown {
		logger.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	logger.Debug("logger initialized", slog.String("level", lvl.String()), slog.String("format", format))
	return logger
}
