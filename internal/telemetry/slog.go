package telemetry

import (
	"log/slog"
	"os"
	"strings"
)

// SetupLogger installs the portal-wide slog default from the logging.format
// and logging.level configuration keys.
//
// format "json" selects the JSON handler; any other value falls back to the
// text handler for local development. level accepts "debug", "info", "warn"
// and "error" (case-insensitive) and defaults to "info".
//
// Installing the configured logger as the slog default lets handlers, jobs and
// repositories log through plain slog.Info/Warn/Error without threading a
// *slog.Logger through every call.
func SetupLogger(format, level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug, // file:line is debug-only noise otherwise
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
	slog.Info("logger initialised", "format", format, "level", lvl.String())
}
