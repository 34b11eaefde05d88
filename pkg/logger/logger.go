// Package logger builds the application slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	slogsentry "github.com/samber/slog-sentry/v2"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls logger construction.
type Options struct {
	Level     string
	FilePath  string
	SentryDSN string
}

// New builds the root logger: JSON output with sensitive-attribute
// masking, optional file rotation, and a Sentry tee for warnings and
// above when a DSN is configured.
func New(opts Options) *slog.Logger {
	var out io.Writer = os.Stdout
	if opts.FilePath != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		})
	}

	base := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: parseLevel(opts.Level)})

	var handler slog.Handler = NewMaskingHandler(base)
	if opts.SentryDSN != "" {
		handler = NewTeeHandler(
			handler,
			slogsentry.Option{Level: slog.LevelWarn}.NewSentryHandler(),
		)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
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
