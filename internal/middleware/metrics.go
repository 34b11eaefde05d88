package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/raditpra/unduh-bot/internal/bot/handlers"
	"github.com/raditpra/unduh-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		command := extractCommandName(c)
		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(command, status, time.Since(start))

		return err
	}
}

// extractCommandName keeps the label set bounded: commands map to
// their first token, callbacks to their action prefix, and arbitrary
// text to a single bucket.
func extractCommandName(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil && cb.Data != "" {
		data := strings.TrimSpace(cb.Data)
		if idx := strings.IndexAny(data, "_:"); idx > 0 {
			return "cb:" + data[:idx]
		}
		return "cb:" + data
	}

	text := strings.TrimSpace(c.Text())
	if strings.HasPrefix(text, "/") || strings.HasPrefix(text, "!") {
		cmd := strings.Fields(text)[0]
		if at := strings.Index(cmd, "@"); at > 0 {
			cmd = cmd[:at]
		}
		return cmd
	}

	if text != "" {
		return "message"
	}

	return "unknown"
}
