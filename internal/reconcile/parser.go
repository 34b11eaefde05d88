package reconcile

import (
	"log/slog"
	"regexp"
	"strconv"
)

// Support-message formats, tried in order. The plain "<userId> <days>"
// pair is what the payment link embeds today; the VIP_ form is kept for
// messages produced by older links.
var (
	primaryPattern = regexp.MustCompile(`(\d+)\s+(\d+)`)
	legacyPattern  = regexp.MustCompile(`VIP_(\d+)_(\d+)days`)
)

// ParseSupportMessage recovers (userID, days) from the free-text
// support message. ok is false when neither format matches; the record
// is then discarded, not treated as an error. A nil log falls back to
// the default logger.
func ParseSupportMessage(message string, log *slog.Logger) (userID int64, days int, ok bool) {
	if log == nil {
		log = slog.Default()
	}

	for _, pattern := range []*regexp.Regexp{primaryPattern, legacyPattern} {
		match := pattern.FindStringSubmatch(message)
		if match == nil {
			continue
		}

		id, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			log.Debug("matched user id does not fit int64, trying next format",
				slog.String("value", match[1]))
			continue
		}

		d, err := strconv.Atoi(match[2])
		if err != nil {
			log.Debug("matched day count does not fit int, trying next format",
				slog.String("value", match[2]))
			continue
		}

		return id, d, true
	}

	return 0, 0, false
}
