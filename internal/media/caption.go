package media

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxCaptionLen = 900

var (
	hashtagPattern    = regexp.MustCompile(`#\S+`)
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// SanitizeCaption strips hashtags and links from a raw post title and
// bounds its length so it fits a Telegram caption.
func SanitizeCaption(raw string) string {
	caption := urlPattern.ReplaceAllString(raw, "")
	caption = hashtagPattern.ReplaceAllString(caption, "")
	caption = whitespacePattern.ReplaceAllString(caption, " ")
	caption = strings.TrimSpace(caption)

	if utf8.RuneCountInString(caption) > maxCaptionLen {
		runes := []rune(caption)
		caption = strings.TrimSpace(string(runes[:maxCaptionLen])) + "…"
	}

	return caption
}
