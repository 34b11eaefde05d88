package media

import "regexp"

// Post URL shapes the bot accepts. TikTok share hosts (vm/vt) are
// expanded to the canonical URL by the resolver before strategies run.
var (
	tiktokURLPattern    = regexp.MustCompile(`https?://(?:www\.|vm\.|vt\.|m\.)?tiktok\.com/\S+`)
	instagramURLPattern = regexp.MustCompile(`https?://(?:www\.)?instagram\.com/\S+`)
)

// ExtractURL returns the first supported post link found in the text.
func ExtractURL(text string) (string, bool) {
	for _, pattern := range []*regexp.Regexp{tiktokURLPattern, instagramURLPattern} {
		if match := pattern.FindString(text); match != "" {
			return match, true
		}
	}

	return "", false
}

// IsTikTokURL reports whether the URL points at a TikTok post.
func IsTikTokURL(url string) bool {
	return tiktokURLPattern.MatchString(url)
}

// IsInstagramURL reports whether the URL points at an Instagram post.
func IsInstagramURL(url string) bool {
	return instagramURLPattern.MatchString(url)
}
