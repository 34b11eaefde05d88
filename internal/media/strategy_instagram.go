package media

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

// Read at most this much of the post page.
const instagramPageLimit = 5 << 20

// A mobile user agent gets the server-rendered markup with the media
// URLs inlined.
const instagramUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 14_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.0.3 Mobile/15E148 Safari/604.1"

// Markup probes for the post page. Instagram exposes media URLs in the
// og: meta tags, in a JSON-LD block and JSON-escaped inside inline
// scripts; carousels usually only surface fully in the latter two.
var (
	instagramOgVideo    = regexp.MustCompile(`<meta property="og:video" content="([^"]+)"`)
	instagramOgImage    = regexp.MustCompile(`<meta property="og:image" content="([^"]+)"`)
	instagramOgTitle    = regexp.MustCompile(`<meta property="og:title" content="([^"]+)"`)
	instagramJSONLD     = regexp.MustCompile(`(?s)<script type="application/ld\+json"[^>]*>(.*?)</script>`)
	instagramDisplayURL = regexp.MustCompile(`"display_url":"(https:[^"]+)"`)
)

// InstagramStrategy scrapes the public post page. Videos come from the
// og:video tag; photo carousels from the JSON-LD image list and the
// display_url entries in inline scripts.
type InstagramStrategy struct {
	http *http.Client
}

// NewInstagramStrategy creates the Instagram download strategy.
func NewInstagramStrategy() *InstagramStrategy {
	return &InstagramStrategy{
		http: &http.Client{Timeout: 60 * time.Second},
	}
}

// Name identifies the strategy in diagnostics.
func (s *InstagramStrategy) Name() string {
	return "instagram_scrape"
}

// Supports limits the strategy to Instagram posts.
func (s *InstagramStrategy) Supports(url string) bool {
	return IsInstagramURL(url)
}

// Fetch scrapes the post page and downloads its media files.
func (s *InstagramStrategy) Fetch(ctx context.Context, postURL string) (*Result, error) {
	page, err := s.fetchPage(ctx, postURL)
	if err != nil {
		return nil, err
	}

	caption := ""
	if m := instagramOgTitle.FindStringSubmatch(page); m != nil {
		caption = SanitizeCaption(html.UnescapeString(m[1]))
	}

	if m := instagramOgVideo.FindStringSubmatch(page); m != nil {
		path, err := downloadFile(ctx, s.http, html.UnescapeString(m[1]), "unduh-*.mp4")
		if err != nil {
			return nil, err
		}

		return &Result{Type: TypeVideo, FilePath: path, Caption: caption}, nil
	}

	images := extractInstagramImages(page)
	if len(images) == 0 {
		return nil, fmt.Errorf("post page exposes no media urls, likely private or removed")
	}

	paths := make([]string, 0, len(images))
	for _, imageURL := range images {
		path, err := downloadFile(ctx, s.http, imageURL, "unduh-*.jpg")
		if err != nil {
			for _, p := range paths {
				_ = os.Remove(p)
			}
			return nil, fmt.Errorf("download carousel image: %w", err)
		}
		paths = append(paths, path)
	}

	return &Result{Type: TypePhoto, FilePaths: paths, Caption: caption}, nil
}

func (s *InstagramStrategy) fetchPage(ctx context.Context, postURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, postURL, nil)
	if err != nil {
		return "", fmt.Errorf("build page request: %w", err)
	}

	req.Header.Set("User-Agent", instagramUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch post page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("post page status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, instagramPageLimit))
	if err != nil {
		return "", fmt.Errorf("read post page: %w", err)
	}

	return string(body), nil
}

// extractInstagramImages collects carousel image URLs, JSON-LD first,
// then escaped display_url entries, deduplicated in page order. The
// og:image tag is the single-photo fallback.
func extractInstagramImages(page string) []string {
	var urls []string
	seen := make(map[string]bool)

	add := func(raw string) {
		cleaned := strings.ReplaceAll(raw, "\\u0026", "&")
		cleaned = strings.ReplaceAll(cleaned, `\/`, "/")
		cleaned = html.UnescapeString(cleaned)
		if !strings.HasPrefix(cleaned, "http") || seen[cleaned] {
			return
		}
		seen[cleaned] = true
		urls = append(urls, cleaned)
	}

	for _, block := range instagramJSONLD.FindAllStringSubmatch(page, -1) {
		var payload struct {
			Image json.RawMessage `json:"image"`
		}
		if err := json.Unmarshal([]byte(block[1]), &payload); err != nil || payload.Image == nil {
			continue
		}

		var single string
		if json.Unmarshal(payload.Image, &single) == nil {
			add(single)
			continue
		}

		var many []string
		if json.Unmarshal(payload.Image, &many) == nil {
			for _, img := range many {
				add(img)
			}
			continue
		}

		var objects []struct {
			URL string `json:"url"`
		}
		if json.Unmarshal(payload.Image, &objects) == nil {
			for _, obj := range objects {
				add(obj.URL)
			}
		}
	}

	for _, match := range instagramDisplayURL.FindAllStringSubmatch(page, -1) {
		add(match[1])
	}

	if len(urls) == 0 {
		if m := instagramOgImage.FindStringSubmatch(page); m != nil {
			add(m[1])
		}
	}

	return urls
}
