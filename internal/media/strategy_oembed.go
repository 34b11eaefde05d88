package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const oembedEndpoint = "https://www.tiktok.com/oembed"

// OEmbedStrategy is the fallback: it cannot produce video files, but it
// recovers the thumbnail for photo posts the primary strategy failed
// on, so the user still receives something useful.
type OEmbedStrategy struct {
	http     *http.Client
	endpoint string
}

// NewOEmbedStrategy creates the oEmbed fallback strategy.
func NewOEmbedStrategy() *OEmbedStrategy {
	return &OEmbedStrategy{
		http:     &http.Client{Timeout: 30 * time.Second},
		endpoint: oembedEndpoint,
	}
}

// Name identifies the strategy in diagnostics.
func (s *OEmbedStrategy) Name() string {
	return "oembed"
}

// Supports limits the strategy to TikTok posts; the oEmbed endpoint
// only answers for them.
func (s *OEmbedStrategy) Supports(url string) bool {
	return IsTikTokURL(url)
}

type oembedResponse struct {
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
}

// Fetch downloads the post thumbnail as a single photo.
func (s *OEmbedStrategy) Fetch(ctx context.Context, postURL string) (*Result, error) {
	endpoint := fmt.Sprintf("%s?url=%s", s.endpoint, url.QueryEscape(postURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build oembed request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query oembed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oembed status %d", resp.StatusCode)
	}

	var payload oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode oembed response: %w", err)
	}

	if payload.ThumbnailURL == "" {
		return nil, fmt.Errorf("oembed returned no thumbnail")
	}

	path, err := downloadFile(ctx, s.http, payload.ThumbnailURL, "unduh-*.jpg")
	if err != nil {
		return nil, err
	}

	return &Result{
		Type:      TypePhoto,
		FilePaths: []string{path},
		Caption:   SanitizeCaption(payload.Title),
	}, nil
}
