package media

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"
)

const tikwmEndpoint = "https://www.tikwm.com/api/"

// TikwmStrategy fetches through the tikwm resolver API. It handles
// both plain videos and photo carousels.
type TikwmStrategy struct {
	http     *http.Client
	endpoint string
}

// NewTikwmStrategy creates the primary download strategy.
func NewTikwmStrategy() *TikwmStrategy {
	return &TikwmStrategy{
		http:     &http.Client{Timeout: 60 * time.Second},
		endpoint: tikwmEndpoint,
	}
}

// Name identifies the strategy in diagnostics.
func (s *TikwmStrategy) Name() string {
	return "tikwm"
}

// Supports limits the strategy to TikTok posts.
func (s *TikwmStrategy) Supports(url string) bool {
	return IsTikTokURL(url)
}

type tikwmResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Title  string   `json:"title"`
		Play   string   `json:"play"`
		Images []string `json:"images"`
	} `json:"data"`
}

// Fetch resolves the post and downloads its media files.
func (s *TikwmStrategy) Fetch(ctx context.Context, postURL string) (*Result, error) {
	endpoint := fmt.Sprintf("%s?url=%s&hd=1", s.endpoint, url.QueryEscape(postURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build api request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query resolver api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver api status %d", resp.StatusCode)
	}

	var payload tikwmResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode resolver response: %w", err)
	}

	if payload.Code != 0 {
		return nil, fmt.Errorf("resolver api error: %s", payload.Msg)
	}

	caption := SanitizeCaption(payload.Data.Title)

	if len(payload.Data.Images) > 0 {
		return s.fetchPhotos(ctx, payload.Data.Images, caption)
	}

	if payload.Data.Play == "" {
		return nil, fmt.Errorf("resolver returned no media urls")
	}

	path, err := downloadFile(ctx, s.http, payload.Data.Play, "unduh-*.mp4")
	if err != nil {
		return nil, err
	}

	return &Result{Type: TypeVideo, FilePath: path, Caption: caption}, nil
}

func (s *TikwmStrategy) fetchPhotos(ctx context.Context, urls []string, caption string) (*Result, error) {
	paths := make([]string, 0, len(urls))

	for _, imageURL := range urls {
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
