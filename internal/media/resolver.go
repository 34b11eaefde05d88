package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	resolverTimeout  = 10 * time.Second
	resolvedCacheTTL = 24 * time.Hour
)

// shortHosts are the TikTok share-link domains that redirect to the
// canonical post URL.
var shortHosts = []string{"vt.tiktok.com", "vm.tiktok.com"}

// Resolver expands share links to canonical post URLs, caching results
// in Redis so repeated shares of the same link skip the round trip.
type Resolver struct {
	http  *http.Client
	redis *redis.Client
}

// NewResolver creates a resolver. A nil redis client disables caching.
func NewResolver(redisClient *redis.Client) *Resolver {
	return &Resolver{
		http: &http.Client{
			Timeout: resolverTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		redis: redisClient,
	}
}

// Resolve returns the canonical URL for a share link, or the input
// unchanged when it is not a short link.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	if !isShortURL(rawURL) {
		return rawURL, nil
	}

	if cached := r.cached(ctx, rawURL); cached != "" {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build resolve request: %w", err)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve short url: %w", err)
	}
	defer resp.Body.Close()

	resolved := resp.Request.URL.String()

	// strip tracking params, they change per share
	if idx := strings.Index(resolved, "?"); idx > 0 {
		resolved = resolved[:idx]
	}

	r.cache(ctx, rawURL, resolved)

	return resolved, nil
}

func (r *Resolver) cached(ctx context.Context, rawURL string) string {
	if r.redis == nil {
		return ""
	}

	value, err := r.redis.Get(ctx, resolvedKey(rawURL)).Result()
	if err != nil {
		return ""
	}

	return value
}

func (r *Resolver) cache(ctx context.Context, rawURL, resolved string) {
	if r.redis == nil {
		return
	}

	_ = r.redis.Set(ctx, resolvedKey(rawURL), resolved, resolvedCacheTTL).Err()
}

func resolvedKey(rawURL string) string {
	return "media:resolved:" + rawURL
}

func isShortURL(rawURL string) bool {
	for _, host := range shortHosts {
		if strings.Contains(rawURL, host) {
			return true
		}
	}
	return false
}
