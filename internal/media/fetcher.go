package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Fetcher retrieves media for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Strategy is one way of obtaining the media. Strategies are tried in
// order; the first success wins. Supports filters by platform so a
// TikTok resolver never sees an Instagram URL and vice versa.
type Strategy interface {
	Name() string
	Supports(url string) bool
	Fetch(ctx context.Context, url string) (*Result, error)
}

// Chain tries each strategy in sequence, aggregating failure reasons
// for diagnostics instead of surfacing only the last one.
type Chain struct {
	resolver   *Resolver
	strategies []Strategy
	log        *slog.Logger
}

// NewChain builds the fetch chain. resolver may be nil when short-URL
// expansion is not needed.
func NewChain(resolver *Resolver, log *slog.Logger, strategies ...Strategy) *Chain {
	if log == nil {
		log = slog.Default()
	}

	return &Chain{
		resolver:   resolver,
		strategies: strategies,
		log:        log,
	}
}

// Fetch resolves the URL and walks the strategy list.
func (c *Chain) Fetch(ctx context.Context, url string) (*Result, error) {
	if c.resolver != nil {
		resolved, err := c.resolver.Resolve(ctx, url)
		if err != nil {
			c.log.Warn("url resolution failed, using original",
				slog.String("url", url), slog.Any("error", err))
		} else {
			url = resolved
		}
	}

	var failures []error
	for _, strategy := range c.strategies {
		if !strategy.Supports(url) {
			continue
		}

		result, err := strategy.Fetch(ctx, url)
		if err == nil && result != nil {
			c.log.Info("media fetched",
				slog.String("strategy", strategy.Name()),
				slog.String("type", string(result.Type)))
			return result, nil
		}

		if err == nil {
			err = errors.New("strategy returned no result")
		}

		c.log.Warn("download strategy failed",
			slog.String("strategy", strategy.Name()),
			slog.Any("error", err))
		failures = append(failures, fmt.Errorf("%s: %w", strategy.Name(), err))
	}

	if len(failures) == 0 {
		return nil, fmt.Errorf("no download strategy supports %s", url)
	}

	return nil, fmt.Errorf("all download strategies failed: %w", errors.Join(failures...))
}
