// Package trakteer talks to the Trakteer support feed and builds the
// payment links handed to users.
package trakteer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	apperrors "github.com/raditpra/unduh-bot/internal/errors"
)

const defaultTimeout = 10 * time.Second

// Record is one raw transaction from the support feed. Trakteer issues
// no native unique ID, so UpdatedAt stays a string exactly as received
// and feeds the derived identifier downstream.
type Record struct {
	SupporterName  string `json:"supporter_name"`
	SupportMessage string `json:"support_message"`
	Quantity       int    `json:"quantity"`
	Amount         int64  `json:"amount"`
	UpdatedAt      string `json:"updated_at"`
}

// Feed lists recent transactions from the payment provider.
type Feed interface {
	ListRecentTransactions(ctx context.Context, limit int) ([]Record, error)
}

// Config carries the client knobs.
type Config struct {
	APIKey   string
	FeedURL  string
	PageName string
}

// Client is the HTTP feed client.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *apperrors.CircuitBreaker
	log     *slog.Logger
}

// NewClient creates a feed client with a bounded request timeout and a
// circuit breaker around the upstream.
func NewClient(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: defaultTimeout},
		breaker: apperrors.NewCircuitBreaker(),
		log:     log,
	}
}

type feedEnvelope struct {
	Status string `json:"status"`
	Result struct {
		Data []Record `json:"data"`
	} `json:"result"`
}

// BreakerState reports the circuit breaker state for health probes.
func (c *Client) BreakerState() apperrors.State {
	return c.breaker.State()
}

// ListRecentTransactions fetches up to limit records from the feed.
func (c *Client) ListRecentTransactions(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	var records []Record
	err := c.breaker.Call(func() error {
		fetched, err := c.fetch(ctx, limit)
		if err != nil {
			return err
		}
		records = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (c *Client) fetch(ctx context.Context, limit int) ([]Record, error) {
	endpoint, err := url.Parse(c.cfg.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}

	query := endpoint.Query()
	query.Set("limit", strconv.Itoa(limit))
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalAPIError("trakteer", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalAPIError("trakteer",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var envelope feedEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode feed response: %w", err)
	}

	if envelope.Status != "success" {
		return nil, apperrors.NewExternalAPIError("trakteer",
			fmt.Errorf("feed status %q", envelope.Status))
	}

	return envelope.Result.Data, nil
}
