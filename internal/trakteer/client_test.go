package trakteer

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestListRecentTransactions(t *testing.T) {
	var gotKey, gotLimit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("key")
		gotLimit = r.URL.Query().Get("limit")

		_, _ = io.WriteString(w, `{
			"status": "success",
			"result": {
				"data": [
					{
						"supporter_name": "budi",
						"support_message": "12345 7",
						"quantity": 2,
						"amount": 10000,
						"updated_at": "2026-08-28 10:00:00"
					}
				]
			}
		}`)
	}))
	defer server.Close()

	feed := NewClient(Config{APIKey: "k", FeedURL: server.URL}, testLogger())

	records, err := feed.ListRecentTransactions(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "k", gotKey)
	assert.Equal(t, "5", gotLimit)
	assert.Equal(t, "budi", records[0].SupporterName)
	assert.Equal(t, "12345 7", records[0].SupportMessage)
	assert.Equal(t, int64(10000), records[0].Amount)
	assert.Equal(t, 2, records[0].Quantity)
}

func TestListRecentTransactions_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status": "error", "result": {"data": []}}`)
	}))
	defer server.Close()

	feed := NewClient(Config{FeedURL: server.URL}, testLogger())

	_, err := feed.ListRecentTransactions(context.Background(), 5)
	assert.Error(t, err)
}

func TestListRecentTransactions_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	feed := NewClient(Config{FeedURL: server.URL}, testLogger())

	_, err := feed.ListRecentTransactions(context.Background(), 5)
	assert.Error(t, err)
}

func TestPaymentURL(t *testing.T) {
	link := PaymentURL("unduhbot", 12345, 7, 2)

	assert.True(t, strings.HasPrefix(link, "https://trakteer.id/unduhbot/tip?"))
	assert.Contains(t, link, "quantity=2")
	assert.Contains(t, link, "step=2")
	assert.Contains(t, link, "supporter_message=12345+7")
}
