package handlers

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/raditpra/unduh-bot/internal/guard"
	"github.com/raditpra/unduh-bot/internal/media"
)

type fakeAdmission struct {
	decision guard.Decision
	recorded int
}

func (f *fakeAdmission) Check(ctx context.Context, userID int64, isAdmin bool) (guard.Decision, error) {
	return f.decision, nil
}

func (f *fakeAdmission) RecordDelivery(ctx context.Context, userID int64, isAdmin bool) error {
	f.recorded++
	return nil
}

type fakeFetcher struct {
	gotURL string
	result *media.Result
	err    error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (*media.Result, error) {
	f.gotURL = url
	return f.result, f.err
}

func newDownloadTest(admission *fakeAdmission, fetcher *fakeFetcher) Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDownloadHandler(admission, fetcher, nil, log)
}

func TestDownloadHandler_UsageHintWithoutLink(t *testing.T) {
	fetcher := &fakeFetcher{}
	h := newDownloadTest(&fakeAdmission{decision: guard.Decision{Allowed: true}}, fetcher)

	c := &stubContext{sender: &telebot.User{ID: 1}, text: "hello there"}
	require.NoError(t, h(c))

	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "TikTok or Instagram")
	assert.Empty(t, fetcher.gotURL)
}

func TestDownloadHandler_InstagramLinkReachesFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	admission := &fakeAdmission{decision: guard.Decision{Allowed: true}}
	fetcher := &fakeFetcher{result: &media.Result{Type: media.TypeVideo, FilePath: path}}
	h := newDownloadTest(admission, fetcher)

	c := &stubContext{sender: &telebot.User{ID: 1}, text: "look https://www.instagram.com/p/DAbc123/ so good"}
	require.NoError(t, h(c))

	assert.Equal(t, "https://www.instagram.com/p/DAbc123/", fetcher.gotURL)
	assert.Equal(t, 1, admission.recorded)
}

func TestDownloadHandler_TikTokLinkReachesFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	admission := &fakeAdmission{decision: guard.Decision{Allowed: true}}
	fetcher := &fakeFetcher{result: &media.Result{Type: media.TypeVideo, FilePath: path}}
	h := newDownloadTest(admission, fetcher)

	c := &stubContext{sender: &telebot.User{ID: 1}, text: "https://vt.tiktok.com/ZSabcdef/"}
	require.NoError(t, h(c))

	assert.Equal(t, "https://vt.tiktok.com/ZSabcdef/", fetcher.gotURL)
}

func TestDownloadHandler_DailyLimitDenied(t *testing.T) {
	admission := &fakeAdmission{decision: guard.Decision{
		Allowed: false,
		Reason:  guard.DenyDailyLimit,
		Current: 10,
		Limit:   10,
	}}
	fetcher := &fakeFetcher{}
	h := newDownloadTest(admission, fetcher)

	c := &stubContext{sender: &telebot.User{ID: 1}, text: "https://www.instagram.com/p/DAbc123/"}
	require.NoError(t, h(c))

	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "Daily limit reached (10/10)")
	assert.Empty(t, fetcher.gotURL)
}
