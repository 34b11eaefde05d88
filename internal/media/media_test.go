package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSanitizeCaption(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "strips hashtags", in: "nice video #fyp #viral", want: "nice video"},
		{name: "strips links", in: "check https://example.com/x this", want: "check this"},
		{name: "collapses whitespace", in: "a   b\n\nc", want: "a b c"},
		{name: "empty", in: "#only #tags", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeCaption(tc.in))
		})
	}
}

func TestSanitizeCaption_Truncates(t *testing.T) {
	long := strings.Repeat("x", 2000)
	got := SanitizeCaption(long)
	assert.Less(t, len([]rune(got)), 1000)
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestResultItems(t *testing.T) {
	video := &Result{Type: TypeVideo, FilePath: "/tmp/a.mp4"}
	assert.Equal(t, 1, video.Items())

	carousel := &Result{Type: TypePhoto, FilePaths: []string{"a", "b", "c"}}
	assert.Equal(t, 3, carousel.Items())

	assert.Equal(t, 0, (*Result)(nil).Items())
}

type stubStrategy struct {
	name     string
	supports func(string) bool
	result   *Result
	err      error
	calls    int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Supports(url string) bool {
	if s.supports == nil {
		return true
	}
	return s.supports(url)
}

func (s *stubStrategy) Fetch(ctx context.Context, url string) (*Result, error) {
	s.calls++
	return s.result, s.err
}

func TestChain_FirstSuccessShortCircuits(t *testing.T) {
	first := &stubStrategy{name: "first", result: &Result{Type: TypeVideo, FilePath: "/tmp/v.mp4"}}
	second := &stubStrategy{name: "second"}

	chain := NewChain(nil, testLogger(), first, second)

	result, err := chain.Fetch(context.Background(), "https://www.tiktok.com/@a/video/1")
	require.NoError(t, err)
	assert.Equal(t, TypeVideo, result.Type)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestChain_FallsThroughToNext(t *testing.T) {
	first := &stubStrategy{name: "first", err: errors.New("blocked")}
	second := &stubStrategy{name: "second", result: &Result{Type: TypePhoto, FilePaths: []string{"/tmp/p.jpg"}}}

	chain := NewChain(nil, testLogger(), first, second)

	result, err := chain.Fetch(context.Background(), "https://www.tiktok.com/@a/photo/1")
	require.NoError(t, err)
	assert.Equal(t, TypePhoto, result.Type)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestChain_AggregatesFailures(t *testing.T) {
	first := &stubStrategy{name: "first", err: errors.New("blocked")}
	second := &stubStrategy{name: "second", err: errors.New("timeout")}

	chain := NewChain(nil, testLogger(), first, second)

	_, err := chain.Fetch(context.Background(), "https://www.tiktok.com/@a/video/1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
}

func TestChain_SkipsStrategiesForOtherPlatforms(t *testing.T) {
	tiktok := &stubStrategy{name: "tikwm", supports: IsTikTokURL, err: errors.New("blocked")}
	instagram := &stubStrategy{
		name:     "instagram_scrape",
		supports: IsInstagramURL,
		result:   &Result{Type: TypePhoto, FilePaths: []string{"/tmp/p.jpg"}},
	}

	chain := NewChain(nil, testLogger(), tiktok, instagram)

	result, err := chain.Fetch(context.Background(), "https://www.instagram.com/p/DAbc123/")
	require.NoError(t, err)
	assert.Equal(t, TypePhoto, result.Type)
	assert.Equal(t, 0, tiktok.calls)
	assert.Equal(t, 1, instagram.calls)
}

func TestChain_NoStrategySupportsURL(t *testing.T) {
	tiktok := &stubStrategy{name: "tikwm", supports: IsTikTokURL}

	chain := NewChain(nil, testLogger(), tiktok)

	_, err := chain.Fetch(context.Background(), "https://www.instagram.com/p/DAbc123/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no download strategy supports")
	assert.Equal(t, 0, tiktok.calls)
}

func TestResolver_PassesThroughCanonicalURLs(t *testing.T) {
	r := NewResolver(nil)

	canonical := "https://www.tiktok.com/@a/video/1"
	resolved, err := r.Resolve(context.Background(), canonical)
	require.NoError(t, err)
	assert.Equal(t, canonical, resolved)
}

func TestResolver_FollowsRedirects(t *testing.T) {
	var target *httptest.Server
	target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer target.Close()

	short := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/@a/video/1?share_id=xyz", http.StatusFound)
	}))
	defer short.Close()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := NewResolver(client)

	// the resolver only expands known share hosts, so feed it a URL
	// containing one and rewrite the request to the test server
	r.http.Transport = rewriteTransport{target: short.URL}

	resolved, err := r.Resolve(context.Background(), "https://vt.tiktok.com/ZS123/")
	require.NoError(t, err)
	assert.Equal(t, target.URL+"/@a/video/1", resolved)

	// second call hits the cache
	short.Close()
	cached, err := r.Resolve(context.Background(), "https://vt.tiktok.com/ZS123/")
	require.NoError(t, err)
	assert.Equal(t, resolved, cached)
}

type rewriteTransport struct {
	target string
}

func (t rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Host == "vt.tiktok.com" {
		rewritten := *req.URL
		rewritten.Scheme = "http"
		rewritten.Host = strings.TrimPrefix(t.target, "http://")
		clone := req.Clone(req.Context())
		clone.URL = &rewritten
		clone.Host = rewritten.Host
		req = clone
	}
	return http.DefaultTransport.RoundTrip(req)
}
