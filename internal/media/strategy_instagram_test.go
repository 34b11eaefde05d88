package media

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstagramStrategy_Video(t *testing.T) {
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/video.mp4", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("video-bytes"))
	})
	mux.HandleFunc("/p/abc/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head>
<meta property="og:title" content="creator on Instagram: nice clip" />
<meta property="og:video" content="%s/video.mp4" />
</head></html>`, server.URL)
	})

	server = httptest.NewServer(mux)
	defer server.Close()

	s := NewInstagramStrategy()
	result, err := s.Fetch(context.Background(), server.URL+"/p/abc/")
	require.NoError(t, err)
	defer os.Remove(result.FilePath)

	assert.Equal(t, TypeVideo, result.Type)
	assert.Contains(t, result.Caption, "nice clip")

	data, err := os.ReadFile(result.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "video-bytes", string(data))
}

func TestInstagramStrategy_Carousel(t *testing.T) {
	mux := http.NewServeMux()
	var server *httptest.Server

	for _, name := range []string{"/img1.jpg", "/img2.jpg"} {
		name := name
		mux.HandleFunc(name, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(name))
		})
	}
	mux.HandleFunc("/p/carousel/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head>
<meta property="og:title" content="creator on Instagram: beach day" />
</head><body>
<script type="application/ld+json">{"image":["%s/img1.jpg","%s/img2.jpg"]}</script>
</body></html>`, server.URL, server.URL)
	})

	server = httptest.NewServer(mux)
	defer server.Close()

	s := NewInstagramStrategy()
	result, err := s.Fetch(context.Background(), server.URL+"/p/carousel/")
	require.NoError(t, err)
	defer func() {
		for _, path := range result.FilePaths {
			_ = os.Remove(path)
		}
	}()

	assert.Equal(t, TypePhoto, result.Type)
	require.Len(t, result.FilePaths, 2)
	assert.Equal(t, 2, result.Items())
}

func TestInstagramStrategy_NoMedia(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><head><title>login</title></head></html>"))
	}))
	defer server.Close()

	s := NewInstagramStrategy()
	_, err := s.Fetch(context.Background(), server.URL+"/p/private/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no media urls")
}

func TestExtractInstagramImages(t *testing.T) {
	page := `<html><head>
<meta property="og:image" content="https://cdn.example/og.jpg" />
</head><body>
<script type="application/ld+json">{"image":"https://cdn.example/a.jpg"}</script>
<script>window._data = {"items":[{"display_url":"https:\/\/cdn.example\/a.jpg"},{"display_url":"https:\/\/cdn.example\/b.jpg?x=1&y=2"}]};</script>
</body></html>`

	got := extractInstagramImages(page)

	// JSON-LD first, escaped duplicates collapse, og:image is only a
	// fallback when nothing else matched
	assert.Equal(t, []string{
		"https://cdn.example/a.jpg",
		"https://cdn.example/b.jpg?x=1&y=2",
	}, got)
}

func TestExtractInstagramImages_OgImageFallback(t *testing.T) {
	page := `<meta property="og:image" content="https://cdn.example/only.jpg" />`

	got := extractInstagramImages(page)
	assert.Equal(t, []string{"https://cdn.example/only.jpg"}, got)
}
