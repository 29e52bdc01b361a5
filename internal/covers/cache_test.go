package covers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func imageServer(t *testing.T, contentType string, body []byte) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestNewCache(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "covers")

	cache, err := NewCache(cacheDir)
	require.NoError(t, err)
	assert.Equal(t, cacheDir, cache.CacheDir())
	assert.DirExists(t, cacheDir)
}

func TestGetCover(t *testing.T) {
	ctx := context.Background()

	t.Run("empty url", func(t *testing.T) {
		cache, _ := NewCache(t.TempDir())
		path, err := cache.GetCover(ctx, 1, "")
		require.NoError(t, err)
		assert.Empty(t, path)
	})

	t.Run("fetches once then serves from disk", func(t *testing.T) {
		server, hits := imageServer(t, "image/jpeg", []byte("fake image data"))
		cache, _ := NewCache(t.TempDir())

		path1, err := cache.GetCover(ctx, 1, server.URL+"/cover.jpg")
		require.NoError(t, err)
		path2, err := cache.GetCover(ctx, 1, server.URL+"/cover.jpg")
		require.NoError(t, err)

		assert.Equal(t, path1, path2)
		assert.Equal(t, int32(1), atomic.LoadInt32(hits))

		data, err := os.ReadFile(path1)
		require.NoError(t, err)
		assert.Equal(t, "fake image data", string(data))
	})

	t.Run("changed url is fetched again", func(t *testing.T) {
		server, hits := imageServer(t, "image/png", []byte("png"))
		cache, _ := NewCache(t.TempDir())

		path1, err := cache.GetCover(ctx, 1, server.URL+"/a.png")
		require.NoError(t, err)
		path2, err := cache.GetCover(ctx, 1, server.URL+"/b.png")
		require.NoError(t, err)

		assert.NotEqual(t, path1, path2)
		assert.Equal(t, int32(2), atomic.LoadInt32(hits))
	})

	t.Run("rejects non-http schemes", func(t *testing.T) {
		cache, _ := NewCache(t.TempDir())
		for _, u := range []string{"file:///etc/passwd", "ftp://example.com/a.jpg", "not a url"} {
			_, err := cache.GetCover(ctx, 1, u)
			assert.ErrorIs(t, err, ErrUnsupportedURL, u)
		}
	})

	t.Run("rejects non-images", func(t *testing.T) {
		server, _ := imageServer(t, "text/html", []byte("<html>"))
		cache, _ := NewCache(t.TempDir())

		_, err := cache.GetCover(ctx, 1, server.URL)
		assert.ErrorIs(t, err, ErrNotAnImage)
	})

	t.Run("rejects oversized images", func(t *testing.T) {
		server, _ := imageServer(t, "image/jpeg", bytes.Repeat([]byte("x"), MaxCoverSize+1))
		cache, _ := NewCache(t.TempDir())

		_, err := cache.GetCover(ctx, 1, server.URL)
		assert.ErrorIs(t, err, ErrTooLarge)

		leftovers, _ := filepath.Glob(filepath.Join(cache.CacheDir(), "*"))
		assert.Empty(t, leftovers)
	})

	t.Run("upstream error", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()
		cache, _ := NewCache(t.TempDir())

		_, err := cache.GetCover(ctx, 1, server.URL)
		assert.Error(t, err)
	})
}

func TestInvalidate(t *testing.T) {
	server, _ := imageServer(t, "image/jpeg", []byte("img"))
	cache, _ := NewCache(t.TempDir())

	path1, err := cache.GetCover(context.Background(), 1, server.URL)
	require.NoError(t, err)
	path2, err := cache.GetCover(context.Background(), 2, server.URL)
	require.NoError(t, err)

	require.NoError(t, cache.Invalidate(1))
	assert.NoFileExists(t, path1)
	assert.FileExists(t, path2)

	assert.NoError(t, cache.Invalidate(99), "nothing cached is fine")
}

func TestGetCover_CircuitBreaker(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()
	cache, _ := NewCache(t.TempDir())

	for i := 0; i < 3; i++ {
		_, err := cache.GetCover(context.Background(), 1, server.URL)
		require.Error(t, err)
	}

	_, err := cache.GetCover(context.Background(), 1, server.URL)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits), "open breaker skips the request")
}

func TestGetCover_BadFilesDoNotTripBreaker(t *testing.T) {
	server, hits := imageServer(t, "text/plain", []byte("nope"))
	cache, _ := NewCache(t.TempDir())

	for i := 0; i < 5; i++ {
		_, err := cache.GetCover(context.Background(), 1, server.URL)
		assert.ErrorIs(t, err, ErrNotAnImage)
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(hits))
}

func TestGetCover_CancelledRequestsDoNotTripBreaker(t *testing.T) {
	server, hits := imageServer(t, "image/png", []byte("png"))
	cache, _ := NewCache(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := cache.GetCover(ctx, 1, server.URL)
		assert.ErrorIs(t, err, context.Canceled)
	}

	path, err := cache.GetCover(context.Background(), 1, server.URL)
	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}
