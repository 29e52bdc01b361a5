// Package covers keeps local copies of the cover images books link to, so
// pages keep working when the remote host is slow or gone.
package covers

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// MaxCoverSize caps a downloaded cover.
const MaxCoverSize = 5 << 20

var (
	ErrUnsupportedURL = errors.New("cover url must be http or https")
	ErrNotAnImage     = errors.New("cover url did not return an image")
	ErrTooLarge       = errors.New("cover image is too large")
)

// Cache stores one file per book and cover URL under a directory.
// Downloads go through a circuit breaker per remote host.
type Cache struct {
	cacheDir   string
	httpClient *http.Client

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewCache creates the directory if needed.
func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{
		cacheDir: cacheDir,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}, nil
}

// GetCover returns the path of the cached cover for bookID, downloading it
// first when missing. An empty coverURL yields an empty path.
func (c *Cache) GetCover(ctx context.Context, bookID uint, coverURL string) (string, error) {
	if coverURL == "" {
		return "", nil
	}

	if !IsFetchable(coverURL) {
		return "", ErrUnsupportedURL
	}
	u, _ := url.Parse(coverURL)

	cachePath := filepath.Join(c.cacheDir, coverFilename(bookID, coverURL))
	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	_, err := c.breaker(u.Host).Execute(func() (interface{}, error) {
		return nil, c.fetchAndCache(ctx, coverURL, cachePath)
	})
	if err != nil {
		return "", err
	}
	return cachePath, nil
}

// breaker returns the circuit breaker for host. Three consecutive failed
// downloads stop requests to that host for five minutes.
func (c *Cache) breaker(host string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[host]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// A reachable host serving a bad file is not a host failure, and
		// neither is a client that went away mid-download.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrNotAnImage) ||
				errors.Is(err, ErrTooLarge) ||
				errors.Is(err, context.Canceled)
		},
	})
	c.breakers[host] = cb
	return cb
}

// IsFetchable reports whether coverURL is an absolute http or https URL.
func IsFetchable(coverURL string) bool {
	u, err := url.Parse(coverURL)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Invalidate removes every cached cover of bookID. Called when the book is
// edited or deleted.
func (c *Cache) Invalidate(bookID uint) error {
	matches, err := filepath.Glob(filepath.Join(c.cacheDir, fmt.Sprintf("cover_%d_*", bookID)))
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (c *Cache) CacheDir() string {
	return c.cacheDir
}

// The URL hash keeps a stale file from being served after the link changes.
func coverFilename(bookID uint, coverURL string) string {
	hash := sha256.Sum256([]byte(coverURL))
	return fmt.Sprintf("cover_%d_%x", bookID, hash[:8])
}

func (c *Cache) fetchAndCache(ctx context.Context, coverURL, cachePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Bookshelf/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch cover: status %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		return ErrNotAnImage
	}

	// Write to a temp file in the same directory, then rename.
	tmpFile, err := os.CreateTemp(c.cacheDir, "cover_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	n, err := io.Copy(tmpFile, io.LimitReader(resp.Body, MaxCoverSize+1))
	if err != nil {
		return err
	}
	if n > MaxCoverSize {
		return ErrTooLarge
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, cachePath)
}
