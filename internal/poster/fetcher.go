// ABOUTME: Poster image fetcher for catalog items
// ABOUTME: Downloads still frames from URLs and caches them on disk
package poster

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Fetcher downloads and caches poster images. The cached file feeds
// the frame sampler's poster video source.
type Fetcher struct {
	cacheDir string
	client   *http.Client
}

// NewFetcher creates a fetcher caching under dir, or a per-user cache
// directory when dir is empty.
func NewFetcher(dir string) (*Fetcher, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			base = os.TempDir()
		}
		dir = filepath.Join(base, "watchbird", "posters")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create poster cache: %w", err)
	}

	return &Fetcher{
		cacheDir: dir,
		client:   &http.Client{},
	}, nil
}

// URLFor derives the poster URL for a media URL: the same path with a
// .jpg extension.
func URLFor(mediaURL string) string {
	if mediaURL == "" {
		return ""
	}
	trimmed := strings.Split(mediaURL, "?")[0]
	ext := filepath.Ext(trimmed)
	if ext == "" {
		return trimmed + ".jpg"
	}
	return strings.TrimSuffix(trimmed, ext) + ".jpg"
}

// Fetch downloads the poster at url into the cache and returns the
// local path. Cached entries are reused.
func (f *Fetcher) Fetch(url string) (string, error) {
	if url == "" {
		return "", nil
	}

	hash := sha256.Sum256([]byte(url))
	cachePath := filepath.Join(f.cacheDir, fmt.Sprintf("%x.jpg", hash[:8]))

	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	log.Printf("Downloading poster: %s", url)
	resp, err := f.client.Get(url)
	if err != nil {
		return "", fmt.Errorf("download poster: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("poster download failed: HTTP %d", resp.StatusCode)
	}

	out, err := os.Create(cachePath)
	if err != nil {
		return "", fmt.Errorf("create cache file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(cachePath)
		return "", fmt.Errorf("save poster: %w", err)
	}

	return cachePath, nil
}

// Cleanup removes the cache directory.
func (f *Fetcher) Cleanup() error {
	return os.RemoveAll(f.cacheDir)
}
