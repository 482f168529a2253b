// ABOUTME: Downloads hosted blob bytes through an expiring LRU cache
// ABOUTME: Keeps recently viewed images in memory so re-renders do not refetch

package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MaxBlobBytes caps a single download.
const MaxBlobBytes = 10 << 20

// Fetcher resolves blob URLs to bytes.
type Fetcher struct {
	httpClient *http.Client
	cache      *expirable.LRU[string, []byte]
	logger     *slog.Logger
}

// NewFetcher creates a fetcher caching up to size blobs for ttl.
func NewFetcher(httpClient *http.Client, size int, ttl time.Duration, logger *slog.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		httpClient: httpClient,
		cache:      expirable.NewLRU[string, []byte](size, nil, ttl),
		logger:     logger,
	}
}

// Fetch returns the bytes at url, from cache when possible.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if data, ok := f.cache.Get(url); ok {
		f.logger.Debug("Blob cache hit", "url", url)
		return bytes.Clone(data), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("blob download canceled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blob download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBlobBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	if len(data) > MaxBlobBytes {
		return nil, fmt.Errorf("blob exceeds %d bytes", MaxBlobBytes)
	}

	f.cache.Add(url, bytes.Clone(data))
	f.logger.Debug("Blob cached", "url", url, "bytes", len(data))
	return data, nil
}

// Len reports how many blobs are cached.
func (f *Fetcher) Len() int {
	return f.cache.Len()
}
