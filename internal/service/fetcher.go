package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shasu1pm/VoxText-AI/pkg/log"
)

// errBlocked marks a rate-limit or forbidden response on the direct path:
// transient enough to fall through to the next fetch tier rather than
// surface to the caller.
var errBlocked = errors.New("caption request blocked upstream")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// URLFetcher retrieves a caption document through a network stack with its
// own auth context, independent of the shared session client.
type URLFetcher interface {
	FetchURL(ctx context.Context, url string) ([]byte, error)
}

// Fetcher retrieves raw caption payloads. The direct path uses the shared
// session client so cookies flow both ways; the library path is the
// fallback when direct requests are blocked or come back empty.
type Fetcher struct {
	client  *http.Client
	library URLFetcher
}

// NewFetcher builds a fetcher from the session-backed client and the
// fallback library fetcher.
func NewFetcher(client *http.Client, library URLFetcher) *Fetcher {
	return &Fetcher{client: client, library: library}
}

// Direct performs an authenticated GET with browser headers. A 429 or 403
// returns errBlocked so the caller falls through; any other non-200 status
// is a real error worth surfacing. Transport failures also fall through.
func (f *Fetcher) Direct(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build caption request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://www.youtube.com/")
	req.Header.Set("Origin", "https://www.youtube.com")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		log.Debug("Direct caption fetch failed, falling through: %v", err)
		return nil, fmt.Errorf("%w: %v", errBlocked, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests, http.StatusForbidden:
		log.Debug("Direct caption fetch got status %d, falling through", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", errBlocked, resp.StatusCode)
	default:
		return nil, fmt.Errorf("caption fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read caption response: %w", err)
	}
	return body, nil
}

// Library retrieves the URL through the fallback client.
func (f *Fetcher) Library(ctx context.Context, url string) ([]byte, error) {
	if f.library == nil {
		return nil, fmt.Errorf("no fallback fetch client configured")
	}
	return f.library.FetchURL(ctx, url)
}
