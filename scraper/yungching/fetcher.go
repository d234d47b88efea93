package yungching

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Fetcher returns the HTML of one listing page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// HTTPFetcher issues plain GET requests. It does not retry and keeps the
// library's default timeout.
type HTTPFetcher struct {
	client *resty.Client
}

func NewHTTPFetcher(userAgent string) *HTTPFetcher {
	client := resty.New().
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "text/html")
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode())
	}
	return resp.String(), nil
}
