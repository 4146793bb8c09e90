// Package source fetches posts for one account from alternative front-end
// mirrors. Each mirror serves the same upstream feed as an RSS document or,
// when that is unavailable, as an HTML timeline page whose markup varies
// between instances and over time.
package source

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/0x0BSoD/tweetRelay/internal/model"
)

const (
	// maxItems caps how many posts a single fetch yields; mirrors list far
	// more history than one cycle ever needs.
	maxItems = 5

	// minTextLen filters out UI chrome misidentified as post text.
	minTextLen = 10

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type Mirror struct {
	BaseURL string
	Account string

	feedTimeout time.Duration
	pageTimeout time.Duration
}

func NewMirror(baseURL, account string, feedTimeout, pageTimeout time.Duration) *Mirror {
	return &Mirror{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Account:     account,
		feedTimeout: feedTimeout,
		pageTimeout: pageTimeout,
	}
}

func (m *Mirror) Name() string {
	return m.BaseURL
}

// Fetch retrieves the most recent posts from this mirror. The RSS document is
// preferred; the HTML timeline is a fallback for instances that disable feeds.
// An empty result with a nil error means the mirror answered but exposed no
// usable posts, which callers treat as "try the next mirror".
func (m *Mirror) Fetch(ctx context.Context) ([]model.Item, error) {
	items, feedErr := m.fetchFeed(ctx)
	if feedErr == nil && len(items) > 0 {
		return items, nil
	}

	items, pageErr := m.fetchPage(ctx)
	if pageErr != nil {
		if feedErr != nil {
			return nil, fmt.Errorf("rss: %v; html: %w", feedErr, pageErr)
		}
		return nil, pageErr
	}

	return items, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

// get performs the retrieval, retrying once without TLS verification when the
// transport layer fails. Mirrors frequently run on self-signed or expired
// certificates; the content is public and read-only, so this is a trust
// relaxation the service accepts. A non-2xx answer is not retried insecurely
// since the server was already reached.
func (m *Mirror) get(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	body, err := m.doGet(ctx, url, timeout, false)
	if err == nil {
		return body, nil
	}

	var se *statusError
	if errors.As(err, &se) || ctx.Err() != nil {
		return nil, err
	}

	return m.doGet(ctx, url, timeout, true)
}

func (m *Mirror) doGet(ctx context.Context, url string, timeout time.Duration, insecure bool) ([]byte, error) {
	client := &http.Client{Timeout: timeout}
	if insecure {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}

	return io.ReadAll(resp.Body)
}
