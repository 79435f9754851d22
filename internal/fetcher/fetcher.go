// ABOUTME: Client for the reader proxy that turns a URL into readable text
// ABOUTME: Also derives a display title from the fetched content
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/harper/linky/internal/models"
)

// Client fetches the readable text of a page through a reader proxy
// (r.jina.ai compatible: GET <base>/<url> returns extracted text).
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a fetcher against the given reader base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Fetch returns the readable text for url. A non-2xx status or an
// empty body is a fetch failure; ingestion must not proceed on either.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("fetch url: %w", models.ErrEmptyInput)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url, nil)
	if err != nil {
		return "", fmt.Errorf("building fetch request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("failed to fetch content from reader: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading fetch response: %w", err)
	}

	content := strings.TrimSpace(string(body))
	if content == "" {
		return "", models.ErrNoContent
	}
	return content, nil
}

var titlePattern = regexp.MustCompile(`Title:\s*([^\n]+)`)

// Title derives a display title for url. It prefers an explicit
// "Title:" line in the fetched text, then the first non-empty line,
// and falls back to the URL's host. Best-effort: never returns an
// error, only a fallback.
func (c *Client) Title(ctx context.Context, url string) string {
	content, err := c.Fetch(ctx, url)
	if err != nil {
		return hostFallback(url)
	}

	if m := titlePattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > 100 {
			line = line[:100]
		}
		return line
	}
	return hostFallback(url)
}

// hostFallback reduces a URL to its host for use as a title.
func hostFallback(url string) string {
	url = strings.TrimPrefix(url, "https://")
	url = strings.TrimPrefix(url, "http://")
	if i := strings.Index(url, "/"); i >= 0 {
		url = url[:i]
	}
	return url
}
