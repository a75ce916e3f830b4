// Package ingestion fetches raw content from subscribed source URLs and
// extracts the readable article text used to build digests.
package ingestion

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const (
	defaultFetchTimeout = 20 * time.Second
	maxBodyBytes        = 2 << 20 // 2 MiB is plenty for article extraction
	excerptRunes        = 600
	userAgent           = "dailybrief/1.0 (+https://lakonic.dev)"
)

// Article holds the extracted content for one source.
type Article struct {
	Title   string
	Text    string
	Excerpt string
}

// Fetcher retrieves a URL and reduces it to readable text.
type Fetcher struct {
	client          *http.Client
	htmlPolicy      *bluemonday.Policy
	stripTagsPolicy *bluemonday.Policy
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Fetcher{
		client:          &http.Client{Timeout: timeout},
		htmlPolicy:      bluemonday.UGCPolicy(),       // For cleaning HTML before Readability
		stripTagsPolicy: bluemonday.StripTagsPolicy(), // For the plain-text fallback
	}
}

// Fetch downloads rawURL and extracts the main article content. Readability
// failures fall back to stripped-tag text so a digest section can still be
// built from whatever the page offered.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Article, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Host == "" {
		return nil, fmt.Errorf("invalid source URL %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed for %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch of %s returned status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}

	return f.extract(string(body), pageURL)
}

func (f *Fetcher) extract(rawHTML string, pageURL *url.URL) (*Article, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, fmt.Errorf("empty response body from %s", pageURL.Host)
	}

	cleaned := f.htmlPolicy.Sanitize(rawHTML)

	article := &Article{}
	parsed, err := readability.FromReader(strings.NewReader(cleaned), pageURL)
	if err == nil && parsed.TextContent != "" {
		article.Title = parsed.Title
		article.Text = collapseWhitespace(parsed.TextContent)
	} else {
		if err != nil {
			log.Printf("WARN (Fetcher): Readability extraction failed for %s: %v. Falling back to stripped text.", pageURL.Host, err)
		}
		article.Text = collapseWhitespace(f.stripTagsPolicy.Sanitize(cleaned))
	}

	if article.Text == "" {
		return nil, fmt.Errorf("no readable content extracted from %s", pageURL.Host)
	}

	article.Excerpt = truncateRunes(article.Text, excerptRunes)
	return article, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "…"
}
