// Package news fetches per-ticker headline feeds and extracts readable
// article content from linked pages.
package news

import (
	"bytes"
	"cmp"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// Headline is one normalized feed item for a ticker.
type Headline struct {
	GUID        string
	Title       string
	Link        string
	Description string
	PublishedAt *time.Time
}

type Fetcher struct {
	httpClient   *http.Client
	gofeedParser *gofeed.Parser
	userAgent    string
}

func NewFetcher(httpClient *http.Client, userAgent string) *Fetcher {
	return &Fetcher{
		httpClient:   httpClient,
		gofeedParser: gofeed.NewParser(),
		userAgent:    userAgent,
	}
}

// Run downloads the feed at feedURL and returns its normalized items. The
// URL is expected to carry the ticker already substituted in, see
// dataset.Config.FeedURLFor.
func (f *Fetcher) Run(ctx context.Context, feedURL string) ([]Headline, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	feed, err := f.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	headlines := make([]Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		headline := Headline{
			GUID:        cmp.Or(item.GUID, item.Link),
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
		}
		if item.PublishedParsed != nil {
			headline.PublishedAt = item.PublishedParsed
		}
		headlines = append(headlines, headline)
	}

	return headlines, nil
}

// FetchPage downloads an article page for content extraction.
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned HTTP %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
