// Package feed aggregates AI-related content from configured upstream
// sources into the normalized Item model.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/piyush0609/ai-pulse/internal/config"
)

const userAgent = "ai-pulse/1.0 (+https://github.com/piyush0609/ai-pulse)"

// Fetcher retrieves items from a single source.
type Fetcher interface {
	Fetch(ctx context.Context, source config.Source) ([]Item, error)
}

// Aggregator fans out to all enabled sources and merges the results.
type Aggregator struct {
	client   *http.Client
	logger   *slog.Logger
	fetchers map[string]Fetcher
}

func NewAggregator(logger *slog.Logger) *Aggregator {
	client := &http.Client{Timeout: 20 * time.Second}
	return &Aggregator{
		client: client,
		logger: logger,
		fetchers: map[string]Fetcher{
			"rss":             newRSSFetcher(),
			"hackernews":      &hackerNewsFetcher{client: client},
			"reddit":          &redditFetcher{client: client},
			"github-trending": &githubTrendingFetcher{client: client},
		},
	}
}

// FetchAll fetches every enabled source concurrently, tolerating individual
// failures. Items come back enriched (category, relevance, quality, isNew)
// and sorted newest-first. A single source failing never aborts the batch.
func (a *Aggregator) FetchAll(ctx context.Context, sources []config.Source) []Item {
	var (
		mu    sync.Mutex
		items []Item
		wg    sync.WaitGroup
	)

	for _, src := range sources {
		fetcher, ok := a.fetchers[src.Type]
		if !ok {
			a.logger.Warn("no fetcher for source type", "source", src.Name, "type", src.Type)
			continue
		}

		wg.Add(1)
		go func(f Fetcher, s config.Source) {
			defer wg.Done()
			fetched, err := f.Fetch(ctx, s)
			if err != nil {
				a.logger.Warn("source fetch failed", "source", s.Name, "error", err)
				return
			}
			for i := range fetched {
				fetched[i].SourceIcon = s.Icon
			}
			mu.Lock()
			items = append(items, fetched...)
			mu.Unlock()
		}(fetcher, src)
	}
	wg.Wait()

	now := time.Now()
	for i := range items {
		items[i].enrich(now)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.After(items[j].Date.Time)
	})
	return items
}

// getBody issues a GET with backoff and returns the response body. Retries
// stop early on 4xx responses, which won't improve on a second attempt.
func getBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("User-Agent", userAgent)

			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				err := fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
				if resp.StatusCode >= 400 && resp.StatusCode < 500 {
					return retry.Unrecoverable(err)
				}
				return err
			}

			body, err = io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			return err
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

func stripHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
