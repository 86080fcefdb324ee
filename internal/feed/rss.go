package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/piyush0609/ai-pulse/internal/config"
)

type rssFetcher struct {
	parser *gofeed.Parser
}

func newRSSFetcher() *rssFetcher {
	p := gofeed.NewParser()
	p.UserAgent = userAgent
	return &rssFetcher{parser: p}
}

func (f *rssFetcher) Fetch(ctx context.Context, source config.Source) ([]Item, error) {
	parsed, err := f.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	now := time.Now()
	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry.Title == "" {
			continue
		}
		pub := now
		if entry.PublishedParsed != nil {
			pub = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			pub = *entry.UpdatedParsed
		}

		desc := entry.Description
		if desc == "" {
			desc = entry.Content
		}

		items = append(items, Item{
			ID:          ItemID(source.Name, entry.Title),
			Title:       entry.Title,
			Description: truncate(stripHTML(desc), 300),
			URL:         entry.Link,
			Source:      source.Name,
			Date:        Time{pub},
		})
		if len(items) >= 15 {
			break
		}
	}
	return items, nil
}
