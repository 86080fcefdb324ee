package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/piyush0609/ai-pulse/internal/config"
)

// hackerNewsFetcher pulls stories from the Algolia HN search API.
type hackerNewsFetcher struct {
	client *http.Client
}

type hnSearchResponse struct {
	Hits []hnHit `json:"hits"`
}

type hnHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	StoryText   string `json:"story_text"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAt   string `json:"created_at"`
}

func (f *hackerNewsFetcher) Fetch(ctx context.Context, source config.Source) ([]Item, error) {
	body, err := getBody(ctx, f.client, source.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	var parsed hnSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", source.Name, err)
	}

	items := make([]Item, 0, len(parsed.Hits))
	for _, hit := range parsed.Hits {
		if hit.Title == "" {
			continue
		}

		url := hit.URL
		if url == "" {
			url = "https://news.ycombinator.com/item?id=" + hit.ObjectID
		}

		desc := truncate(stripHTML(hit.StoryText), 300)
		if desc == "" {
			desc = fmt.Sprintf("%d points • %d comments", hit.Points, hit.NumComments)
		}

		date := time.Now()
		if t, err := time.Parse(time.RFC3339, hit.CreatedAt); err == nil {
			date = t
		}

		items = append(items, Item{
			ID:          ItemID(source.Name, hit.Title),
			Title:       hit.Title,
			Description: desc,
			URL:         url,
			Source:      source.Name,
			Date:        Time{date},
			Engagement:  hit.Points,
		})
	}
	return items, nil
}
