package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/piyush0609/ai-pulse/internal/config"
)

// redditFetcher reads a subreddit listing from the public JSON endpoint.
type redditFetcher struct {
	client *http.Client
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title      string  `json:"title"`
	SelfText   string  `json:"selftext"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	Stickied   bool    `json:"stickied"`
}

func (f *redditFetcher) Fetch(ctx context.Context, source config.Source) ([]Item, error) {
	body, err := getBody(ctx, f.client, source.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("decoding %s listing: %w", source.Name, err)
	}

	items := make([]Item, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Title == "" || post.Stickied {
			continue
		}

		url := post.URL
		if post.Permalink != "" {
			url = "https://www.reddit.com" + post.Permalink
		}

		items = append(items, Item{
			ID:          ItemID(source.Name, post.Title),
			Title:       post.Title,
			Description: truncate(stripHTML(post.SelfText), 300),
			URL:         url,
			Source:      source.Name,
			Date:        Time{time.Unix(int64(post.CreatedUTC), 0)},
			Engagement:  post.Score,
		})
	}
	return items, nil
}
