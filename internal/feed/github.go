package feed

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/piyush0609/ai-pulse/internal/config"
)

// githubTrendingFetcher scrapes the GitHub trending page. Trending has no
// API, so this parses the repo rows out of the HTML.
type githubTrendingFetcher struct {
	client *http.Client
}

func (f *githubTrendingFetcher) Fetch(ctx context.Context, source config.Source) ([]Item, error) {
	body, err := getBody(ctx, f.client, source.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s page: %w", source.Name, err)
	}

	now := time.Now()
	var items []Item
	doc.Find("article.Box-row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		href, ok := row.Find("h2 a").Attr("href")
		if !ok {
			return true
		}
		repo := strings.TrimPrefix(strings.TrimSpace(href), "/")
		desc := strings.TrimSpace(row.Find("p").First().Text())
		stars := parseStarCount(row.Find(`a[href$="/stargazers"]`).First().Text())

		items = append(items, Item{
			ID:          ItemID(source.Name, repo),
			Title:       repo,
			Description: truncate(desc, 300),
			URL:         "https://github.com/" + repo,
			Source:      source.Name,
			Date:        Time{now},
			Engagement:  stars,
		})
		return len(items) < 10
	})
	return items, nil
}

// parseStarCount handles "1,234" and "12.3k" star renderings.
func parseStarCount(s string) int {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if s == "" {
		return 0
	}
	if strings.HasSuffix(s, "k") {
		if f, err := strconv.ParseFloat(strings.TrimSuffix(s, "k"), 64); err == nil {
			return int(f * 1000)
		}
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
