package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/piyush0609/ai-pulse/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHackerNewsFetcher(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hits":[
			{"objectID":"1","title":"New LLM benchmark","url":"https://example.com/bench","points":250,"num_comments":80,"created_at":"2026-08-29T08:00:00Z"},
			{"objectID":"2","title":"Self post","story_text":"<p>Some <b>body</b> text</p>","points":10,"num_comments":3,"created_at":"2026-08-29T07:00:00Z"},
			{"objectID":"3","title":"","points":5}
		]}`)
	}))
	defer ts.Close()

	f := &hackerNewsFetcher{client: ts.Client()}
	items, err := f.Fetch(context.Background(), config.Source{Name: "HN", URL: ts.URL})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items (titleless hit skipped), got %d", len(items))
	}
	if items[0].Engagement != 250 {
		t.Errorf("engagement: %d", items[0].Engagement)
	}
	if items[0].URL != "https://example.com/bench" {
		t.Errorf("url: %s", items[0].URL)
	}
	// Self posts without an outbound URL link back to the HN item.
	if items[1].URL != "https://news.ycombinator.com/item?id=2" {
		t.Errorf("self-post url: %s", items[1].URL)
	}
	if items[1].Description != "Some body text" {
		t.Errorf("expected stripped html, got %q", items[1].Description)
	}
}

func TestRedditFetcherSkipsStickied(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"children":[
			{"data":{"title":"Weekly thread","stickied":true,"score":500,"created_utc":1756450000}},
			{"data":{"title":"New model weights released","permalink":"/r/ml/comments/abc/post/","score":321,"created_utc":1756450000}}
		]}}`)
	}))
	defer ts.Close()

	f := &redditFetcher{client: ts.Client()}
	items, err := f.Fetch(context.Background(), config.Source{Name: "r/ml", URL: ts.URL})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected stickied post skipped, got %d items", len(items))
	}
	if items[0].URL != "https://www.reddit.com/r/ml/comments/abc/post/" {
		t.Errorf("url: %s", items[0].URL)
	}
	if items[0].Engagement != 321 {
		t.Errorf("engagement: %d", items[0].Engagement)
	}
}

func TestGitHubTrendingFetcher(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>
			<article class="Box-row">
				<h2><a href="/someorg/somerepo">somerepo</a></h2>
				<p> An agent framework </p>
				<a href="/someorg/somerepo/stargazers">12.3k</a>
			</article>
		</body></html>`)
	}))
	defer ts.Close()

	f := &githubTrendingFetcher{client: ts.Client()}
	items, err := f.Fetch(context.Background(), config.Source{Name: "GitHub Trending", URL: ts.URL})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items: %d", len(items))
	}
	if items[0].Title != "someorg/somerepo" {
		t.Errorf("title: %s", items[0].Title)
	}
	if items[0].URL != "https://github.com/someorg/somerepo" {
		t.Errorf("url: %s", items[0].URL)
	}
	if items[0].Engagement != 12300 {
		t.Errorf("stars: %d", items[0].Engagement)
	}
	if items[0].Description != "An agent framework" {
		t.Errorf("description: %q", items[0].Description)
	}
}

func TestParseStarCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1,234", 1234},
		{"12.3k", 12300},
		{" 987 ", 987},
		{"", 0},
		{"n/a", 0},
	}
	for _, tt := range tests {
		if got := parseStarCount(tt.in); got != tt.want {
			t.Errorf("parseStarCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestAggregatorToleratesSourceFailure(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hits":[{"objectID":"1","title":"Agent toolkit ships","points":50,"created_at":"2026-08-29T08:00:00Z"}]}`)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer bad.Close()

	agg := NewAggregator(testLogger())
	items := agg.FetchAll(context.Background(), []config.Source{
		{Name: "good", Type: "hackernews", URL: good.URL, Enabled: true},
		{Name: "bad", Type: "hackernews", URL: bad.URL, Enabled: true},
	})

	if len(items) != 1 {
		t.Fatalf("expected the healthy source's items, got %d", len(items))
	}
	if items[0].Category == "" || items[0].RelevanceScore == 0 {
		t.Error("aggregated items should come back enriched")
	}
}

func TestAggregatorSortsNewestFirst(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hits":[
			{"objectID":"1","title":"Older story","points":10,"created_at":"2026-08-28T08:00:00Z"},
			{"objectID":"2","title":"Newer story","points":10,"created_at":"2026-08-29T08:00:00Z"}
		]}`)
	}))
	defer ts.Close()

	agg := NewAggregator(testLogger())
	items := agg.FetchAll(context.Background(), []config.Source{
		{Name: "HN", Type: "hackernews", URL: ts.URL, Enabled: true},
	})
	if len(items) != 2 {
		t.Fatalf("items: %d", len(items))
	}
	if items[0].Title != "Newer story" {
		t.Errorf("expected newest first, got %q", items[0].Title)
	}
}

func TestCollectorFailsWhenEverythingIsDown(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer bad.Close()

	c := NewCollector(NewAggregator(testLogger()), []config.Source{
		{Name: "bad", Type: "hackernews", URL: bad.URL, Enabled: true},
	})
	if _, err := c.FetchAll(context.Background()); err == nil {
		t.Fatal("expected an error when no source produced items")
	}
}

func TestCollectorFailsWithNoSources(t *testing.T) {
	c := NewCollector(NewAggregator(testLogger()), nil)
	if _, err := c.FetchAll(context.Background()); err == nil {
		t.Fatal("expected an error with no sources")
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>hello <b>world</b></p>", "hello world"},
		{"no tags", "no tags"},
		{"  spaced\n\nout  ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := stripHTML(tt.in); got != tt.want {
			t.Errorf("stripHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 300); got != "short" {
		t.Errorf("got %q", got)
	}
	long := make([]byte, 0, 400)
	for i := 0; i < 400; i++ {
		long = append(long, 'a')
	}
	got := truncate(string(long), 300)
	if len([]rune(got)) != 300 {
		t.Errorf("length: %d", len([]rune(got)))
	}
	if got[len(got)-3:] != "..." {
		t.Error("expected ellipsis suffix")
	}
}
