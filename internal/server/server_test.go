package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/piyush0609/ai-pulse/internal/classify"
	"github.com/piyush0609/ai-pulse/internal/config"
	"github.com/piyush0609/ai-pulse/internal/feed"
	"github.com/piyush0609/ai-pulse/internal/service"
	"github.com/piyush0609/ai-pulse/internal/store"
)

type stubDigester struct {
	payload    []byte
	err        error
	events     []service.Event
	history    []store.Entry
	historyErr error
	lastFresh  bool
	refreshes  int
}

func (d *stubDigester) Digest(ctx context.Context, fresh bool) ([]byte, error) {
	d.lastFresh = fresh
	if fresh {
		d.refreshes++
	}
	return d.payload, d.err
}

func (d *stubDigester) Stream(ctx context.Context, fresh bool) <-chan service.Event {
	ch := make(chan service.Event, len(d.events))
	for _, ev := range d.events {
		ch <- ev
	}
	close(ch)
	return ch
}

func (d *stubDigester) Debug(ctx context.Context) (*service.DebugReport, error) {
	if d.err != nil {
		return nil, d.err
	}
	return &service.DebugReport{Debug: true, APIKeyPresent: true}, nil
}

func (d *stubDigester) Clear(ctx context.Context) error { return nil }

func (d *stubDigester) History(ctx context.Context, limit int) ([]store.Entry, error) {
	if d.historyErr != nil {
		return nil, d.historyErr
	}
	if limit < len(d.history) {
		return d.history[:limit], nil
	}
	return d.history, nil
}

type stubFetcher struct {
	items []feed.Item
	err   error
}

func (f *stubFetcher) FetchAll(ctx context.Context) ([]feed.Item, error) {
	return f.items, f.err
}

func testServer(d Digester, sources []config.Source) *httptest.Server {
	return testServerWithFeeds(d, &stubFetcher{}, sources)
}

func testServerWithFeeds(d Digester, f Fetcher, sources []config.Source) *httptest.Server {
	s := New(&Config{
		Digester: d,
		Feeds:    f,
		Sources:  sources,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return httptest.NewServer(s.Handler())
}

func TestDigestEndpoint(t *testing.T) {
	d := &stubDigester{payload: []byte(`{"id":"digest-1"}`)}
	ts := testServer(d, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/digest")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type: %s", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != `{"id":"digest-1"}` {
		t.Errorf("body: %s", body)
	}
	if d.lastFresh {
		t.Error("plain GET must not force a refresh")
	}
}

func TestDigestFreshParam(t *testing.T) {
	d := &stubDigester{payload: []byte(`{}`)}
	ts := testServer(d, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/digest?fresh=1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if !d.lastFresh {
		t.Error("fresh=1 should bypass the cache")
	}
}

func TestDigestFailureReturns502(t *testing.T) {
	d := &stubDigester{err: errors.New("feeds down")}
	ts := testServer(d, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/digest")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	var e map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e["error"] == "" {
		t.Error("expected an error message")
	}
	if strings.Contains(e["error"], "feeds down") {
		t.Error("internal error detail must not leak to clients")
	}
}

func TestDigestDebugParam(t *testing.T) {
	d := &stubDigester{payload: []byte(`{}`)}
	ts := testServer(d, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/digest?debug=1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var report service.DebugReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !report.Debug {
		t.Error("expected debug report")
	}
}

func TestRefreshRequiresPost(t *testing.T) {
	d := &stubDigester{payload: []byte(`{}`)}
	ts := testServer(d, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/digest/refresh")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status: %d", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/api/digest/refresh", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: %d", resp.StatusCode)
	}
	if d.refreshes != 1 {
		t.Errorf("expected one forced refresh, got %d", d.refreshes)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	now := time.Now()
	d := &stubDigester{history: []store.Entry{
		{ID: "new", CreatedAt: now, Digest: json.RawMessage(`{}`)},
		{ID: "old", CreatedAt: now.Add(-time.Hour), Digest: json.RawMessage(`{}`)},
	}}
	ts := testServer(d, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/digest/history?limit=1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var entries []store.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "new" {
		t.Errorf("entries: %+v", entries)
	}
}

func TestHistoryLimitValidation(t *testing.T) {
	ts := testServer(&stubDigester{}, nil)
	defer ts.Close()

	for _, q := range []string{"limit=0", "limit=101", "limit=abc"} {
		resp, err := http.Get(ts.URL + "/api/digest/history?" + q)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status %d", q, resp.StatusCode)
		}
	}
}

func TestFeedsEndpointReturnsItems(t *testing.T) {
	item := feed.Item{
		ID:             "abc123",
		Title:          "New agent framework ships a stable release",
		URL:            "https://example.com/a",
		Source:         "HN",
		Date:           feed.Time{Time: time.Now()},
		Category:       classify.Tool,
		RelevanceScore: 42,
		Engagement:     120,
	}
	ts := testServerWithFeeds(&stubDigester{}, &stubFetcher{items: []feed.Item{item}}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/feeds")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		Items     []feed.Item `json:"items"`
		FetchedAt feed.Time   `json:"fetchedAt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 1 {
		t.Fatalf("items: %d", len(out.Items))
	}
	got := out.Items[0]
	if got.Category != classify.Tool || got.RelevanceScore != 42 {
		t.Errorf("items should come back enriched: %+v", got)
	}
	if got.URL != item.URL || got.Engagement != item.Engagement {
		t.Errorf("item fields lost: %+v", got)
	}
	if out.FetchedAt.IsZero() {
		t.Error("fetchedAt missing")
	}
}

func TestFeedsEndpointFetchFailure(t *testing.T) {
	ts := testServerWithFeeds(&stubDigester{}, &stubFetcher{err: errors.New("all down")}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/feeds")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status: %d", resp.StatusCode)
	}
}

func TestFeedsEndpointListsEnabledSourcesOnly(t *testing.T) {
	sources := []config.Source{
		{Name: "HN", Type: "hackernews", Enabled: true},
		{Name: "Disabled", Type: "rss", Enabled: false},
	}
	ts := testServer(&stubDigester{}, sources)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/feeds")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		Sources []map[string]string `json:"sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Sources) != 1 || out.Sources[0]["name"] != "HN" {
		t.Errorf("sources: %+v", out.Sources)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := testServer(&stubDigester{}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: %d", resp.StatusCode)
	}
}

func TestStreamEndpointFrames(t *testing.T) {
	d := &stubDigester{events: []service.Event{
		{Type: service.EventFeedsFetching},
		{Type: service.EventFeedsDone, ItemCount: 12},
		{Type: service.EventSynthesizing},
		{Type: service.EventSynthesized, ThemeCount: 3, HighlightCount: 5},
		{Type: service.EventDigest, Payload: json.RawMessage(`{"id":"d1"}`)},
		{Type: service.EventDone},
	}}
	ts := testServer(d, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/digest/stream")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type: %s", ct)
	}

	var eventNames []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			eventNames = append(eventNames, name)
			continue
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			var ev service.Event
			if err := json.Unmarshal([]byte(data), &ev); err != nil {
				t.Fatalf("frame data is not valid json: %v", err)
			}
		}
	}

	want := []string{"feeds_fetching", "feeds_done", "synthesizing", "synthesized", "digest", "done"}
	if len(eventNames) != len(want) {
		t.Fatalf("expected %v, got %v", want, eventNames)
	}
	for i := range want {
		if eventNames[i] != want[i] {
			t.Errorf("frame %d: expected %s, got %s", i, want[i], eventNames[i])
		}
	}
}
