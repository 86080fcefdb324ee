package feed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/piyush0609/ai-pulse/internal/classify"
)

func TestItemIDStable(t *testing.T) {
	a := ItemID("HN", "Some title")
	b := ItemID("HN", "Some title")
	if a != b {
		t.Errorf("same inputs must give the same id: %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Errorf("id length: %d", len(a))
	}
	if a == ItemID("Reddit", "Some title") {
		t.Error("different sources must give different ids")
	}
	if a == ItemID("HN", "Other title") {
		t.Error("different titles must give different ids")
	}
}

func TestTimeMarshalCanonical(t *testing.T) {
	ts := Time{time.Date(2026, 8, 29, 9, 30, 15, 123_000_000, time.FixedZone("IST", 5*3600+1800))}
	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Always UTC, always millisecond precision.
	if string(data) != `"2026-08-29T04:00:15.123Z"` {
		t.Errorf("got %s", data)
	}
}

func TestTimeUnmarshalRoundTrip(t *testing.T) {
	orig := Time{time.Date(2026, 8, 29, 9, 30, 15, 123_000_000, time.UTC)}
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Time
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Equal(orig.Time) {
		t.Errorf("round trip changed value: %v vs %v", got, orig)
	}
}

func TestTimeUnmarshalAcceptsPlainRFC3339(t *testing.T) {
	var got Time
	if err := json.Unmarshal([]byte(`"2026-08-29T09:30:15Z"`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Hour() != 9 || got.Minute() != 30 {
		t.Errorf("got %v", got)
	}
}

func TestTimeUnmarshalRejectsGarbage(t *testing.T) {
	var got Time
	if err := json.Unmarshal([]byte(`"yesterday"`), &got); err == nil {
		t.Error("expected error")
	}
}

func TestEnrich(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	item := Item{
		Title:       "New open source agent framework released on GitHub",
		Description: "A toolkit for building agents",
		Date:        Time{now.Add(-2 * time.Hour)},
		Engagement:  150,
	}
	item.enrich(now)

	if item.RelevanceScore <= 0 {
		t.Error("agent keywords should score")
	}
	if item.Category != classify.OpenSource {
		t.Errorf("category: %s", item.Category)
	}
	if !item.IsNew {
		t.Error("2h-old item is new")
	}
	if item.Quality != QualityHot {
		t.Errorf("150 engagement at 2h should be hot, got %q", item.Quality)
	}
}

func TestDeriveQuality(t *testing.T) {
	tests := []struct {
		name       string
		engagement int
		age        time.Duration
		want       Quality
	}{
		{"top overrides window", 600, 48 * time.Hour, QualityTop},
		{"hot inside window", 150, 2 * time.Hour, QualityHot},
		{"hot bar outside window", 150, 20 * time.Hour, ""},
		{"low engagement", 50, time.Hour, ""},
		{"exactly top", 500, 100 * time.Hour, QualityTop},
		{"exactly hot", 100, 11 * time.Hour, QualityHot},
	}
	for _, tt := range tests {
		if got := deriveQuality(tt.engagement, tt.age); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestEnrichIsNewWindow(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"an hour ago", now.Add(-time.Hour), true},
		{"just under a day", now.Add(-23 * time.Hour), true},
		{"over a day", now.Add(-25 * time.Hour), false},
		{"slight clock skew ahead", now.Add(30 * time.Minute), true},
		{"far future", now.Add(3 * time.Hour), false},
	}
	for _, tt := range tests {
		item := Item{Title: "whatever", Date: Time{tt.date}}
		item.enrich(now)
		if item.IsNew != tt.want {
			t.Errorf("%s: isNew = %v, want %v", tt.name, item.IsNew, tt.want)
		}
	}
}
