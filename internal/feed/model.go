package feed

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/piyush0609/ai-pulse/internal/classify"
)

// Quality is a derived popularity tag. Empty when neither bar is met.
type Quality string

const (
	QualityHot Quality = "hot" // high engagement while still recent
	QualityTop Quality = "top" // very high cumulative engagement
)

const (
	hotEngagement = 100
	hotWindow     = 12 * time.Hour
	topEngagement = 500
	newWindow     = 24 * time.Hour
)

// timeLayout is the canonical wire form for timestamps: RFC 3339 with
// fixed millisecond precision, UTC.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Time marshals to the canonical timestamp text on any wire payload.
type Time struct {
	time.Time
}

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(timeLayout))
}

func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(timeLayout, s)
	if err != nil {
		// Older cache entries used plain RFC 3339.
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("parsing timestamp %q: %w", s, err)
		}
	}
	t.Time = parsed
	return nil
}

// Item is one normalized piece of aggregated content.
type Item struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	URL            string            `json:"url"`
	Source         string            `json:"source"`
	SourceIcon     string            `json:"sourceIcon,omitempty"`
	Date           Time              `json:"date"`
	Category       classify.Category `json:"category"`
	RelevanceScore int               `json:"relevanceScore"`
	Engagement     int               `json:"engagement,omitempty"`
	Quality        Quality           `json:"quality,omitempty"`
	IsNew          bool              `json:"isNew"`
}

// ItemID derives a stable short id from source name and title. Collisions
// are acceptable but rare; the id is used for de-duplication and list keys.
func ItemID(source, title string) string {
	h := sha256.Sum256([]byte(source + "|" + title))
	return fmt.Sprintf("%x", h[:8])
}

// enrich fills in the classifier and freshness fields. now is injected so
// the result is deterministic in tests.
func (i *Item) enrich(now time.Time) {
	i.Category, i.RelevanceScore = classify.Classify(i.Title, i.Description)
	age := now.Sub(i.Date.Time)
	i.IsNew = age < newWindow && age >= -time.Hour
	i.Quality = deriveQuality(i.Engagement, age)
}

func deriveQuality(engagement int, age time.Duration) Quality {
	switch {
	case engagement >= topEngagement:
		return QualityTop
	case engagement >= hotEngagement && age < hotWindow:
		return QualityHot
	default:
		return ""
	}
}
