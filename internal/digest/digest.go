// Package digest turns raw feed items into a curated digest, either by
// calling an LLM provider or by a deterministic fallback.
package digest

import (
	"fmt"
	"time"

	"github.com/piyush0609/ai-pulse/internal/feed"
)

// Source records how a digest was produced. It is authoritative: a digest
// built by the fallback path is always tagged SourceAlgorithmic, even when
// the LLM path was attempted first.
type Source string

const (
	SourceAlgorithmic Source = "algorithmic"
	SourceLLM         Source = "llm"
)

// Mood drives presentation only.
type Mood string

const (
	MoodExciting      Mood = "exciting"
	MoodPractical     Mood = "practical"
	MoodWorthWatching Mood = "worth-watching"
	MoodJustFYI       Mood = "just-fyi"
)

// ParseMood validates a mood string, defaulting to just-fyi.
func ParseMood(s string) Mood {
	switch Mood(s) {
	case MoodExciting, MoodPractical, MoodWorthWatching, MoodJustFYI:
		return Mood(s)
	default:
		return MoodJustFYI
	}
}

// Highlight is one annotated item embedded in a theme.
type Highlight struct {
	Item       feed.Item `json:"item"`
	WhyMatters string    `json:"whyMatters"`
	ForYou     string    `json:"forYou"`
}

// Theme is a narrative grouping of highlights.
type Theme struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Mood        Mood        `json:"mood"`
	Items       []Highlight `json:"items"`
}

// Digest is the synthesis result. It is never mutated after creation.
type Digest struct {
	ID          string      `json:"id"`
	GeneratedAt feed.Time   `json:"generatedAt"`
	Summary     string      `json:"summary"`
	Themes      []Theme     `json:"themes"`
	Highlights  []Highlight `json:"highlights"`
	ItemCount   int         `json:"itemCount"`
	ClosingNote string      `json:"closingNote"`
	Source      Source      `json:"source"`
}

// Payload is the wire form of a digest: the digest itself plus the first
// slice of the raw input as auxiliary context. All timestamps marshal to
// canonical text via feed.Time.
type Payload struct {
	Digest
	AllItems []feed.Item `json:"allItems"`
}

// maxPayloadItems caps both the LLM input and the auxiliary item list.
const maxPayloadItems = 60

// NewPayload wraps a digest for transmission, truncating the raw item list.
func NewPayload(d *Digest, items []feed.Item) *Payload {
	all := items
	if len(all) > maxPayloadItems {
		all = all[:maxPayloadItems]
	}
	return &Payload{Digest: *d, AllItems: all}
}

// newID encodes the synthesis path into the digest id for debuggability.
func newID(source Source, now time.Time) string {
	if source == SourceLLM {
		return fmt.Sprintf("digest-llm-%d", now.UnixMilli())
	}
	return fmt.Sprintf("digest-%d", now.UnixMilli())
}
