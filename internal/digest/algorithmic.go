package digest

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/piyush0609/ai-pulse/internal/classify"
	"github.com/piyush0609/ai-pulse/internal/feed"
)

// The fallback path is honest about being unintelligent: static templates
// per category, no fabricated insight.
type categoryMeta struct {
	title       string
	description string
	mood        Mood
}

var categoryThemes = map[classify.Category]categoryMeta{
	classify.Tool:       {"AI tools & products", "New tools and updates to ones people use.", MoodPractical},
	classify.Tutorial:   {"Guides & how-tos", "People sharing how to do things with AI.", MoodPractical},
	classify.Workflow:   {"Workflows & techniques", "Ways people are using AI in their work.", MoodWorthWatching},
	classify.OpenSource: {"Open source", "New models and projects anyone can use.", MoodWorthWatching},
	classify.Safety:     {"Safety & policy", "Safety research, regulation, and ethics.", MoodJustFYI},
	classify.News:       {"Other notable items", "Announcements, discussions, and news.", MoodExciting},
}

const (
	maxScoredItems   = 30
	maxItemsPerTheme = 3
	maxThemes        = 4
	maxHighlights    = 5
	minTitleLength   = 15
)

// SynthesizeAlgorithmic builds a digest without any network call. It never
// fails: zero viable items produce a digest with empty themes and
// highlights, with ItemCount still reflecting the full input.
func SynthesizeAlgorithmic(items []feed.Item) *Digest {
	now := time.Now()

	viable := make([]feed.Item, 0, len(items))
	for _, item := range items {
		if len(strings.TrimSpace(item.Title)) > minTitleLength && item.RelevanceScore > 0 {
			viable = append(viable, item)
		}
	}

	type scoredItem struct {
		item  feed.Item
		score float64
	}
	scored := make([]scoredItem, len(viable))
	for i, item := range viable {
		scored[i] = scoredItem{item: item, score: compositeScore(item)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > maxScoredItems {
		scored = scored[:maxScoredItems]
	}

	// Group by category, preserving first-seen order so output is stable.
	groups := map[classify.Category][]scoredItem{}
	var order []classify.Category
	for _, s := range scored {
		cat := s.item.Category
		if _, seen := groups[cat]; !seen {
			order = append(order, cat)
		}
		groups[cat] = append(groups[cat], s)
	}

	usedIDs := map[string]bool{}
	var themes []Theme
	for _, cat := range order {
		meta, ok := categoryThemes[cat]
		if !ok {
			meta = categoryThemes[classify.News]
		}

		// Greedy per-source diversity: skip an item if its source already
		// appears in this theme or the item landed in an earlier theme.
		sourceSeen := map[string]bool{}
		var picked []Highlight
		for _, s := range groups[cat] {
			if usedIDs[s.item.ID] || sourceSeen[s.item.Source] {
				continue
			}
			usedIDs[s.item.ID] = true
			sourceSeen[s.item.Source] = true
			picked = append(picked, Highlight{
				Item:       s.item,
				WhyMatters: fmt.Sprintf("From %s.", s.item.Source),
				ForYou:     "",
			})
			if len(picked) >= maxItemsPerTheme {
				break
			}
		}
		if len(picked) == 0 {
			continue
		}

		themes = append(themes, Theme{
			Title:       meta.title,
			Description: meta.description,
			Mood:        meta.mood,
			Items:       picked,
		})
	}

	var highlights []Highlight
	for _, t := range themes {
		highlights = append(highlights, t.Items...)
	}
	highlightCount := len(highlights)
	if len(highlights) > maxHighlights {
		highlights = highlights[:maxHighlights]
	}
	if len(themes) > maxThemes {
		themes = themes[:maxThemes]
	}

	return &Digest{
		ID:          newID(SourceAlgorithmic, now),
		GeneratedAt: feed.Time{Time: now},
		Summary: fmt.Sprintf("Here are %d items from %d collected across our sources. This is a basic view — configure an LLM API key for an intelligently curated digest.",
			highlightCount, len(items)),
		Themes:      themes,
		Highlights:  highlights,
		ItemCount:   len(items),
		ClosingNote: "That's what we found. Set GROQ_API_KEY or ANTHROPIC_API_KEY for smarter curation.",
		Source:      SourceAlgorithmic,
	}
}

// compositeScore ranks a viable item: relevance, plus a freshness bonus,
// plus a capped engagement bonus.
func compositeScore(item feed.Item) float64 {
	score := float64(item.RelevanceScore)
	if item.IsNew {
		score += 20
	}
	if item.Engagement > 0 {
		bonus := float64(item.Engagement) / 10
		if bonus > 30 {
			bonus = 30
		}
		score += bonus
	}
	return score
}
