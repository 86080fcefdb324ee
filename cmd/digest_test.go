package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/piyush0609/ai-pulse/internal/digest"
	"github.com/piyush0609/ai-pulse/internal/feed"
)

func TestRenderPlain(t *testing.T) {
	d := &digest.Digest{
		ID:          "digest-1",
		GeneratedAt: feed.Time{Time: time.Date(2026, 8, 29, 9, 30, 0, 0, time.UTC)},
		Summary:     "Busy morning in agent land.",
		Themes: []digest.Theme{{
			Title:       "Agents",
			Description: "Frameworks are consolidating.",
			Mood:        digest.MoodExciting,
			Items: []digest.Highlight{{
				Item: feed.Item{Title: "Framework ships v1", Source: "HN"},
			}},
		}},
		Highlights: []digest.Highlight{{
			Item:       feed.Item{Title: "Framework ships v1", Source: "HN", URL: "https://example.com/v1"},
			WhyMatters: "First stable release in the space.",
		}},
		ItemCount:   42,
		ClosingNote: "See you tomorrow.",
		Source:      digest.SourceLLM,
	}
	out := renderPlain(digest.NewPayload(d, nil))

	for _, want := range []string{
		"Busy morning in agent land.",
		"## Agents [exciting]",
		"Framework ships v1 (HN)",
		"https://example.com/v1",
		"First stable release in the space.",
		"See you tomorrow.",
		"42 items",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDigestOutputFlags(t *testing.T) {
	for _, name := range []string{"fresh", "json", "plain"} {
		if digestCmd.Flags().Lookup(name) == nil {
			t.Errorf("digest command missing --%s", name)
		}
	}

	if err := digestCmd.ParseFlags([]string{"--json", "--plain"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := digestCmd.ValidateFlagGroups(); err == nil {
		t.Error("--json and --plain together should be rejected")
	}
	flagDigestJSON = false
	flagDigestPlain = false
}

func TestRenderPlainMinimalDigest(t *testing.T) {
	d := &digest.Digest{
		GeneratedAt: feed.Time{Time: time.Now()},
		Summary:     "Quiet day.",
		Source:      digest.SourceAlgorithmic,
	}
	out := renderPlain(digest.NewPayload(d, nil))
	if strings.Contains(out, "## Highlights") {
		t.Error("empty highlight list should not render a section")
	}
	if !strings.Contains(out, "Quiet day.") {
		t.Error("summary missing")
	}
}
