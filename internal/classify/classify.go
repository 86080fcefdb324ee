package classify

import "strings"

// Category is the closed set of content tags.
type Category string

const (
	Safety     Category = "safety"
	Workflow   Category = "workflow"
	Tutorial   Category = "tutorial"
	Tool       Category = "tool"
	OpenSource Category = "open-source"
	News       Category = "news" // default when nothing matches
)

// AllCategories returns the categories in priority order. The order is
// policy: the same text can match several sets and the first match wins,
// so changing it changes classifications.
func AllCategories() []Category {
	return []Category{Safety, Workflow, Tutorial, Tool, OpenSource}
}

// relevanceKeywords maps keywords to point values. Matching is plain
// case-insensitive substring containment — no stemming, no tokenization —
// so overlapping keywords can double-count. That is accepted behavior.
var relevanceKeywords = []struct {
	keyword string
	points  int
}{
	{"agent", 15},
	{"claude", 12},
	{"gpt", 12},
	{"gemini", 12},
	{"anthropic", 10},
	{"openai", 10},
	{"copilot", 10},
	{"fine-tun", 8},
	{"llm", 8},
	{"open source", 8},
	{"alignment", 8},
	{"safety", 8},
	{"benchmark", 6},
	{"multimodal", 6},
	{"prompt", 6},
	{"rag", 6},
	{"workflow", 6},
	{"automation", 6},
	{"inference", 5},
	{"chatbot", 5},
	{"tutorial", 5},
	{"model", 4},
	{"release", 4},
	{"launch", 4},
}

// categoryChecks pairs each category with its trigger keywords, in the
// fixed priority order returned by AllCategories.
var categoryChecks = []struct {
	category Category
	keywords []string
}{
	{Safety, []string{"safety", "alignment", "regulation", "policy", "ethics", "governance", "jailbreak"}},
	{Workflow, []string{"workflow", "automation", "productivity", "how i ", "my setup", "use case", "in production"}},
	{Tutorial, []string{"tutorial", "guide", "how to", "learn", "course", "walkthrough", "step-by-step"}},
	{Tool, []string{"tool", "app", "launch", "release", "product", "startup", "feature"}},
	{OpenSource, []string{"open source", "open-source", "github", "weights", "hugging face", "self-host", "local model"}},
}

// Classify maps raw text to a category and a relevance score. It is a pure
// function of (title, description): same input, same output, no I/O.
func Classify(title, description string) (Category, int) {
	text := strings.ToLower(title + " " + description)
	return category(text), Score(text)
}

// Score sums the point values of every keyword present in the lowercased
// text, capped at 100.
func Score(loweredText string) int {
	score := 0
	for _, kw := range relevanceKeywords {
		if strings.Contains(loweredText, kw.keyword) {
			score += kw.points
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func category(loweredText string) Category {
	for _, check := range categoryChecks {
		for _, kw := range check.keywords {
			if strings.Contains(loweredText, kw) {
				return check.category
			}
		}
	}
	return News
}
