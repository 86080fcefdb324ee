package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/piyush0609/ai-pulse/internal/classify"
	"github.com/piyush0609/ai-pulse/internal/feed"
)

const synthesisPrompt = `You are the editorial brain of AI Pulse. Your readers are regular people — not developers — who feel overwhelmed by AI news. Your job: pick 8-12 items that actually matter, skip everything else, group them into narrative themes, and explain each one clearly.

SKIP these (do NOT include):
- Bare model names like "Qwen/Qwen3.5-35B" — nobody knows what these are
- Version bumps, changelogs, patch notes
- Items where the title is just a repo name or username
- Anything you can't explain to someone who doesn't code

KEEP these:
- New tools regular people can try
- Big company moves that affect the products people use
- AI safety/policy news that affects everyone
- Community discussions that reveal real trends
- Practical tutorials someone could actually follow

THEME TITLES must tell a story, not name a category:
- GOOD: "The AI you already use is about to change"
- BAD: "New AI Tools and Models"

For each item you include:
- "whyMatters": One or two SHORT sentences specific to THIS item.
- "forYou": One concrete suggestion or an honest "Just good to know."

CLOSING: One warm sentence. Not corporate.

Respond with ONLY valid JSON (no markdown fences, no explanation before or after).
Output structure:
{
  "summary": "3-4 sentences referencing specific items",
  "themes": [{ "title": "...", "description": "...", "mood": "exciting|practical|worth-watching|just-fyi", "items": [{ "index": N, "whyMatters": "...", "forYou": "..." }] }],
  "closingNote": "..."
}
"index" = position in the input list.`

const maxItemsPerLLMTheme = 4

// provider describes one completion API dialect: where to send the request
// and how to shape and unwrap it. Dispatch is by explicit configured id;
// key-prefix sniffing survives only as a migration shim for old configs.
type provider struct {
	name         string
	url          string
	defaultModel string
	headers      func(apiKey string) map[string]string
	body         func(model, system, user string) any
	extractText  func(data []byte) (string, error)
}

// Shared OpenAI-compatible wire types.

type chatRequest struct {
	Model          string        `json:"model"`
	MaxTokens      int           `json:"max_tokens"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *responseFmt  `json:"response_format,omitempty"`
	Messages       []chatMessage `json:"messages"`
}

type responseFmt struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Anthropic Messages API wire types.

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func bearerHeaders(apiKey string) map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + apiKey,
	}
}

func openAIBody(model, system, user string) any {
	return chatRequest{
		Model:          model,
		MaxTokens:      3000,
		Temperature:    0.7,
		ResponseFormat: &responseFmt{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
}

func openAIExtract(data []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

var providers = map[string]provider{
	"groq": {
		name:         "groq",
		url:          "https://api.groq.com/openai/v1/chat/completions",
		defaultModel: "llama-3.3-70b-versatile",
		headers:      bearerHeaders,
		body:         openAIBody,
		extractText:  openAIExtract,
	},
	"openai": {
		name:         "openai",
		url:          "https://api.openai.com/v1/chat/completions",
		defaultModel: "gpt-4o-mini",
		headers:      bearerHeaders,
		body:         openAIBody,
		extractText:  openAIExtract,
	},
	"anthropic": {
		name:         "anthropic",
		url:          "https://api.anthropic.com/v1/messages",
		defaultModel: "claude-haiku-4-5-20251001",
		headers: func(apiKey string) map[string]string {
			return map[string]string{
				"Content-Type":      "application/json",
				"x-api-key":         apiKey,
				"anthropic-version": "2023-06-01",
			}
		},
		body: func(model, system, user string) any {
			return anthropicRequest{
				Model:     model,
				MaxTokens: 3000,
				System:    system,
				Messages:  []chatMessage{{Role: "user", Content: user}},
			}
		},
		extractText: func(data []byte) (string, error) {
			var resp anthropicResponse
			if err := json.Unmarshal(data, &resp); err != nil {
				return "", err
			}
			if len(resp.Content) == 0 {
				return "", fmt.Errorf("empty completion response")
			}
			return resp.Content[0].Text, nil
		},
	},
}

// providerFor resolves the dialect. An explicit id always wins; otherwise
// fall back to sniffing the key prefix the way old configs relied on.
func providerFor(id, apiKey string) provider {
	if p, ok := providers[id]; ok {
		return p
	}
	switch {
	case strings.HasPrefix(apiKey, "gsk_"):
		return providers["groq"]
	case strings.HasPrefix(apiKey, "sk-"):
		return providers["openai"]
	default:
		return providers["anthropic"]
	}
}

// Synthesizer calls a completion provider to curate a digest. It makes a
// single attempt: under a serving deadline, staleness beats added latency,
// so there is deliberately no retry here.
type Synthesizer struct {
	apiKey   string
	model    string
	provider provider
	client   *http.Client
}

// NewSynthesizer selects the provider for the given id (or key prefix) and
// model override.
func NewSynthesizer(providerID, apiKey, model string) *Synthesizer {
	p := providerFor(providerID, apiKey)
	if model == "" {
		model = p.defaultModel
	}
	return &Synthesizer{
		apiKey:   apiKey,
		model:    model,
		provider: p,
		client:   &http.Client{Timeout: 45 * time.Second},
	}
}

// Provider returns the resolved provider name, for diagnostics.
func (s *Synthesizer) Provider() string {
	return s.provider.name
}

// promptItem is the bounded projection sent to the model. The index is the
// contract linking selections back to concrete items — the model is never
// asked to echo item content back.
type promptItem struct {
	Index       int               `json:"index"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Source      string            `json:"source"`
	Category    classify.Category `json:"category"`
	Date        string            `json:"date"`
	Engagement  int               `json:"engagement,omitempty"`
	IsNew       bool              `json:"isNew"`
}

type llmTheme struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Mood        string `json:"mood"`
	Items       []struct {
		Index      *float64 `json:"index"`
		WhyMatters string   `json:"whyMatters"`
		ForYou     string   `json:"forYou"`
	} `json:"items"`
}

type llmDigest struct {
	Summary     string     `json:"summary"`
	Themes      []llmTheme `json:"themes"`
	ClosingNote string     `json:"closingNote"`
}

// Synthesize asks the provider for a curated digest. Any failure — HTTP,
// extraction, parsing — comes back as an error; the caller owns the
// decision to fall back to the algorithmic path.
func (s *Synthesizer) Synthesize(ctx context.Context, items []feed.Item) (*Digest, error) {
	input := items
	if len(input) > maxPayloadItems {
		input = input[:maxPayloadItems]
	}
	prompt := make([]promptItem, len(input))
	for i, item := range input {
		prompt[i] = promptItem{
			Index:       i,
			Title:       item.Title,
			Description: truncateRunes(item.Description, 300),
			Source:      item.Source,
			Category:    item.Category,
			Date:        item.Date.Format("Jan 2, 2006"),
			Engagement:  item.Engagement,
			IsNew:       item.IsNew,
		}
	}

	promptJSON, err := json.MarshalIndent(prompt, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding prompt items: %w", err)
	}
	userMessage := fmt.Sprintf(
		"Here are %d recent AI news items. Curate a digest for people who are curious about AI but not deeply technical:\n\n%s",
		len(prompt), promptJSON)

	text, err := s.complete(ctx, synthesisPrompt, userMessage)
	if err != nil {
		return nil, err
	}

	raw, ok := extractObject(text)
	if !ok {
		return nil, fmt.Errorf("no JSON object in %s response: %s", s.provider.name, truncateRunes(text, 200))
	}

	var parsed llmDigest
	if err := json.Unmarshal([]byte(repairJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parsing %s response: %w (raw: %s)", s.provider.name, err, truncateRunes(raw, 200))
	}

	return buildLLMDigest(&parsed, items), nil
}

func (s *Synthesizer) complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(s.provider.body(s.model, system, user))
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.provider.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	for k, v := range s.provider.headers(s.apiKey) {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s request: %w", s.provider.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%s API %d: %s", s.provider.name, resp.StatusCode, truncateRunes(string(b), 200))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	return s.provider.extractText(data)
}

// buildLLMDigest maps the parsed model output back onto the original item
// slice. Item fields always come from the original array, never from
// anything the model echoed back, so the model cannot fabricate or corrupt
// links.
func buildLLMDigest(parsed *llmDigest, items []feed.Item) *Digest {
	now := time.Now()

	var allHighlights []Highlight
	var themes []Theme
	for _, t := range parsed.Themes {
		var picked []Highlight
		for _, ref := range t.Items {
			idx, ok := validIndex(ref.Index, len(items))
			if !ok {
				continue
			}
			h := Highlight{
				Item:       items[idx],
				WhyMatters: ref.WhyMatters,
				ForYou:     ref.ForYou,
			}
			picked = append(picked, h)
			allHighlights = append(allHighlights, h)
			if len(picked) >= maxItemsPerLLMTheme {
				break
			}
		}
		if len(picked) == 0 {
			continue
		}
		themes = append(themes, Theme{
			Title:       t.Title,
			Description: t.Description,
			Mood:        ParseMood(t.Mood),
			Items:       picked,
		})
	}

	summary := parsed.Summary
	if summary == "" {
		summary = fmt.Sprintf("Here's what stood out from %d items today.", len(items))
	}
	closing := parsed.ClosingNote
	if closing == "" {
		closing = "That's the picture. You're caught up."
	}
	if len(allHighlights) > maxHighlights {
		allHighlights = allHighlights[:maxHighlights]
	}

	return &Digest{
		ID:          newID(SourceLLM, now),
		GeneratedAt: feed.Time{Time: now},
		Summary:     summary,
		Themes:      themes,
		Highlights:  allHighlights,
		ItemCount:   len(items),
		ClosingNote: closing,
		Source:      SourceLLM,
	}
}

// validIndex accepts only integral indexes in range of the original list.
func validIndex(idx *float64, n int) (int, bool) {
	if idx == nil {
		return 0, false
	}
	i := int(*idx)
	if float64(i) != *idx || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
