// Package service orchestrates digest delivery: cache lookup, feed fetch,
// synthesis, serialization, cache write.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/piyush0609/ai-pulse/internal/digest"
	"github.com/piyush0609/ai-pulse/internal/feed"
	"github.com/piyush0609/ai-pulse/internal/store"
)

// Fetcher is the feed-aggregation collaborator. A returned error is fatal
// to the request; per-source failures are the aggregator's business.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]feed.Item, error)
}

// Synthesizer is the LLM path. Errors are recoverable: the service falls
// back to the algorithmic path and tags the digest accordingly.
type Synthesizer interface {
	Synthesize(ctx context.Context, items []feed.Item) (*digest.Digest, error)
	Provider() string
}

// Config wires the service. Store may be nil (no durable cache configured);
// LLM may be nil (no API key, algorithmic only). Memory is required: it is
// the single-owner in-process fallback slot, passed in explicitly rather
// than hidden behind a global.
type Config struct {
	Feeds  Fetcher
	Store  store.Store
	Memory *store.MemorySlot
	LLM    Synthesizer
	Logger *slog.Logger
	// KeyPrefix is the first characters of the configured API key, kept
	// only for the debug surface.
	KeyPrefix string
}

type Service struct {
	feeds     Fetcher
	store     store.Store
	memory    *store.MemorySlot
	llm       Synthesizer
	logger    *slog.Logger
	keyPrefix string
}

func New(cfg Config) *Service {
	return &Service{
		feeds:     cfg.Feeds,
		store:     cfg.Store,
		memory:    cfg.Memory,
		llm:       cfg.LLM,
		logger:    cfg.Logger,
		keyPrefix: cfg.KeyPrefix,
	}
}

// Digest returns the serialized digest payload, serving from cache unless
// forceFresh is set. Only a feed-aggregation failure is fatal; every other
// failure degrades quality, never shape.
func (s *Service) Digest(ctx context.Context, forceFresh bool) ([]byte, error) {
	if !forceFresh {
		if data := s.lookupCache(ctx); data != nil {
			return data, nil
		}
	}
	data, _, err := s.generate(ctx)
	return data, err
}

// lookupCache consults the durable store when configured, else the memory
// slot. Read failures are swallowed and treated as a miss — a flaky cache
// must never block generation.
func (s *Service) lookupCache(ctx context.Context) []byte {
	if s.store == nil {
		return s.memory.Get()
	}
	data, err := s.store.GetCached(ctx)
	if err != nil {
		s.logger.Warn("cache read failed, treating as miss", "error", err)
		return nil
	}
	return data
}

// generate runs fetch → synthesize → serialize → cache-write and returns
// the payload plus the digest for progress reporting.
func (s *Service) generate(ctx context.Context) ([]byte, *digest.Digest, error) {
	items, err := s.feeds.FetchAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching feeds: %w", err)
	}

	d, _ := s.synthesize(ctx, items)

	data, err := json.Marshal(digest.NewPayload(d, items))
	if err != nil {
		return nil, nil, fmt.Errorf("serializing digest: %w", err)
	}

	s.persist(ctx, d.ID, data)
	return data, d, nil
}

// synthesize selects the LLM path when configured and explicitly matches
// on its result: any error falls back to the algorithmic path, so the
// source tag can never be mislabeled. The LLM error is returned for
// diagnostics only.
func (s *Service) synthesize(ctx context.Context, items []feed.Item) (*digest.Digest, error) {
	if s.llm == nil {
		return digest.SynthesizeAlgorithmic(items), nil
	}
	d, err := s.llm.Synthesize(ctx, items)
	if err != nil {
		s.logger.Warn("llm synthesis failed, using algorithmic fallback",
			"provider", s.llm.Provider(), "error", err)
		return digest.SynthesizeAlgorithmic(items), err
	}
	return d, nil
}

// persist writes the durable cache best-effort and unconditionally updates
// the memory slot, so this process always has some fallback even when the
// durable store is flaky.
func (s *Service) persist(ctx context.Context, id string, data []byte) {
	if s.store != nil {
		if err := s.store.Cache(ctx, id, data); err != nil {
			s.logger.Error("cache write failed", "id", id, "error", err)
		}
	}
	s.memory.Put(data)
}

// Clear removes all durable entries to force regeneration.
func (s *Service) Clear(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Clear(ctx)
}

// History returns recent digests, newest first. Durable store only.
func (s *Service) History(ctx context.Context, limit int) ([]store.Entry, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no durable cache configured")
	}
	return s.store.History(ctx, limit)
}

// DebugReport surfaces raw synthesis diagnostics. Strictly an operability
// tool, never the default path.
type DebugReport struct {
	Debug         bool          `json:"debug"`
	Source        digest.Source `json:"source"`
	ThemeCount    int           `json:"themeCount"`
	ItemCount     int           `json:"itemCount"`
	Summary       string        `json:"summary"`
	APIKeyPresent bool          `json:"apiKeyPresent"`
	APIKeyPrefix  string        `json:"apiKeyPrefix"`
	Provider      string        `json:"provider,omitempty"`
	LLMError      string        `json:"llmError,omitempty"`
	GeneratedAt   time.Time     `json:"generatedAt"`
}

// Debug bypasses the cache entirely and reports what synthesis did.
func (s *Service) Debug(ctx context.Context) (*DebugReport, error) {
	items, err := s.feeds.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching feeds: %w", err)
	}

	d, llmErr := s.synthesize(ctx, items)

	report := &DebugReport{
		Debug:         true,
		Source:        d.Source,
		ThemeCount:    len(d.Themes),
		ItemCount:     d.ItemCount,
		Summary:       truncate(d.Summary, 200),
		APIKeyPresent: s.llm != nil,
		APIKeyPrefix:  s.keyPrefix,
		GeneratedAt:   d.GeneratedAt.Time,
	}
	if s.llm != nil {
		report.Provider = s.llm.Provider()
	}
	if llmErr != nil {
		report.LLMError = llmErr.Error()
	}
	return report, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
