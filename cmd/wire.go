package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/piyush0609/ai-pulse/internal/config"
	"github.com/piyush0609/ai-pulse/internal/digest"
	"github.com/piyush0609/ai-pulse/internal/feed"
	"github.com/piyush0609/ai-pulse/internal/service"
	"github.com/piyush0609/ai-pulse/internal/store"
)

// app bundles everything a command needs after wiring.
type app struct {
	cfg     *config.Config
	service *service.Service
	feeds   *feed.Collector
	logger  *slog.Logger
	close   func()
}

// buildApp loads config and assembles the pipeline: feed collector, durable
// store (postgres when DATABASE_URL is set, local sqlite otherwise), memory
// slot, and the LLM synthesizer when an API key is available.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var st store.Store
	if connStr := cfg.Database(); connStr != "" {
		st, err = store.OpenPostgres(ctx, connStr, cfg.CacheTTLDuration(), cfg.RetentionDuration())
	} else {
		st, err = store.OpenSQLite(config.CachePath(), cfg.CacheTTLDuration(), cfg.RetentionDuration())
	}
	if err != nil {
		// A broken cache degrades to memory-only, it never blocks the digest.
		logger.Warn("opening digest cache failed, falling back to memory", "error", err)
		st = nil
	}

	var llm service.Synthesizer
	var keyPrefix string
	if key := cfg.LLMKey(); key != "" {
		llm = digest.NewSynthesizer(cfg.LLMProvider(), key, cfg.LLMModel())
		if len(key) > 4 {
			keyPrefix = key[:4]
		} else {
			keyPrefix = key
		}
	}

	collector := feed.NewCollector(feed.NewAggregator(logger), cfg.EnabledSources())

	svc := service.New(service.Config{
		Feeds:     collector,
		Store:     st,
		Memory:    store.NewMemorySlot(cfg.CacheTTLDuration()),
		LLM:       llm,
		Logger:    logger,
		KeyPrefix: keyPrefix,
	})

	closeFn := func() {
		if st != nil {
			if err := st.Close(); err != nil {
				logger.Warn("closing store", "error", err)
			}
		}
	}

	return &app{cfg: cfg, service: svc, feeds: collector, logger: logger, close: closeFn}, nil
}
