package feed

import (
	"context"
	"fmt"

	"github.com/piyush0609/ai-pulse/internal/config"
)

// Collector binds an Aggregator to a fixed source list, giving the digest
// pipeline a zero-argument fetch. Individual source failures are tolerated
// upstream; the collector only fails when the whole batch comes back empty,
// since a digest of nothing helps nobody.
type Collector struct {
	agg     *Aggregator
	sources []config.Source
}

func NewCollector(agg *Aggregator, sources []config.Source) *Collector {
	return &Collector{agg: agg, sources: sources}
}

func (c *Collector) FetchAll(ctx context.Context) ([]Item, error) {
	if len(c.sources) == 0 {
		return nil, fmt.Errorf("no sources enabled")
	}
	items := c.agg.FetchAll(ctx, c.sources)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("all %d sources failed or returned nothing", len(c.sources))
	}
	return items, nil
}
