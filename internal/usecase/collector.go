package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"AhaAggregator/internal/domain"
	"AhaAggregator/internal/ports"
)

// CollectorDeps wires the candidate source and the raw log.
type CollectorDeps struct {
	Source ports.ItemSource
	RawLog ports.Log[domain.RawItem]
	Now    func() time.Time
	Logger *slog.Logger
}

// Collector gathers new candidate posts into the raw log.
type Collector struct {
	source ports.ItemSource
	rawLog ports.Log[domain.RawItem]
	now    func() time.Time
	logger *slog.Logger
}

// NewCollector constructs the collection stage.
func NewCollector(deps CollectorDeps) *Collector {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Collector{
		source: deps.Source,
		rawLog: deps.RawLog,
		now:    now,
		logger: deps.Logger,
	}
}

// Collect fetches candidates, drops every URL already in the raw log, stamps
// the survivors and appends them in order.
func (c *Collector) Collect(ctx context.Context) ([]domain.RawItem, error) {
	if c.source == nil || c.rawLog == nil {
		return nil, fmt.Errorf("collector is not configured")
	}

	existing, err := c.rawLog.URLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load raw urls: %w", err)
	}

	candidates, err := c.source.FetchCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	fresh := SelectNew(candidates, existing)
	c.info("collected candidates", "fetched", len(candidates), "existing", len(existing), "new", len(fresh))
	if len(fresh) == 0 {
		return nil, nil
	}

	stamp := domain.NewTimestamp(c.now())
	for i := range fresh {
		fresh[i].ScrapedAt = stamp
	}

	if err := c.rawLog.Append(ctx, fresh...); err != nil {
		return nil, fmt.Errorf("append raw items: %w", err)
	}
	return fresh, nil
}

// Deduplicate keeps the first item seen for each URL. Items without a URL
// have no identity and are dropped.
func Deduplicate(items []domain.RawItem) []domain.RawItem {
	return SelectNew(items, nil)
}

// SelectNew deduplicates items and removes any whose URL is in existing.
func SelectNew(items []domain.RawItem, existing map[string]struct{}) []domain.RawItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.RawItem, 0, len(items))
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		if _, ok := existing[item.URL]; ok {
			continue
		}
		if _, ok := seen[item.URL]; ok {
			continue
		}
		seen[item.URL] = struct{}{}
		out = append(out, item)
	}
	return out
}

func (c *Collector) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}
