package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"AhaAggregator/internal/config"
	"AhaAggregator/internal/domain"
	"AhaAggregator/internal/pacing"
	"AhaAggregator/internal/ports"
	"AhaAggregator/internal/scanner"
)

// StrategySource implements ItemSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	sites    []config.SiteConfig
	sleep    pacing.Sleeper
	logger   *slog.Logger
}

var _ ports.ItemSource = (*StrategySource)(nil)

// NewStrategySource wires scanner registry with config-defined sites.
func NewStrategySource(reg *scanner.Registry, sites []config.SiteConfig, sleep pacing.Sleeper, log *slog.Logger) *StrategySource {
	if sleep == nil {
		sleep = pacing.Sleep
	}
	return &StrategySource{
		registry: reg,
		sites:    sites,
		sleep:    sleep,
		logger:   log,
	}
}

// FetchCandidates runs every term of every site in order. A failing call is
// logged and contributes nothing; only cancellation or a misconfigured site
// stops the batch.
func (s *StrategySource) FetchCandidates(ctx context.Context) ([]domain.RawItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.info("fetch candidates", "sites", len(s.sites))

	var aggregated []domain.RawItem
	for _, site := range s.sites {
		strategy, err := s.registry.Resolve(site.Scanner)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", site.Name, err)
		}
		listing, err := isListing(site.Mode)
		if err != nil {
			return nil, fmt.Errorf("site %s: %w", site.Name, err)
		}

		for _, term := range site.Terms {
			s.info("query source", "site", site.Name, "scanner", site.Scanner, "mode", site.Mode, "term", term)

			results, err := strategy.Scan(ctx, scanner.Request{
				SiteName: site.Name,
				Listing:  listing,
				Term:     term,
				Limit:    site.Limit,
				BaseURL:  site.BaseURL,
				Options:  site.Options,
			})
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return aggregated, ctxErr
				}
				fetchErr := &domain.FetchError{Source: site.Name, Term: term, Err: err}
				s.warn("source fetch failed", "error", fetchErr)
				results = nil
			}

			s.debug("term produced items", "site", site.Name, "term", term, "count", len(results))
			aggregated = append(aggregated, results...)

			if err := s.sleep(ctx, site.Delay); err != nil {
				return aggregated, err
			}
		}
	}

	s.info("strategy source done", "total_items", len(aggregated))
	return aggregated, nil
}

func isListing(mode string) (bool, error) {
	switch mode {
	case config.ModeListing:
		return true, nil
	case config.ModeSearch, "":
		return false, nil
	default:
		return false, errors.New("unknown mode " + mode)
	}
}

func (s *StrategySource) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
