package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"AhaAggregator/internal/domain"
	"AhaAggregator/internal/pacing"
	"AhaAggregator/internal/ports"
)

// ClassifierDeps wires the three logs, the oracle and the acceptance rules.
type ClassifierDeps struct {
	RawLog        ports.Log[domain.RawItem]
	ClassifiedLog ports.Log[domain.ClassifiedItem]
	AcceptedLog   ports.Log[domain.AcceptedMoment]
	Oracle        ports.Oracle

	MinConfidence int
	MinScore      int
	Delay         time.Duration

	Sleep  pacing.Sleeper
	Now    func() time.Time
	Logger *slog.Logger
}

// Classifier sends unclassified raw items to the oracle, one at a time.
type Classifier struct {
	rawLog        ports.Log[domain.RawItem]
	classifiedLog ports.Log[domain.ClassifiedItem]
	acceptedLog   ports.Log[domain.AcceptedMoment]
	oracle        ports.Oracle

	minConfidence int
	minScore      int
	delay         time.Duration

	sleep  pacing.Sleeper
	now    func() time.Time
	logger *slog.Logger
}

// NewClassifier constructs the classification stage.
func NewClassifier(deps ClassifierDeps) *Classifier {
	sleep := deps.Sleep
	if sleep == nil {
		sleep = pacing.Sleep
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Classifier{
		rawLog:        deps.RawLog,
		classifiedLog: deps.ClassifiedLog,
		acceptedLog:   deps.AcceptedLog,
		oracle:        deps.Oracle,
		minConfidence: deps.MinConfidence,
		minScore:      deps.MinScore,
		delay:         deps.Delay,
		sleep:         sleep,
		now:           now,
		logger:        deps.Logger,
	}
}

// ClassifyStats counts what happened to each pending item.
type ClassifyStats struct {
	Pending       int
	LowEngagement int
	Failed        int
	Classified    int
	Accepted      int
}

// ClassifyAll classifies every raw item not yet in the classified log and
// returns the newly accepted moments.
func (c *Classifier) ClassifyAll(ctx context.Context) ([]domain.AcceptedMoment, error) {
	accepted, _, err := c.Classify(ctx)
	return accepted, err
}

// Classify is ClassifyAll with per-outcome counts. Oracle and parse failures
// skip the item; only log I/O and cancellation abort the batch.
func (c *Classifier) Classify(ctx context.Context) ([]domain.AcceptedMoment, ClassifyStats, error) {
	var stats ClassifyStats
	if c.rawLog == nil || c.classifiedLog == nil || c.acceptedLog == nil || c.oracle == nil {
		return nil, stats, fmt.Errorf("classifier is not configured")
	}

	raw, err := c.rawLog.Load(ctx)
	if err != nil {
		return nil, stats, fmt.Errorf("load raw log: %w", err)
	}
	done, err := c.classifiedLog.URLs(ctx)
	if err != nil {
		return nil, stats, fmt.Errorf("load classified urls: %w", err)
	}

	pending := SelectNew(raw, done)
	stats.Pending = len(pending)
	c.info("classify pending items", "pending", len(pending), "min_score", c.minScore, "min_confidence", c.minConfidence)

	var (
		out    []domain.AcceptedMoment
		called bool
	)
	for _, item := range pending {
		if err := checkEngagement(item, c.minScore); err != nil {
			stats.LowEngagement++
			c.debug("skip item", "url", item.URL, "score", item.Score, "reason", err)
			continue
		}

		if called {
			if err := c.sleep(ctx, c.delay); err != nil {
				return out, stats, err
			}
		}
		called = true

		result, err := c.oracle.Classify(ctx, item)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return out, stats, ctxErr
			}
			stats.Failed++
			c.warnFailure(item, err)
			continue
		}

		record := domain.ClassifiedItem{
			RawItem:              item,
			ClassificationResult: result,
			ClassifiedAt:         domain.NewTimestamp(c.now()),
		}
		if err := c.classifiedLog.Append(ctx, record); err != nil {
			return out, stats, fmt.Errorf("append classified item: %w", err)
		}
		stats.Classified++

		if !result.Accepted(c.minConfidence) {
			c.debug("rejected", "url", item.URL, "valid", result.IsValidAhaMoment, "confidence", result.Confidence)
			continue
		}

		moment := domain.AcceptedMoment{ClassifiedItem: record}
		if err := c.acceptedLog.Append(ctx, moment); err != nil {
			return out, stats, fmt.Errorf("append accepted moment: %w", err)
		}
		stats.Accepted++
		out = append(out, moment)
		c.info("accepted", "url", item.URL, "layer", result.Layer, "confidence", result.Confidence)
	}

	c.info("classification finished",
		"classified", stats.Classified,
		"accepted", stats.Accepted,
		"failed", stats.Failed,
		"low_engagement", stats.LowEngagement,
	)
	return out, stats, nil
}

func checkEngagement(item domain.RawItem, minScore int) error {
	if item.Score < minScore {
		return domain.ErrLowEngagement
	}
	return nil
}

func (c *Classifier) warnFailure(item domain.RawItem, err error) {
	var parseErr *domain.ParseError
	if errors.As(err, &parseErr) {
		c.warn("oracle reply unparseable", "url", item.URL, "error", parseErr.Err, "reply", domain.Excerpt(parseErr.Input, 200))
		return
	}
	c.warn("oracle call failed", "url", item.URL, "error", err)
}

func (c *Classifier) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Classifier) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Classifier) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
