package ports

import (
	"context"
	"time"

	"AhaAggregator/internal/domain"
)

// ItemSource pulls candidate posts from every configured upstream.
// Individual upstream failures are absorbed by the implementation.
type ItemSource interface {
	FetchCandidates(ctx context.Context) ([]domain.RawItem, error)
}

// Log is an append-only, newline-delimited JSON record store keyed by URL.
type Log[T any] interface {
	Load(ctx context.Context) ([]T, error)
	URLs(ctx context.Context) (map[string]struct{}, error)
	Append(ctx context.Context, records ...T) error
}

// Completer sends a single prompt to a language model and returns its text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Oracle turns one raw item into a structured classification.
type Oracle interface {
	Classify(ctx context.Context, item domain.RawItem) (domain.ClassificationResult, error)
}

// Renderer writes the dashboard for the accepted set.
type Renderer interface {
	Render(ctx context.Context, moments []domain.AcceptedMoment) (string, error)
}

// Notifier streams digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// MomentRepository mirrors accepted moments into a queryable store.
type MomentRepository interface {
	AlreadyExported(ctx context.Context, urls []string) (map[string]bool, error)
	SaveMoment(ctx context.Context, moment domain.AcceptedMoment) error
	CountByLayer(ctx context.Context) (map[string]int, error)
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
