package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"AhaAggregator/internal/config"
	"AhaAggregator/internal/domain"
	"AhaAggregator/internal/infrastructure/llm"
	"AhaAggregator/internal/infrastructure/scheduler"
	"AhaAggregator/internal/infrastructure/source"
	"AhaAggregator/internal/infrastructure/storage"
	"AhaAggregator/internal/infrastructure/telegram"
	"AhaAggregator/internal/logging"
	"AhaAggregator/internal/oracle"
	"AhaAggregator/internal/ports"
	"AhaAggregator/internal/render"
	"AhaAggregator/internal/scanner"
	"AhaAggregator/internal/usecase"
	"AhaAggregator/internal/vocab"
)

const (
	sourceTimeout = 30 * time.Second
	stopTimeout   = 5 * time.Minute
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg         config.Config
	logger      *slog.Logger
	runID       string
	pipeline    *usecase.Pipeline
	acceptedLog *storage.JSONLLog[domain.AcceptedMoment]
}

// New builds a runnable application instance. Only an unusable oracle
// provider configuration is an error here.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	runID := uuid.NewString()
	baseLogger = baseLogger.With("run_id", runID)

	v := vocab.New(
		cfg.Vocabulary.AhaPhrases,
		cfg.Vocabulary.AITools,
		toolMappings(cfg.Vocabulary.ToolMappings),
		cfg.Vocabulary.DefaultTool,
	)

	client := &http.Client{Timeout: sourceTimeout}
	registry := scanner.NewRegistry()
	registry.Register(source.NewRedditScanner(client, v))
	registry.Register(source.NewHackerNewsScanner(client, v, baseLogger.With("component", "scanner.hackernews")))

	itemSource := source.NewStrategySource(registry, cfg.Sites, nil, baseLogger.With("component", "source"))

	rawLog := storage.NewJSONLLog[domain.RawItem](cfg.Data.RawPath(), baseLogger.With("component", "log.raw"))
	classifiedLog := storage.NewJSONLLog[domain.ClassifiedItem](cfg.Data.ClassifiedPath(), baseLogger.With("component", "log.classified"))
	acceptedLog := storage.NewJSONLLog[domain.AcceptedMoment](cfg.Data.AcceptedPath(), baseLogger.With("component", "log.accepted"))

	completer, err := llm.NewCompleter(ctx, cfg.Oracle)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Collector: usecase.NewCollector(usecase.CollectorDeps{
			Source: itemSource,
			RawLog: rawLog,
			Logger: baseLogger.With("component", "collector"),
		}),
		Classifier: usecase.NewClassifier(usecase.ClassifierDeps{
			RawLog:        rawLog,
			ClassifiedLog: classifiedLog,
			AcceptedLog:   acceptedLog,
			Oracle:        oracle.New(completer, cfg.Classifier.ExcerptLimit),
			MinConfidence: cfg.Classifier.MinConfidence,
			MinScore:      cfg.Classifier.MinScore,
			Delay:         cfg.Classifier.Delay,
			Logger:        baseLogger.With("component", "classifier"),
		}),
		AcceptedLog: acceptedLog,
		Renderer:    render.NewFileRenderer(cfg.Render.Output, cfg.Render.Title),
		Notifier:    notifier,
		Logger:      baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:         cfg,
		logger:      baseLogger,
		runID:       runID,
		pipeline:    pipeline,
		acceptedLog: acceptedLog,
	}, nil
}

// RunID identifies this process in logs.
func (a *Application) RunID() string {
	return a.runID
}

// Run performs one full collect, classify, render pass.
func (a *Application) Run(ctx context.Context) (usecase.Summary, error) {
	var summary usecase.Summary
	err := a.withLock(func() error {
		var runErr error
		summary, runErr = a.pipeline.Run(ctx)
		return runErr
	})
	return summary, err
}

// RunEvery repeats Run every interval until ctx is cancelled. The lock is
// held for the whole loop.
func (a *Application) RunEvery(ctx context.Context, interval time.Duration) error {
	return a.withLock(func() error {
		driver := scheduler.NewIntervalScheduler(interval)
		sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		a.logger.Info("scheduler started", "interval", interval.String())

		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		if err := sched.Stop(stopCtx); err != nil {
			return fmt.Errorf("stop scheduler: %w", err)
		}
		a.logger.Info("scheduler stopped")
		return nil
	})
}

// Collect runs only the collection stage and returns the number of new items.
func (a *Application) Collect(ctx context.Context) (int, error) {
	var n int
	err := a.withLock(func() error {
		items, err := a.pipeline.Collect(ctx)
		n = len(items)
		return err
	})
	return n, err
}

// Classify runs only the classification stage.
func (a *Application) Classify(ctx context.Context) (usecase.ClassifyStats, error) {
	var stats usecase.ClassifyStats
	err := a.withLock(func() error {
		var classifyErr error
		_, stats, classifyErr = a.pipeline.Classify(ctx)
		return classifyErr
	})
	return stats, err
}

// Render writes the document from the accepted log.
func (a *Application) Render(ctx context.Context) (string, int, error) {
	var (
		output string
		total  int
	)
	err := a.withLock(func() error {
		var renderErr error
		output, total, renderErr = a.pipeline.Render(ctx)
		return renderErr
	})
	return output, total, err
}

// Export mirrors the accepted log into the SQLite database at dbPath.
func (a *Application) Export(ctx context.Context, dbPath string) (usecase.ExportStats, error) {
	var stats usecase.ExportStats
	err := a.withLock(func() error {
		repo, err := storage.OpenSQLite(ctx, dbPath)
		if err != nil {
			return err
		}
		defer repo.Close()

		exporter := usecase.NewExporter(a.acceptedLog, repo, a.logger.With("component", "exporter"))
		stats, err = exporter.Export(ctx)
		return err
	})
	return stats, err
}

func (a *Application) withLock(fn func() error) error {
	lock, err := storage.AcquireRunLock(a.cfg.Data.LockPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			a.logger.Warn("release run lock", "error", err)
		}
	}()
	return fn()
}

func toolMappings(in []config.ToolMappingConfig) []vocab.ToolMapping {
	out := make([]vocab.ToolMapping, 0, len(in))
	for _, m := range in {
		out = append(out, vocab.ToolMapping{Keywords: m.Keywords, Label: m.Label})
	}
	return out
}
