package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"AhaAggregator/internal/domain"
	"AhaAggregator/internal/ports"
)

// PipelineDeps wires the stages and driven adapters into the pipeline.
type PipelineDeps struct {
	Collector   *Collector
	Classifier  *Classifier
	AcceptedLog ports.Log[domain.AcceptedMoment]
	Renderer    ports.Renderer
	Notifier    ports.Notifier
	Logger      *slog.Logger
}

// Pipeline implements the collect, classify, render workflow.
type Pipeline struct {
	collector   *Collector
	classifier  *Classifier
	acceptedLog ports.Log[domain.AcceptedMoment]
	renderer    ports.Renderer
	notifier    ports.Notifier
	logger      *slog.Logger
}

// Summary reports the outcome of one pipeline run.
type Summary struct {
	Collected     int
	Classify      ClassifyStats
	TotalAccepted int
	Output        string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		collector:   deps.Collector,
		classifier:  deps.Classifier,
		acceptedLog: deps.AcceptedLog,
		renderer:    deps.Renderer,
		notifier:    deps.Notifier,
		logger:      deps.Logger,
	}
}

// Run executes the three stages in order. Classification is skipped when the
// collector found nothing new; rendering always happens so the document
// reflects the current accepted log.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	p.info("step 1/3: collecting")
	collected, err := p.Collect(ctx)
	if err != nil {
		return summary, fmt.Errorf("collect: %w", err)
	}
	summary.Collected = len(collected)

	if len(collected) > 0 {
		p.info("step 2/3: classifying")
		_, stats, err := p.Classify(ctx)
		summary.Classify = stats
		if err != nil {
			return summary, fmt.Errorf("classify: %w", err)
		}
	} else {
		p.info("step 2/3: nothing new to classify")
	}

	p.info("step 3/3: rendering")
	output, total, err := p.Render(ctx)
	if err != nil {
		return summary, fmt.Errorf("render: %w", err)
	}
	summary.Output = output
	summary.TotalAccepted = total

	p.info("pipeline complete",
		"collected", summary.Collected,
		"accepted", summary.Classify.Accepted,
		"total_accepted", summary.TotalAccepted,
		"output", summary.Output,
	)
	return summary, nil
}

// Collect runs only the collection stage.
func (p *Pipeline) Collect(ctx context.Context) ([]domain.RawItem, error) {
	if p.collector == nil {
		return nil, fmt.Errorf("pipeline has no collector")
	}
	return p.collector.Collect(ctx)
}

// Classify runs only the classification stage and sends the digest of newly
// accepted moments, if a notifier is configured.
func (p *Pipeline) Classify(ctx context.Context) ([]domain.AcceptedMoment, ClassifyStats, error) {
	if p.classifier == nil {
		return nil, ClassifyStats{}, fmt.Errorf("pipeline has no classifier")
	}
	accepted, stats, err := p.classifier.Classify(ctx)
	if err != nil {
		return accepted, stats, err
	}
	p.notify(ctx, accepted)
	return accepted, stats, nil
}

// Render writes the document for the whole accepted log and returns its path
// and the number of moments rendered.
func (p *Pipeline) Render(ctx context.Context) (string, int, error) {
	if p.acceptedLog == nil || p.renderer == nil {
		return "", 0, fmt.Errorf("pipeline has no renderer")
	}
	moments, err := p.acceptedLog.Load(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("load accepted log: %w", err)
	}
	output, err := p.renderer.Render(ctx, moments)
	if err != nil {
		return "", 0, err
	}
	return output, len(moments), nil
}

func (p *Pipeline) notify(ctx context.Context, moments []domain.AcceptedMoment) {
	if p.notifier == nil || len(moments) == 0 {
		return
	}
	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(moments)); err != nil {
		p.warn("digest not delivered", "error", err)
	}
}

func buildDigestMessage(moments []domain.AcceptedMoment) string {
	if len(moments) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d new aha moments\n\n", len(moments))
	for _, m := range moments {
		fmt.Fprintf(&b, "- %s\n%s · %s · confidence %d\n",
			m.Title,
			m.AITool,
			m.Layer,
			m.Confidence)
		if m.Realization != "" {
			fmt.Fprintf(&b, "%s\n", m.Realization)
		}
		fmt.Fprintf(&b, "%s\n\n", m.URL)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
