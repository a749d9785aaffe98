package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"AhaAggregator/internal/domain"
	"AhaAggregator/internal/ports"
)

// ExportStats reports one export pass.
type ExportStats struct {
	Read     int
	Exported int
	Skipped  int
	ByLayer  map[string]int
}

// Exporter mirrors the accepted log into a MomentRepository.
type Exporter struct {
	acceptedLog ports.Log[domain.AcceptedMoment]
	repository  ports.MomentRepository
	logger      *slog.Logger
}

// NewExporter wires the accepted log to a repository.
func NewExporter(acceptedLog ports.Log[domain.AcceptedMoment], repository ports.MomentRepository, logger *slog.Logger) *Exporter {
	return &Exporter{acceptedLog: acceptedLog, repository: repository, logger: logger}
}

// Export saves every accepted moment the repository does not hold yet.
func (e *Exporter) Export(ctx context.Context) (ExportStats, error) {
	var stats ExportStats
	if e.acceptedLog == nil || e.repository == nil {
		return stats, fmt.Errorf("exporter is not configured")
	}

	moments, err := e.acceptedLog.Load(ctx)
	if err != nil {
		return stats, fmt.Errorf("load accepted log: %w", err)
	}
	stats.Read = len(moments)

	urls := make([]string, 0, len(moments))
	for _, m := range moments {
		urls = append(urls, m.URL)
	}

	skip := map[string]bool{}
	if len(urls) > 0 {
		skip, err = e.repository.AlreadyExported(ctx, urls)
		if err != nil {
			return stats, fmt.Errorf("load exported: %w", err)
		}
	}

	for _, m := range moments {
		if m.URL == "" || skip[m.URL] {
			stats.Skipped++
			continue
		}
		if err := e.repository.SaveMoment(ctx, m); err != nil {
			return stats, fmt.Errorf("persist moment %s: %w", m.URL, err)
		}
		skip[m.URL] = true
		stats.Exported++
	}

	stats.ByLayer, err = e.repository.CountByLayer(ctx)
	if err != nil {
		return stats, fmt.Errorf("count by layer: %w", err)
	}

	if e.logger != nil {
		e.logger.Info("export complete", "read", stats.Read, "exported", stats.Exported, "skipped", stats.Skipped)
	}
	return stats, nil
}
