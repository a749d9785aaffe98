package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"AhaAggregator/internal/domain"
	"AhaAggregator/internal/ports"
)

const momentsSchema = `CREATE TABLE IF NOT EXISTS moments (
	url           TEXT PRIMARY KEY,
	source        TEXT NOT NULL,
	title         TEXT NOT NULL,
	ai_tool       TEXT NOT NULL,
	layer         TEXT NOT NULL,
	growth_levers TEXT NOT NULL,
	use_case      TEXT NOT NULL,
	quote         TEXT NOT NULL,
	realization   TEXT NOT NULL,
	provocation   TEXT NOT NULL,
	confidence    INTEGER NOT NULL,
	score         INTEGER NOT NULL,
	curated       INTEGER NOT NULL DEFAULT 0,
	classified_at TEXT NOT NULL,
	exported_at   TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteRepository mirrors accepted moments into a SQLite table for ad-hoc
// queries. Rows are never updated; re-exporting the same URL is a no-op.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ports.MomentRepository = (*SQLiteRepository)(nil)

// OpenSQLite opens (or creates) the database file and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, momentsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteRepository{db: db}, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// AlreadyExported returns the subset of urls that already have a row.
func (r *SQLiteRepository) AlreadyExported(ctx context.Context, urls []string) (map[string]bool, error) {
	if r.db == nil || len(urls) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := sq.Select("url").From("moments").Where(sq.Eq{"url": urls}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exported: %w", err)
	}

	result := make(map[string]bool)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan url: %w", err)
		}
		result[url] = true
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

// SaveMoment inserts the moment unless its URL is already present.
func (r *SQLiteRepository) SaveMoment(ctx context.Context, moment domain.AcceptedMoment) error {
	if r.db == nil {
		return nil
	}

	levers := make([]string, 0, len(moment.GrowthLevers))
	for _, l := range moment.GrowthLevers {
		levers = append(levers, string(l))
	}
	classifiedAt := ""
	if !moment.ClassifiedAt.IsZero() {
		classifiedAt = moment.ClassifiedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	query, args, err := sq.Insert("moments").
		Options("OR IGNORE").
		Columns("url", "source", "title", "ai_tool", "layer", "growth_levers", "use_case",
			"quote", "realization", "provocation", "confidence", "score", "curated", "classified_at").
		Values(moment.URL, string(moment.Source), moment.Title, moment.AITool, string(moment.Layer),
			strings.Join(levers, " "), moment.UseCase, moment.Quote, moment.Realization,
			moment.Provocation, int(moment.Confidence), moment.Score, moment.Curated, classifiedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert moment %s: %w", moment.URL, err)
	}
	return nil
}

// CountByLayer aggregates exported rows per layer.
func (r *SQLiteRepository) CountByLayer(ctx context.Context) (map[string]int, error) {
	query, args, err := sq.Select("layer", "COUNT(*)").From("moments").GroupBy("layer").OrderBy("layer").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count by layer: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			layer string
			count int
		)
		if err := rows.Scan(&layer, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[layer] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return counts, nil
}
