package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"AhaAggregator/internal/domain"
	"AhaAggregator/internal/ports"
)

// JSONLLog is an append-only newline-delimited JSON file. Corrupt lines are
// skipped on read and never rewritten.
type JSONLLog[T any] struct {
	path   string
	logger *slog.Logger
}

var (
	_ ports.Log[domain.RawItem]        = (*JSONLLog[domain.RawItem])(nil)
	_ ports.Log[domain.ClassifiedItem] = (*JSONLLog[domain.ClassifiedItem])(nil)
	_ ports.Log[domain.AcceptedMoment] = (*JSONLLog[domain.AcceptedMoment])(nil)
)

// NewJSONLLog binds a log to path. The file is created lazily on first append.
func NewJSONLLog[T any](path string, log *slog.Logger) *JSONLLog[T] {
	return &JSONLLog[T]{path: path, logger: log}
}

// Path returns the backing file.
func (l *JSONLLog[T]) Path() string {
	return l.path
}

// Load decodes every readable record in file order. A missing file is empty.
func (l *JSONLLog[T]) Load(ctx context.Context) ([]T, error) {
	var records []T
	err := l.scan(ctx, func(line []byte) error {
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			return &domain.ParseError{Input: string(line), Err: err}
		}
		records = append(records, record)
		return nil
	})
	return records, err
}

// URLs returns the set of url values present in the log.
func (l *JSONLLog[T]) URLs(ctx context.Context) (map[string]struct{}, error) {
	urls := map[string]struct{}{}
	err := l.scan(ctx, func(line []byte) error {
		var keyed struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(line, &keyed); err != nil {
			return &domain.ParseError{Input: string(line), Err: err}
		}
		urls[keyed.URL] = struct{}{}
		return nil
	})
	return urls, err
}

// Append writes records at the end of the file, one per line, in order.
func (l *JSONLLog[T]) Append(ctx context.Context, records ...T) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("ensure log dir: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", l.path, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, record := range records {
		if err := enc.Encode(record); err != nil {
			_ = file.Close()
			return fmt.Errorf("encode record: %w", err)
		}
	}

	if _, err := file.Write(buf.Bytes()); err != nil {
		_ = file.Close()
		return fmt.Errorf("append to %s: %w", l.path, err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close log %s: %w", l.path, err)
	}
	return nil
}

func (l *JSONLLog[T]) scan(ctx context.Context, fn func(line []byte) error) error {
	file, err := os.Open(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open log %s: %w", l.path, err)
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	lineNo := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read log %s: %w", l.path, readErr)
		}
		lineNo++

		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			if err := fn(line); err != nil {
				var parseErr *domain.ParseError
				if !errors.As(err, &parseErr) {
					return err
				}
				if l.logger != nil {
					l.logger.Warn("skip corrupt log line", "path", l.path, "line", lineNo, "error", err)
				}
			}
		}

		if errors.Is(readErr, io.EOF) {
			return nil
		}
	}
}
