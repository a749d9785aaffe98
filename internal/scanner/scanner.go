package scanner

import (
	"context"
	"fmt"

	"AhaAggregator/internal/domain"
)

// Request carries all parameters required to execute one upstream call.
type Request struct {
	SiteName string
	// Listing selects a per-channel listing; otherwise Term is a search query.
	Listing bool
	Term    string
	Limit   int
	BaseURL string
	Options map[string]string
}

// Scanner captures a single strategy implementation (Reddit, Hacker News, etc.).
// Returned items are already filtered and labelled but carry no ScrapedAt.
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.RawItem, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}
