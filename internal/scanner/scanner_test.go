package scanner

import (
	"context"
	"testing"

	"AhaAggregator/internal/domain"
)

type stubScanner struct{ name string }

func (s stubScanner) Name() string { return s.name }

func (s stubScanner) Scan(context.Context, Request) ([]domain.RawItem, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	var reg Registry
	reg.Register(stubScanner{name: "reddit"})

	got, err := reg.Resolve("reddit")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Name() != "reddit" {
		t.Fatalf("unexpected scanner %q", got.Name())
	}
	if _, err := reg.Resolve("mastodon"); err == nil {
		t.Fatalf("expected error for unknown scanner")
	}
}
