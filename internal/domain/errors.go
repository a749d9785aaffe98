package domain

import (
	"errors"
	"fmt"
)

// ErrLowEngagement marks an item skipped because its score is below the floor.
// It is a deliberate skip rather than a failure.
var ErrLowEngagement = errors.New("score below engagement floor")

// FetchError wraps any network or decoding failure while reading a source.
type FetchError struct {
	Source string
	Term   string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Term == "" {
		return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("fetch %s %q: %v", e.Source, e.Term, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports an oracle response or log line that could not be decoded.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", Excerpt(e.Input, 200), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
