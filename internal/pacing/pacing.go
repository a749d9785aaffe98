// Package pacing provides the fixed delays that keep the pipeline within
// upstream rate limits.
package pacing

import (
	"context"
	"time"
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep waits for d, returning ctx.Err() if the context ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Recorder is a Sleeper that returns immediately and remembers every delay.
type Recorder struct {
	Delays []time.Duration
}

// Sleep records d without blocking.
func (r *Recorder) Sleep(ctx context.Context, d time.Duration) error {
	r.Delays = append(r.Delays, d)
	return ctx.Err()
}
