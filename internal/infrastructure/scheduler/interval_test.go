package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestIntervalSchedulerRunsImmediatelyAndRepeats(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewIntervalScheduler(10 * time.Millisecond)
	if err := s.Start(context.Background(), func(time.Time) { runs.Add(1) }); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if runs.Load() < 3 {
		t.Fatalf("expected at least 3 runs, got %d", runs.Load())
	}

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runs.Load() != after {
		t.Fatalf("job ran after Stop")
	}
}

func TestIntervalSchedulerStopsOnContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s := NewIntervalScheduler(time.Hour)
	started := make(chan struct{}, 1)
	if err := s.Start(ctx, func(time.Time) { started <- struct{}{} }); err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-started
	done := s.Done()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not exit after cancel")
	}
}

func TestIntervalSchedulerRejectsNonPositiveInterval(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(0)
	if err := s.Start(context.Background(), func(time.Time) {}); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop without Start: %v", err)
	}
}
