package testutil

import (
	"context"
	"sync"
	"time"
)

// RecordingSleeper records every requested sleep without actually sleeping.
//
// It satisfies retry.Sleeper and lets tests assert the exact sequence of
// backoff delays that would have been incurred.
type RecordingSleeper struct {
	mu    sync.Mutex
	slept []time.Duration
}

// Sleep records d and returns immediately. Returns the context's error if it
// is already cancelled, mirroring a real sleeper's cancellation behavior.
func (s *RecordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slept = append(s.slept, d)
	return nil
}

// Slept returns a copy of the recorded delays in order.
func (s *RecordingSleeper) Slept() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.slept))
	copy(out, s.slept)
	return out
}

// Reset clears the recorded delays.
func (s *RecordingSleeper) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slept = nil
}
