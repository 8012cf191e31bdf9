package must

import (
	"context"
	"time"
)

// Wait computes successive backoff delays capped to max.
type Wait struct {
	max        time.Duration
	current    time.Duration
	occurences int
}

func NewWait(max time.Duration) *Wait {
	return &Wait{
		max:        max,
		current:    time.Duration(time.Millisecond),
		occurences: 0,
	}
}

func (w *Wait) Reset() {
	w.current = time.Duration(time.Millisecond)
	w.occurences = 0
}

// Exponentially returns base doubled for every previous call, capped to max.
func (w *Wait) Exponentially(base time.Duration) time.Duration {
	w.current = min(base<<w.occurences, w.max)
	if w.current <= 0 {
		// shift overflow
		w.current = w.max
	}
	w.occurences++
	return w.current
}

// Sleep blocks for d or until ctx is done.
func (w *Wait) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
