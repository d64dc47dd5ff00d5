package supervisor

import (
	"context"
	"time"
)

// Pacer spaces out successive spawns so browsers do not all start at once
type Pacer struct {
	Interval time.Duration
	// SkipAfterLast skips the wait after the final launch attempt
	SkipAfterLast bool
}

// DefaultPacer waits 30 seconds between launches and not after the last one
func DefaultPacer() Pacer {
	return Pacer{Interval: 30 * time.Second, SkipAfterLast: true}
}

// Due reports whether a wait is needed after attempt index (0-based) of total
func (p Pacer) Due(index, total int) bool {
	if p.Interval <= 0 {
		return false
	}
	if p.SkipAfterLast && index >= total-1 {
		return false
	}
	return true
}

// Wait blocks for the interval or until ctx is done
func (p Pacer) Wait(ctx context.Context) error {
	if p.Interval <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
