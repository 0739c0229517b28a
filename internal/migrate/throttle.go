package migrate

import (
	"context"
	"time"
)

// Throttle pauses the run between work items to respect Azure DevOps rate
// limits. Every Wait lasts the full delay, however long the preceding
// requests took.
type Throttle struct {
	delay time.Duration
}

// NewThrottle returns a throttle pausing for delay. A zero or negative delay
// never waits.
func NewThrottle(delay time.Duration) *Throttle {
	return &Throttle{delay: delay}
}

// Wait blocks for the delay or until ctx is done.
func (t *Throttle) Wait(ctx context.Context) error {
	if t.delay <= 0 {
		return nil
	}
	timer := time.NewTimer(t.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
