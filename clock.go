package breath

import (
	"context"
	"time"
)

// Clock abstracts the monotonic time source and the sleep primitive of the
// sampling loop.
type Clock interface {
	// Now returns the time elapsed since the clock started.
	Now() time.Duration
	// Sleep blocks for d or until ctx is done, in which case it returns
	// ctx.Err().
	Sleep(ctx context.Context, d time.Duration) error
}

type wallClock struct {
	start time.Time
}

// WallClock returns a Clock reading the monotonic system clock, starting now.
func WallClock() Clock {
	return wallClock{start: time.Now()}
}

// Now indirects time.Since.
func (c wallClock) Now() time.Duration {
	return time.Since(c.start)
}

// Sleep indirects time.NewTimer.
func (wallClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SimClock is a Clock whose time only moves when it sleeps. It lets a whole
// session run as fast as the processing allows.
type SimClock struct {
	t time.Duration
}

// Now returns the simulated time.
func (c *SimClock) Now() time.Duration {
	return c.t
}

// Sleep advances the simulated time by d.
func (c *SimClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d > 0 {
		c.t += d
	}
	return nil
}

// Advance moves the simulated time forward by d.
func (c *SimClock) Advance(d time.Duration) {
	c.t += d
}
