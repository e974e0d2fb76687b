package level

import (
	"context"
	"time"
)

// maxBehind is how many intervals the clock may lag before it gives up on
// catching up and restarts its schedule from now.
const maxBehind = 2

// Clock calls a frame function at a fixed rate. Deadlines advance by whole
// intervals from the previous deadline rather than from when the frame ran,
// so scheduling error does not accumulate.
type Clock struct {
	interval time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClock ticks tickRate times per second.
func NewClock(tickRate float64) *Clock {
	return &Clock{
		interval: time.Duration(float64(time.Second) / tickRate),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

func (c *Clock) Interval() time.Duration { return c.interval }

// Run calls frame with the seconds elapsed since the previous frame until
// ctx is done, returning ctx's error.
func (c *Clock) Run(ctx context.Context, frame func(dt float64)) error {
	last := c.now()
	deadline := last.Add(c.interval)
	for {
		if err := c.sleep(ctx, deadline.Sub(c.now())); err != nil {
			return err
		}
		now := c.now()
		frame(now.Sub(last).Seconds())
		last = now
		deadline = nextDeadline(deadline, c.now(), c.interval)
	}
}

func nextDeadline(prev, now time.Time, interval time.Duration) time.Time {
	next := prev.Add(interval)
	if now.Sub(next) > maxBehind*interval {
		next = now.Add(interval)
	}
	return next
}

func sleepContext(ctx context.Context, d time.Duration) error {
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
