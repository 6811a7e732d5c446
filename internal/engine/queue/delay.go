package queue

import "time"

type (
	// DelayTracker decides whether a timed queue is still waiting. It is
	// consulted once per tick with the time elapsed since the last tick
	DelayTracker interface {
		Waiting(now time.Time, delta time.Duration) bool
	}

	// Deadline waits until a wall-clock instant
	Deadline time.Time

	// Elapsed waits until enough tick time has accumulated, regardless of
	// wall-clock jumps between ticks
	Elapsed struct {
		remaining time.Duration
	}

	// Until waits until its predicate reports done
	Until func(now time.Time) bool
)

var (
	_ DelayTracker = Deadline{}
	_ DelayTracker = (*Elapsed)(nil)
	_ DelayTracker = Until(nil)
)

// Waiting implements DelayTracker
func (d Deadline) Waiting(now time.Time, _ time.Duration) bool {
	return now.Before(time.Time(d))
}

// NewElapsed creates a tracker that waits for d of accumulated tick time
func NewElapsed(d time.Duration) *Elapsed {
	return &Elapsed{remaining: d}
}

// Waiting implements DelayTracker
func (e *Elapsed) Waiting(_ time.Time, delta time.Duration) bool {
	e.remaining -= delta
	return e.remaining > 0
}

// Waiting implements DelayTracker
func (u Until) Waiting(now time.Time, _ time.Duration) bool {
	return !u(now)
}
