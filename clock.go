package mediarecorder

import (
	"sync"
	"time"
)

// mediaClock measures recording time. Paused intervals do not count.
type mediaClock struct {
	now func() time.Time

	lock     sync.Mutex
	start    time.Time
	pausedAt time.Time
	paused   time.Duration
}

func newMediaClock(now func() time.Time) *mediaClock {
	c := &mediaClock{now: now}
	c.start = now()
	return c
}

func (c *mediaClock) pause() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.pausedAt.IsZero() {
		c.pausedAt = c.now()
	}
}

func (c *mediaClock) resume() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.pausedAt.IsZero() {
		c.paused += c.now().Sub(c.pausedAt)
		c.pausedAt = time.Time{}
	}
}

func (c *mediaClock) elapsed() time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()
	end := c.now()
	if !c.pausedAt.IsZero() {
		end = c.pausedAt
	}
	return end.Sub(c.start) - c.paused
}
