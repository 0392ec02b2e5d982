package capture

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Display delivers refresh ticks. RequestFrame schedules cb to run once on
// the next tick; the returned function cancels the request if it has not
// fired yet.
type Display interface {
	RequestFrame(cb func(now time.Time)) (cancel func())
}

// RefreshClock is a Display ticking at a fixed rate.
type RefreshClock struct {
	limiter *rate.Limiter
}

func NewRefreshClock(fps int) *RefreshClock {
	if fps <= 0 {
		fps = 60
	}
	return &RefreshClock{
		limiter: rate.NewLimiter(rate.Limit(fps), 1),
	}
}

func (c *RefreshClock) RequestFrame(cb func(now time.Time)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	var once sync.Once
	go func() {
		if err := c.limiter.Wait(ctx); err != nil {
			return
		}
		once.Do(func() {
			if ctx.Err() == nil {
				cb(time.Now())
			}
		})
	}()
	return func() {
		once.Do(func() {})
		cancel()
	}
}
