package session

import (
	"context"
	"time"

	"k8s.io/utils/clock"
)

// countdown delivers one tick per interval until tick reports false or the
// countdown is stopped.
type countdown struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func startCountdown(c clock.WithTicker, interval time.Duration, tick func() bool) *countdown {
	ctx, cancel := context.WithCancel(context.Background())
	cd := &countdown{cancel: cancel, done: make(chan struct{})}
	// The ticker is registered before returning so a clock step right after
	// start is observed.
	ticker := c.NewTicker(interval)
	go func() {
		defer close(cd.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				if !tick() {
					return
				}
			}
		}
	}()
	return cd
}

// stop cancels the countdown without waiting for the goroutine, which may be
// blocked on the session lock held by the caller.
func (c *countdown) stop() {
	if c != nil {
		c.cancel()
	}
}
