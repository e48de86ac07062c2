package session

import (
	"context"
	"sync"
	"time"

	"github.com/sarthi-kalathiya/examsync/internal/model"
	"golang.org/x/sync/singleflight"
)

// Coalescer merges concurrent authoritative-profile fetches into one remote
// call and throttles back-to-back repeats. Callers inside the throttle window
// are deferred, not rejected: they wait out the remainder and then share a
// single fresh fetch.
type Coalescer struct {
	fetch    func(ctx context.Context) (*model.UserProfile, error)
	throttle time.Duration
	now      func() time.Time

	sf singleflight.Group

	mu            sync.Mutex
	lastCompleted time.Time
}

// newCoalescer wraps fetch. A zero throttle disables deferral.
func newCoalescer(fetch func(ctx context.Context) (*model.UserProfile, error), throttle time.Duration) *Coalescer {
	return &Coalescer{
		fetch:    fetch,
		throttle: throttle,
		now:      time.Now,
	}
}

// Fetch returns the authoritative profile, sharing any in-flight fetch with
// concurrent callers. Cancelling ctx abandons this caller's wait but never
// the shared flight other callers are attached to.
func (c *Coalescer) Fetch(ctx context.Context) (*model.UserProfile, error) {
	c.mu.Lock()
	wait := c.throttle - c.now().Sub(c.lastCompleted)
	c.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	v, err, _ := c.sf.Do("profile", func() (any, error) {
		profile, err := c.fetch(context.WithoutCancel(ctx))

		c.mu.Lock()
		c.lastCompleted = c.now()
		c.mu.Unlock()

		if err != nil {
			return nil, err
		}
		return profile, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.UserProfile), nil
}
