package native

import (
	"sync"
	"time"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/clock"
	"github.com/go-i2p/oslock/lib/errs"
)

// Cond is a native condition variable.
type Cond interface {
	// Signal wakes at most one waiter.
	Signal() error
	// Broadcast wakes every waiter.
	Broadcast() error
	// Wait atomically releases m, waits for a wake-up and reacquires m. Wake-ups may be
	// spurious; callers re-check their predicate.
	Wait(m Mutex) error
	// WaitUntil is Wait bounded by a deadline on the clock the Cond was created with. On
	// errs.ErrTimedOut m is held again.
	WaitUntil(m Mutex, deadline clock.Time) error
	// Destroy tears the condition down. A condition with waiters cannot be destroyed.
	Destroy() error
	// Clock returns the clock WaitUntil deadlines are measured against.
	Clock() clock.ID
}

type chanCond struct {
	clockID clock.ID
	src     func() clock.Source

	mu        sync.Mutex
	waiters   []chan struct{}
	destroyed bool
}

func newChanCond(id clock.ID, src func() clock.Source) *chanCond {
	return &chanCond{clockID: id, src: src}
}

func (c *chanCond) Clock() clock.ID { return c.clockID }

func (c *chanCond) Signal() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return errs.New(errs.NativeCallFailure, "native", "signal on destroyed condition")
	}
	if len(c.waiters) > 0 {
		close(c.waiters[0])
		c.waiters[0] = nil
		c.waiters = c.waiters[1:]
	}
	return nil
}

func (c *chanCond) Broadcast() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return errs.New(errs.NativeCallFailure, "native", "broadcast on destroyed condition")
	}
	for _, w := range c.waiters {
		close(w)
	}
	c.waiters = nil
	return nil
}

func (c *chanCond) Wait(m Mutex) error {
	return c.wait(m, nil)
}

func (c *chanCond) WaitUntil(m Mutex, deadline clock.Time) error {
	remaining, err := clock.Remaining(c.src(), c.clockID, deadline)
	if err != nil {
		return err
	}
	if remaining.IsZero() {
		return errs.ErrTimedOut
	}
	timer := time.NewTimer(remaining.AsDuration())
	defer timer.Stop()
	return c.wait(m, timer.C)
}

// wait registers the waiter before unlocking m, so a wake-up sent in between is kept.
func (c *chanCond) wait(m Mutex, timeout <-chan time.Time) error {
	if sm, ok := m.(*semMutex); ok && sm.heldRecursively() {
		return errs.New(errs.NativeCallFailure, "native", "wait on a recursively held mutex")
	}
	ch := make(chan struct{})
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return errs.New(errs.NativeCallFailure, "native", "wait on destroyed condition")
	}
	c.waiters = append(c.waiters, ch)
	c.mu.Unlock()

	if err := m.Unlock(); err != nil {
		c.remove(ch)
		return err
	}

	timedOut := false
	select {
	case <-ch:
	case <-timeout:
		// Losing the race against Signal means the wake-up was ours.
		timedOut = c.remove(ch)
	}

	if err := m.Lock(); err != nil {
		log.WithFields(logger.Fields{
			"at":    "native.(*chanCond).wait",
			"error": err.Error(),
		}).Error("relock_after_wait_failed")
		return err
	}
	if timedOut {
		return errs.ErrTimedOut
	}
	return nil
}

// remove drops ch from the waiter list and reports whether it was still there.
func (c *chanCond) remove(ch chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, w := range c.waiters {
		if w == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// Waiters returns the number of goroutines currently parked on c.
func (c *chanCond) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func (c *chanCond) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return errs.New(errs.NativeCallFailure, "native", "condition already destroyed")
	}
	if len(c.waiters) > 0 {
		return errs.New(errs.NativeCallFailure, "native", "condition has %d waiters", len(c.waiters))
	}
	c.destroyed = true
	return nil
}
