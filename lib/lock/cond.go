package lock

import (
	"sync/atomic"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/clock"
	"github.com/go-i2p/oslock/lib/errs"
	"github.com/go-i2p/oslock/lib/native"
)

// condVar holds what CondVar and MonotonicCondVar share.
type condVar struct {
	native native.Cond
	valid  atomic.Bool
}

func (c *condVar) init(attr native.CondAttr, o options) error {
	nc, err := o.provider.NewCond(attr)
	if err != nil {
		log.WithFields(logger.Fields{
			"at":    "lock.(*condVar).init",
			"clock": attr.Clock.String(),
			"error": err.Error(),
		}).Debug("cond_init_failed")
		return errs.Wrap(errs.InitFailure, "lock", err, "condition variable init")
	}
	c.native = nc
	c.valid.Store(true)
	return nil
}

// Valid reports whether the condition variable was created successfully and is not closed.
func (c *condVar) Valid() bool {
	return c != nil && c.valid.Load()
}

func (c *condVar) invalid() error {
	return errs.New(errs.InvalidInstance, "lock", "condition variable is not valid")
}

// Signal wakes at most one waiter.
func (c *condVar) Signal() error {
	if !c.Valid() {
		return c.invalid()
	}
	return c.native.Signal()
}

// Broadcast wakes every waiter.
func (c *condVar) Broadcast() error {
	if !c.Valid() {
		return c.invalid()
	}
	return c.native.Broadcast()
}

// Wait releases w, blocks until woken and holds w again before returning. The caller must
// hold w exactly once. Wake-ups can be spurious, so callers wait in a loop over their
// predicate.
func (c *condVar) Wait(w Waitable) error {
	if !c.Valid() {
		return c.invalid()
	}
	m, err := w.nativeMutex()
	if err != nil {
		return err
	}
	return c.native.Wait(m)
}

// WaitUntil is Wait bounded by a deadline on the clock the condition variable was created
// with. On errs.ErrTimedOut w is held again.
func (c *condVar) WaitUntil(w Waitable, deadline clock.Time) error {
	if !c.Valid() {
		return c.invalid()
	}
	m, err := w.nativeMutex()
	if err != nil {
		return err
	}
	return c.native.WaitUntil(m, deadline)
}

// Close destroys the native condition variable. It fails while goroutines are waiting.
func (c *condVar) Close() error {
	if !c.valid.CompareAndSwap(true, false) {
		return nil
	}
	if err := c.native.Destroy(); err != nil {
		c.valid.Store(true)
		return errs.Wrap(errs.DestroyFailure, "lock", err, "condition variable destroy")
	}
	return nil
}

// CondVar is a condition variable whose deadlines are realtime by default.
type CondVar struct {
	condVar
}

// NewCondVar creates a realtime condition variable.
func NewCondVar(opts ...Option) (*CondVar, error) {
	return NewCondVarWithAttr(native.NewCondAttr(), opts...)
}

// NewCondVarWithAttr creates a condition variable bound to attr.Clock.
func NewCondVarWithAttr(attr native.CondAttr, opts ...Option) (*CondVar, error) {
	c := &CondVar{}
	return c, c.init(attr, buildOptions(opts))
}

// MonotonicCondVar is a condition variable bound to the monotonic clock, so its timeouts do
// not move when the wall clock is stepped.
type MonotonicCondVar struct {
	condVar
	src clock.Source
}

// NewMonotonicCondVar creates a monotonic condition variable.
func NewMonotonicCondVar(opts ...Option) (*MonotonicCondVar, error) {
	attr := native.NewCondAttr()
	attr.SetClock(clock.Monotonic)
	return newMonotonicCondVar(attr, buildOptions(opts))
}

// NewMonotonicCondVarWithAttr creates a monotonic condition variable from a caller-supplied
// attribute, which must select clock.Monotonic. Any other attribute yields
// errs.ErrAttributeNotMonotonic.
func NewMonotonicCondVarWithAttr(attr native.CondAttr, opts ...Option) (*MonotonicCondVar, error) {
	if !attr.IsMonotonic() {
		log.WithFields(logger.Fields{
			"at":    "lock.NewMonotonicCondVarWithAttr",
			"clock": attr.Clock.String(),
		}).Debug("attribute_not_monotonic")
		return &MonotonicCondVar{},
			errs.New(errs.AttributeNotMonotonic, "lock", "condition attribute clock is %s", attr.Clock)
	}
	return newMonotonicCondVar(attr, buildOptions(opts))
}

func newMonotonicCondVar(attr native.CondAttr, o options) (*MonotonicCondVar, error) {
	c := &MonotonicCondVar{src: o.source()}
	return c, c.init(attr, o)
}

// WaitFor waits on w for at most d, measured on the monotonic clock.
func (c *MonotonicCondVar) WaitFor(w Waitable, d clock.Duration) error {
	if !c.Valid() {
		return c.invalid()
	}
	deadline, err := monotonicDeadline(c.src, d)
	if err != nil {
		return err
	}
	return c.WaitUntil(w, deadline)
}

// monotonicDeadline returns now + d, clamped to clock.MaxTime.
func monotonicDeadline(src clock.Source, d clock.Duration) (clock.Time, error) {
	deadline, err := src.MonotonicNow()
	if err != nil {
		return clock.Time{}, err
	}
	_ = deadline.AddWith(clock.PolicySaturate, d)
	return deadline, nil
}
