package lock

import (
	"sync/atomic"
	"time"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/clock"
	"github.com/go-i2p/oslock/lib/errs"
	"github.com/go-i2p/oslock/lib/goid"
	"github.com/go-i2p/oslock/lib/native"
)

// MonotonicLock is a reentrant lock. The goroutine holding it may acquire it again; it is
// free once every scope has been released. Timed acquisitions are measured on the monotonic
// clock.
//
// owner and count change only while mu is held. count > 0 exactly when owner names the
// goroutine inside the critical section. Waiters are not served in any particular order.
type MonotonicLock struct {
	mu    *Mutex
	cond  *MonotonicCondVar
	src   clock.Source
	valid atomic.Bool
	// users counts goroutines inside acquire, leaveScope or Holder; Close waits for it to
	// reach zero before destroying mu and cond.
	users atomic.Int32

	owner goid.ID
	count uint
}

// NewMonotonicLock creates an unlocked MonotonicLock. On error the returned lock is invalid.
func NewMonotonicLock(opts ...Option) (*MonotonicLock, error) {
	o := buildOptions(opts)
	l := &MonotonicLock{src: o.source()}

	mu, err := newMutex(native.NewMutexAttr(), o)
	l.mu = mu
	if err != nil {
		return l, err
	}

	attr := native.NewCondAttr()
	attr.SetClock(clock.Monotonic)
	cond, err := newMonotonicCondVar(attr, o)
	l.cond = cond
	if err != nil {
		if cerr := mu.Close(); cerr != nil {
			log.WithFields(logger.Fields{
				"at":    "lock.NewMonotonicLock",
				"error": cerr.Error(),
			}).Warn("mutex_close_after_failed_init")
		}
		return l, err
	}

	l.valid.Store(true)
	return l, nil
}

// Valid reports whether l was created successfully and has not been closed.
func (l *MonotonicLock) Valid() bool {
	return l != nil && l.valid.Load()
}

func (l *MonotonicLock) invalid() error {
	return errs.New(errs.InvalidInstance, "lock", "monotonic lock is not valid")
}

// MakeLockedScope blocks until the calling goroutine holds l.
func (l *MonotonicLock) MakeLockedScope() (*MonotonicLockedScope, error) {
	return l.acquire("lock", func() error {
		return l.cond.Wait(l.mu)
	})
}

// TryMakeLockedScope acquires l without waiting for another holder. It returns
// errs.ErrWouldBlock when a different goroutine holds l.
func (l *MonotonicLock) TryMakeLockedScope() (*MonotonicLockedScope, error) {
	return l.acquire("trylock", func() error {
		return errs.ErrWouldBlock
	})
}

// MakeLockedScopeUntil blocks until the calling goroutine holds l or the monotonic deadline
// passes, returning errs.ErrTimedOut. A timeout leaves the current holder untouched.
func (l *MonotonicLock) MakeLockedScopeUntil(deadline clock.Time) (*MonotonicLockedScope, error) {
	return l.acquire("timedlock", func() error {
		return l.cond.WaitUntil(l.mu, deadline)
	})
}

// MakeLockedScopeFor is MakeLockedScopeUntil with a deadline d from now.
func (l *MonotonicLock) MakeLockedScopeFor(d clock.Duration) (*MonotonicLockedScope, error) {
	if !l.Valid() {
		return emptyScope[*MonotonicLock](), l.invalid()
	}
	deadline, err := monotonicDeadline(l.src, d)
	if err != nil {
		return emptyScope[*MonotonicLock](), err
	}
	return l.MakeLockedScopeUntil(deadline)
}

// acquire runs the entry protocol. wait is called with mu held whenever another goroutine
// owns l; it returns with mu held again. Once wait has timed out the predicate is checked one
// last time before giving up.
func (l *MonotonicLock) acquire(op string, wait func() error) (*MonotonicLockedScope, error) {
	if l == nil {
		return emptyScope[*MonotonicLock](), l.invalid()
	}
	l.users.Add(1)
	defer l.users.Add(-1)
	if !l.Valid() {
		return emptyScope[*MonotonicLock](), l.invalid()
	}
	guard, err := l.mu.MakeLockedScope()
	if err != nil {
		return emptyScope[*MonotonicLock](), err
	}
	defer guard.Release()

	self := goid.Current()
	timedOut := false
	for {
		// Close may have run while this goroutine was queued on mu or parked in wait.
		if !l.Valid() {
			return emptyScope[*MonotonicLock](), l.invalid()
		}
		if l.enter(self) {
			return newScope(l), nil
		}
		if timedOut {
			return emptyScope[*MonotonicLock](), errs.ErrTimedOut
		}
		err := wait()
		switch {
		case err == nil:
		case errs.Is(err, errs.TimedOut):
			timedOut = true
		default:
			if !errs.Is(err, errs.WouldBlock) {
				log.WithFields(logger.Fields{
					"at":    "lock.(*MonotonicLock).acquire",
					"op":    op,
					"error": err.Error(),
				}).Debug("wait_failed")
			}
			l.passWakeup()
			return emptyScope[*MonotonicLock](), err
		}
	}
}

// enter takes l for self if it is free or already held by self.
func (l *MonotonicLock) enter(self goid.ID) bool {
	switch {
	case l.count == 0:
		l.owner = self
		l.count = 1
	case goid.Equal(l.owner, self):
		l.count++
	default:
		return false
	}
	log.WithFields(logger.Fields{
		"at":    "lock.(*MonotonicLock).enter",
		"owner": self.String(),
		"count": l.count,
	}).Debug("enter_scope")
	return true
}

// passWakeup hands a wake-up this goroutine may have consumed to the next waiter when l is
// free. Called with mu held.
func (l *MonotonicLock) passWakeup() {
	if l.count != 0 {
		return
	}
	if err := l.cond.Signal(); err != nil {
		log.WithFields(logger.Fields{
			"at":    "lock.(*MonotonicLock).passWakeup",
			"error": err.Error(),
		}).Warn("signal_failed")
	}
}

func (l *MonotonicLock) leaveScope() error {
	l.users.Add(1)
	defer l.users.Add(-1)
	if !l.Valid() {
		return l.invalid()
	}
	guard, err := l.mu.MakeLockedScope()
	if err != nil {
		return err
	}
	defer guard.Release()
	if !l.Valid() {
		return l.invalid()
	}

	self := goid.Current()
	if l.count == 0 || !goid.Equal(l.owner, self) {
		return l.misuse(self)
	}
	l.count--
	log.WithFields(logger.Fields{
		"at":    "lock.(*MonotonicLock).leaveScope",
		"owner": self.String(),
		"count": l.count,
	}).Debug("leave_scope")
	if l.count > 0 {
		return nil
	}
	l.owner = goid.None
	return l.cond.Signal()
}

// misuse reports a release by a goroutine that does not hold l. Nothing changes.
func (l *MonotonicLock) misuse(self goid.ID) error {
	err := errs.New(errs.NotOwner, "lock",
		"release by goroutine %s, held by %s with count %d", self, l.owner, l.count)
	log.WithFields(logger.Fields{
		"at":     "lock.(*MonotonicLock).leaveScope",
		"caller": self.String(),
		"owner":  l.owner.String(),
		"count":  l.count,
	}).Warn("release_by_non_owner")
	if strictRelease.Load() {
		panic(err)
	}
	return err
}

// Holder returns the goroutine holding l and its reentrancy count. An unlocked or invalid
// lock returns goid.None and 0.
func (l *MonotonicLock) Holder() (goid.ID, uint) {
	if l == nil {
		return goid.None, 0
	}
	l.users.Add(1)
	defer l.users.Add(-1)
	if !l.Valid() {
		return goid.None, 0
	}
	guard, err := l.mu.MakeLockedScope()
	if err != nil {
		return goid.None, 0
	}
	defer guard.Release()
	return l.owner, l.count
}

// Close destroys l. A held lock cannot be closed and stays valid.
//
// Goroutines that were already queued on l when it was invalidated return
// errs.ErrInvalidInstance; Close waits for them to leave before tearing down.
func (l *MonotonicLock) Close() error {
	if !l.Valid() {
		return nil
	}
	guard, err := l.mu.MakeLockedScope()
	if err != nil {
		return err
	}
	if l.count > 0 {
		_ = guard.Release()
		return errs.New(errs.DestroyFailure, "lock", "monotonic lock held by %s", l.owner)
	}
	if !l.valid.CompareAndSwap(true, false) {
		_ = guard.Release()
		return nil
	}
	// Parked waiters wake up, see l invalid and leave.
	if err := l.cond.Broadcast(); err != nil {
		l.valid.Store(true)
		_ = guard.Release()
		return errs.Wrap(errs.DestroyFailure, "lock", err, "monotonic lock wake waiters")
	}
	if err := guard.Release(); err != nil {
		l.valid.Store(true)
		return err
	}
	l.drain()

	if err := l.cond.Close(); err != nil {
		l.valid.Store(true)
		return err
	}
	if err := l.mu.Close(); err != nil {
		log.WithFields(logger.Fields{
			"at":    "lock.(*MonotonicLock).Close",
			"error": err.Error(),
		}).Error("mutex_destroy_after_cond_destroy_failed")
		return err
	}
	return nil
}

// drain waits until no goroutine is inside acquire, leaveScope or Holder.
func (l *MonotonicLock) drain() {
	for l.users.Load() > 0 {
		time.Sleep(50 * time.Microsecond)
	}
}
