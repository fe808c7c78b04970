package lock

import (
	"sync/atomic"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/clock"
	"github.com/go-i2p/oslock/lib/errs"
	"github.com/go-i2p/oslock/lib/native"
)

// Mutex is a non-recursive mutex handing out MutexLockedScope guards.
type Mutex struct {
	native native.Mutex
	valid  atomic.Bool
}

// Waitable is a lock a condition variable can wait on. It is implemented by *Mutex and
// *RecursiveMutex.
type Waitable interface {
	nativeMutex() (native.Mutex, error)
}

// NewMutex creates a Normal mutex. On error the returned Mutex is invalid.
func NewMutex(opts ...Option) (*Mutex, error) {
	return newMutex(native.NewMutexAttr(), buildOptions(opts))
}

// NewMutexWithAttr creates a mutex from a caller-supplied attribute.
func NewMutexWithAttr(attr native.MutexAttr, opts ...Option) (*Mutex, error) {
	return newMutex(attr, buildOptions(opts))
}

func newMutex(attr native.MutexAttr, o options) (*Mutex, error) {
	m := &Mutex{}
	nm, err := o.provider.NewMutex(attr)
	if err != nil {
		log.WithFields(logger.Fields{
			"at":    "lock.NewMutex",
			"kind":  attr.Kind.String(),
			"error": err.Error(),
		}).Debug("mutex_init_failed")
		return m, errs.Wrap(errs.InitFailure, "lock", err, "mutex init")
	}
	m.native = nm
	m.valid.Store(true)
	return m, nil
}

// Valid reports whether m was created successfully and has not been closed.
func (m *Mutex) Valid() bool {
	return m != nil && m.valid.Load()
}

func (m *Mutex) invalid() error {
	return errs.New(errs.InvalidInstance, "lock", "mutex is not valid")
}

// MakeLockedScope blocks until m is held.
func (m *Mutex) MakeLockedScope() (*MutexLockedScope, error) {
	if !m.Valid() {
		return emptyScope[*Mutex](), m.invalid()
	}
	if err := m.native.Lock(); err != nil {
		return emptyScope[*Mutex](), err
	}
	return newScope(m), nil
}

// TryMakeLockedScope acquires m without blocking. A held mutex yields errs.ErrWouldBlock.
func (m *Mutex) TryMakeLockedScope() (*MutexLockedScope, error) {
	if !m.Valid() {
		return emptyScope[*Mutex](), m.invalid()
	}
	if err := m.native.TryLock(); err != nil {
		return emptyScope[*Mutex](), err
	}
	return newScope(m), nil
}

// MakeLockedScopeUntil blocks until m is held or the realtime deadline passes, in which case
// it returns errs.ErrTimedOut.
func (m *Mutex) MakeLockedScopeUntil(deadline clock.Time) (*MutexLockedScope, error) {
	if !m.Valid() {
		return emptyScope[*Mutex](), m.invalid()
	}
	if err := m.native.LockUntil(clock.Realtime, deadline); err != nil {
		if !errs.Is(err, errs.TimedOut) {
			log.WithFields(logger.Fields{
				"at":       "lock.(*Mutex).MakeLockedScopeUntil",
				"deadline": deadline.String(),
				"error":    err.Error(),
			}).Debug("timed_lock_failed")
		}
		return emptyScope[*Mutex](), err
	}
	return newScope(m), nil
}

func (m *Mutex) leaveScope() error {
	if !m.Valid() {
		return m.invalid()
	}
	if err := m.native.Unlock(); err != nil {
		log.WithFields(logger.Fields{
			"at":    "lock.(*Mutex).leaveScope",
			"error": err.Error(),
		}).Warn("unlock_failed")
		return err
	}
	return nil
}

func (m *Mutex) nativeMutex() (native.Mutex, error) {
	if !m.Valid() {
		return nil, m.invalid()
	}
	return m.native, nil
}

// Close destroys the native mutex. A held mutex cannot be closed and stays valid. Closing an
// invalid mutex does nothing.
func (m *Mutex) Close() error {
	if !m.valid.CompareAndSwap(true, false) {
		return nil
	}
	if err := m.native.Destroy(); err != nil {
		m.valid.Store(true)
		return errs.Wrap(errs.DestroyFailure, "lock", err, "mutex destroy")
	}
	return nil
}
