package native

import (
	"sync/atomic"
	"time"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/clock"
	"github.com/go-i2p/oslock/lib/errs"
	"github.com/go-i2p/oslock/lib/goid"
)

var log = logger.GetGoI2PLogger()

// Mutex is a native mutual-exclusion primitive.
type Mutex interface {
	// Lock blocks until the mutex is acquired.
	Lock() error
	// TryLock acquires without blocking or returns errs.ErrWouldBlock.
	TryLock() error
	// LockUntil blocks until the mutex is acquired or the deadline on clock id passes,
	// returning errs.ErrTimedOut. An uncontended mutex is acquired even past the deadline.
	LockUntil(id clock.ID, deadline clock.Time) error
	// Unlock releases the mutex.
	Unlock() error
	// Destroy tears the mutex down. A locked mutex cannot be destroyed.
	Destroy() error
	// Kind returns the flavour the mutex was created with.
	Kind() Kind
}

// semMutex holds the lock while its token sits in sem.
type semMutex struct {
	sem       chan struct{}
	kind      Kind
	src       func() clock.Source
	destroyed atomic.Bool

	// recursive only: owner is read by any goroutine, depth only by the owner.
	owner atomic.Int64
	depth uint64
}

func newSemMutex(kind Kind, src func() clock.Source) *semMutex {
	return &semMutex{
		sem:  make(chan struct{}, 1),
		kind: kind,
		src:  src,
	}
}

func (m *semMutex) Kind() Kind { return m.kind }

func (m *semMutex) checkAlive(op string) error {
	if m.destroyed.Load() {
		return errs.New(errs.NativeCallFailure, "native", "%s on destroyed mutex", op)
	}
	return nil
}

// reenter bumps the depth when self already owns a recursive mutex.
func (m *semMutex) reenter(self goid.ID) bool {
	if m.kind != Recursive || goid.ID(m.owner.Load()) != self {
		return false
	}
	m.depth++
	return true
}

func (m *semMutex) acquired(self goid.ID) {
	if m.kind == Recursive {
		m.owner.Store(int64(self))
		m.depth = 1
	}
}

func (m *semMutex) self() goid.ID {
	if m.kind != Recursive {
		return goid.None
	}
	return goid.Current()
}

func (m *semMutex) Lock() error {
	if err := m.checkAlive("lock"); err != nil {
		return err
	}
	self := m.self()
	if m.reenter(self) {
		return nil
	}
	m.sem <- struct{}{}
	m.acquired(self)
	return nil
}

func (m *semMutex) TryLock() error {
	if err := m.checkAlive("trylock"); err != nil {
		return err
	}
	self := m.self()
	if m.reenter(self) {
		return nil
	}
	select {
	case m.sem <- struct{}{}:
		m.acquired(self)
		return nil
	default:
		return errs.ErrWouldBlock
	}
}

func (m *semMutex) LockUntil(id clock.ID, deadline clock.Time) error {
	if err := m.checkAlive("timedlock"); err != nil {
		return err
	}
	self := m.self()
	if m.reenter(self) {
		return nil
	}
	select {
	case m.sem <- struct{}{}:
		m.acquired(self)
		return nil
	default:
	}
	remaining, err := clock.Remaining(m.src(), id, deadline)
	if err != nil {
		return err
	}
	if remaining.IsZero() {
		return errs.ErrTimedOut
	}
	timer := time.NewTimer(remaining.AsDuration())
	defer timer.Stop()
	select {
	case m.sem <- struct{}{}:
		m.acquired(self)
		return nil
	case <-timer.C:
		return errs.ErrTimedOut
	}
}

func (m *semMutex) Unlock() error {
	if err := m.checkAlive("unlock"); err != nil {
		return err
	}
	if m.kind == Recursive {
		self := goid.Current()
		if goid.ID(m.owner.Load()) != self {
			return errs.New(errs.NativeCallFailure, "native", "unlock of recursive mutex by non-owner goroutine %s", self)
		}
		m.depth--
		if m.depth > 0 {
			return nil
		}
		m.owner.Store(int64(goid.None))
	}
	select {
	case <-m.sem:
		return nil
	default:
		return errs.New(errs.NativeCallFailure, "native", "unlock of unlocked mutex")
	}
}

func (m *semMutex) Destroy() error {
	if !m.destroyed.CompareAndSwap(false, true) {
		return errs.New(errs.NativeCallFailure, "native", "mutex already destroyed")
	}
	if len(m.sem) != 0 {
		m.destroyed.Store(false)
		log.WithFields(logger.Fields{
			"at":   "native.(*semMutex).Destroy",
			"kind": m.kind.String(),
		}).Warn("destroy_of_locked_mutex")
		return errs.New(errs.NativeCallFailure, "native", "mutex is locked")
	}
	return nil
}

// heldRecursively reports whether the calling goroutine holds m more than once.
func (m *semMutex) heldRecursively() bool {
	return m.kind == Recursive && goid.ID(m.owner.Load()) == goid.Current() && m.depth > 1
}
