package lock

import (
	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/clock"
	"github.com/go-i2p/oslock/lib/errs"
	"github.com/go-i2p/oslock/lib/native"
)

// RecursiveMutex may be locked again by the goroutine holding it. Each scope releases one
// level; the mutex is free once every scope has been released.
type RecursiveMutex struct {
	attr  native.MutexAttr
	inner *Mutex
}

// NewRecursiveMutex creates a recursive mutex.
func NewRecursiveMutex(opts ...Option) (*RecursiveMutex, error) {
	attr := native.NewMutexAttr()
	attr.SetKind(native.Recursive)
	return newRecursiveMutex(attr, buildOptions(opts))
}

// NewRecursiveMutexWithAttr creates a recursive mutex from a caller-supplied attribute, which
// must select native.Recursive. Any other attribute yields errs.ErrAttributeNotRecursive and
// no native mutex is created.
func NewRecursiveMutexWithAttr(attr native.MutexAttr, opts ...Option) (*RecursiveMutex, error) {
	if !attr.IsRecursive() {
		log.WithFields(logger.Fields{
			"at":   "lock.NewRecursiveMutexWithAttr",
			"kind": attr.Kind.String(),
		}).Debug("attribute_not_recursive")
		return &RecursiveMutex{attr: attr, inner: &Mutex{}},
			errs.New(errs.AttributeNotRecursive, "lock", "mutex attribute kind is %s", attr.Kind)
	}
	return newRecursiveMutex(attr, buildOptions(opts))
}

func newRecursiveMutex(attr native.MutexAttr, o options) (*RecursiveMutex, error) {
	inner, err := newMutex(attr, o)
	return &RecursiveMutex{attr: attr, inner: inner}, err
}

// Valid reports whether the inner mutex is valid.
func (r *RecursiveMutex) Valid() bool {
	return r != nil && r.inner.Valid()
}

// MakeLockedScope blocks until r is held by the calling goroutine.
func (r *RecursiveMutex) MakeLockedScope() (*MutexLockedScope, error) {
	return r.inner.MakeLockedScope()
}

// TryMakeLockedScope acquires r without blocking.
func (r *RecursiveMutex) TryMakeLockedScope() (*MutexLockedScope, error) {
	return r.inner.TryMakeLockedScope()
}

// MakeLockedScopeUntil blocks until r is held or the realtime deadline passes.
func (r *RecursiveMutex) MakeLockedScopeUntil(deadline clock.Time) (*MutexLockedScope, error) {
	return r.inner.MakeLockedScopeUntil(deadline)
}

func (r *RecursiveMutex) nativeMutex() (native.Mutex, error) {
	return r.inner.nativeMutex()
}

// Close destroys the inner mutex.
func (r *RecursiveMutex) Close() error {
	return r.inner.Close()
}
