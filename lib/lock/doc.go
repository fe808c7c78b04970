// Package lock provides scoped locking over the native primitives in lib/native.
//
// Every acquisition returns a *LockedScope together with an error. The scope is never nil:
// when the acquisition fails it is Empty, so
//
//	scope, err := m.MakeLockedScope()
//	defer scope.Release()
//	if err != nil {
//		return err
//	}
//
// is always safe. Release gives the lock back exactly once; Move hands ownership to a new
// scope and leaves the old one Empty. Scopes carry a noCopy marker, so go vet reports a
// LockedScope copied by value, and a copy made regardless cannot release the lock a second
// time.
//
// Objects are created once. A constructor that fails still returns a non-nil object, which
// stays invalid for its whole lifetime and answers every call with errs.ErrInvalidInstance.
//
// MonotonicLock is a reentrant lock kept entirely in this package: an owner goroutine and a
// reentrancy count guarded by a Mutex, with waiters parked on a MonotonicCondVar.
package lock
