// Package native is the primitive layer underneath the lock package: plain and recursive
// mutexes and condition variables with timed variants, created through a Provider.
//
// The primitives are built on the Go runtime. A Mutex is a one-slot channel semaphore,
// so blocking, non-blocking and deadline-bounded acquisition are all a select away. A
// recursive Mutex additionally records the owning goroutine and its depth. A Cond keeps a
// FIFO of per-waiter channels; a waiter is registered before its mutex is released, so a
// Signal sent between the release and the start of the wait is never lost.
//
// Deadlines are absolute clock.Time values on the clock named by the call (LockUntil) or
// by the condition attribute (WaitUntil). They are converted into a runtime timer once,
// when the wait starts; the runtime timer itself is monotonic.
//
// Expected outcomes are returned as bare sentinels (errs.ErrWouldBlock, errs.ErrTimedOut);
// everything else is an errs.NativeCallFailure.
package native
