package lock

// scopeOwner is implemented by the lock types that issue scopes.
type scopeOwner interface {
	leaveScope() error
}

// noCopy makes go vet's copylocks check report copies of the struct that embeds it.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// holding is the possession a scope refers to. Copies of a scope share it, so it is released
// at most once however many copies exist.
type holding[L scopeOwner] struct {
	owner  L
	active bool
}

// LockedScope represents possession of a lock of type L. It has no exported constructor;
// only the acquire methods of L produce an Active scope. The zero value is Empty.
//
// A scope must not be copied; pass the *LockedScope or use Move. go vet reports copies. A
// copy made anyway shares the possession, so only the first Release through any copy frees
// the lock.
//
// A scope belongs to the goroutine that acquired it and is not safe for concurrent use.
type LockedScope[L scopeOwner] struct {
	_ noCopy
	h *holding[L]
}

// MutexLockedScope is issued by Mutex and RecursiveMutex.
type MutexLockedScope = LockedScope[*Mutex]

// MonotonicLockedScope is issued by MonotonicLock.
type MonotonicLockedScope = LockedScope[*MonotonicLock]

func newScope[L scopeOwner](owner L) *LockedScope[L] {
	return &LockedScope[L]{h: &holding[L]{owner: owner, active: true}}
}

func emptyScope[L scopeOwner]() *LockedScope[L] {
	return &LockedScope[L]{}
}

// Valid reports whether s holds its lock.
func (s *LockedScope[L]) Valid() bool {
	return s != nil && s.h != nil && s.h.active
}

// Release gives the lock back. Only the first successful call has an effect; releasing an
// Empty scope does nothing. When the owning lock refuses the release the scope stays Active
// and the error is returned.
func (s *LockedScope[L]) Release() error {
	if !s.Valid() {
		return nil
	}
	if err := s.h.owner.leaveScope(); err != nil {
		return err
	}
	var zero L
	s.h.owner = zero
	s.h.active = false
	s.h = nil
	return nil
}

// Move returns a new scope holding whatever s held and leaves s Empty. Moving never releases.
func (s *LockedScope[L]) Move() *LockedScope[L] {
	if s == nil {
		return emptyScope[L]()
	}
	moved := &LockedScope[L]{h: s.h}
	s.h = nil
	return moved
}

// Owner returns the lock s holds, or the zero L when s is Empty.
func (s *LockedScope[L]) Owner() L {
	var zero L
	if !s.Valid() {
		return zero
	}
	return s.h.owner
}
