package native

import "github.com/go-i2p/oslock/lib/clock"

// Kind selects the mutex flavour.
type Kind int

const (
	// Normal mutexes deadlock when relocked by their holder.
	Normal Kind = iota
	// Recursive mutexes may be relocked by their holder and must be unlocked as many times.
	Recursive
)

func (k Kind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Recursive:
		return "recursive"
	}
	return "unknown"
}

// MutexAttr configures a Mutex at creation.
type MutexAttr struct {
	Kind Kind
}

// NewMutexAttr returns the default (Normal) attribute.
func NewMutexAttr() MutexAttr {
	return MutexAttr{Kind: Normal}
}

// SetKind changes the mutex flavour.
func (a *MutexAttr) SetKind(k Kind) {
	a.Kind = k
}

// IsRecursive reports whether the attribute selects a recursive mutex.
func (a MutexAttr) IsRecursive() bool {
	return a.Kind == Recursive
}

// CondAttr configures a Cond at creation.
type CondAttr struct {
	Clock clock.ID
}

// NewCondAttr returns the default attribute, bound to the realtime clock.
func NewCondAttr() CondAttr {
	return CondAttr{Clock: clock.Realtime}
}

// SetClock changes the clock WaitUntil deadlines are measured against.
func (a *CondAttr) SetClock(id clock.ID) {
	a.Clock = id
}

// IsMonotonic reports whether the attribute binds to the monotonic clock.
func (a CondAttr) IsMonotonic() bool {
	return a.Clock == clock.Monotonic
}
