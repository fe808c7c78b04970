// Package errs defines the failure taxonomy shared by the clock, native and lock packages.
//
// Every failure carries exactly one Kind. Each Kind has a plain sentinel error so callers
// can test for it with errors.Is, or recover the Kind of an arbitrary error with KindOf:
//
//	scope, err := m.TryMakeLockedScope()
//	defer scope.Release()
//	if errors.Is(err, errs.ErrWouldBlock) {
//	    // contended, try again later
//	}
//
// Outcomes that are part of normal operation (WouldBlock, TimedOut) are returned as the
// bare sentinel. Genuine failures are wrapped with github.com/samber/oops so they carry a
// domain, a code and a stack trace, and still unwrap to their sentinel.
package errs

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Kind classifies a failure.
type Kind int

const (
	// KindNone is the Kind of a nil error or an error outside this taxonomy.
	KindNone Kind = iota
	// InvalidInstance: the operation was attempted on an object that failed construction
	// or has been closed.
	InvalidInstance
	// InitFailure: native setup failed.
	InitFailure
	// DestroyFailure: native teardown failed.
	DestroyFailure
	// AttributeNotRecursive: a caller-supplied mutex attribute is not recursive.
	AttributeNotRecursive
	// AttributeNotMonotonic: a caller-supplied condition attribute is not monotonic.
	AttributeNotMonotonic
	// WouldBlock: a try-acquire found the lock contended.
	WouldBlock
	// TimedOut: a timed acquire or wait passed its deadline.
	TimedOut
	// ClockReadFailure: the clock collaborator could not be read.
	ClockReadFailure
	// NativeCallFailure: an uncategorized failure of the native layer.
	NativeCallFailure
	// Underflow: Time arithmetic would go below zero.
	Underflow
	// Overflow: Time arithmetic would exceed the representable range.
	Overflow
	// NotOwner: a release was attempted by a goroutine that does not hold the lock.
	NotOwner
)

var (
	ErrInvalidInstance       = errors.New("invalid instance")
	ErrInitFailure           = errors.New("native init failed")
	ErrDestroyFailure        = errors.New("native destroy failed")
	ErrAttributeNotRecursive = errors.New("mutex attribute is not recursive")
	ErrAttributeNotMonotonic = errors.New("condition attribute is not monotonic")
	ErrWouldBlock            = errors.New("would block")
	ErrTimedOut              = errors.New("timed out")
	ErrClockRead             = errors.New("clock read failed")
	ErrNativeCall            = errors.New("native call failed")
	ErrUnderflow             = errors.New("time underflow")
	ErrOverflow              = errors.New("time overflow")
	ErrNotOwner              = errors.New("not the lock owner")
)

// kinds is ordered: KindOf reports the first match.
var kinds = []struct {
	kind Kind
	err  error
	name string
}{
	{InvalidInstance, ErrInvalidInstance, "invalid_instance"},
	{InitFailure, ErrInitFailure, "init_failure"},
	{DestroyFailure, ErrDestroyFailure, "destroy_failure"},
	{AttributeNotRecursive, ErrAttributeNotRecursive, "attribute_not_recursive"},
	{AttributeNotMonotonic, ErrAttributeNotMonotonic, "attribute_not_monotonic"},
	{WouldBlock, ErrWouldBlock, "would_block"},
	{TimedOut, ErrTimedOut, "timed_out"},
	{ClockReadFailure, ErrClockRead, "clock_read_failure"},
	{NativeCallFailure, ErrNativeCall, "native_call_failure"},
	{Underflow, ErrUnderflow, "underflow"},
	{Overflow, ErrOverflow, "overflow"},
	{NotOwner, ErrNotOwner, "not_owner"},
}

// String returns the snake_case code of the kind, also used as the oops error code.
func (k Kind) String() string {
	for _, e := range kinds {
		if e.kind == k {
			return e.name
		}
	}
	return "none"
}

// Err returns the sentinel error for the kind, or nil for KindNone.
func (k Kind) Err() error {
	for _, e := range kinds {
		if e.kind == k {
			return e.err
		}
	}
	return nil
}

// KindOf returns the Kind carried by err, or KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, e := range kinds {
		if errors.Is(err, e.err) {
			return e.kind
		}
	}
	return KindNone
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// New returns an oops error of the given kind raised in domain.
func New(kind Kind, domain, format string, args ...any) error {
	return oops.
		In(domain).
		Code(kind.String()).
		Wrapf(kind.Err(), format, args...)
}

// Wrap classifies cause as kind. The result unwraps to both the sentinel of kind and cause.
// A nil cause behaves like New.
func Wrap(kind Kind, domain string, cause error, format string, args ...any) error {
	if cause == nil {
		return New(kind, domain, format, args...)
	}
	return oops.
		In(domain).
		Code(kind.String()).
		Wrapf(fmt.Errorf("%w: %w", kind.Err(), cause), format, args...)
}
