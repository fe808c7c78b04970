package clock

import (
	"math/bits"
	"strings"
	"sync/atomic"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/errs"
	"github.com/samber/oops"
)

// Policy decides what a mutating operation does when its result is out of range.
type Policy int32

const (
	// PolicyReject returns ErrUnderflow/ErrOverflow and leaves the value unchanged.
	PolicyReject Policy = iota
	// PolicyAssert panics with the underflow/overflow error.
	PolicyAssert
	// PolicySaturate clamps the result to zero or MaxTime and reports success.
	PolicySaturate
)

var activePolicy atomic.Int32

// SetPolicy replaces the process-wide arithmetic policy and returns the previous one.
func SetPolicy(p Policy) Policy {
	return Policy(activePolicy.Swap(int32(p)))
}

// CurrentPolicy returns the process-wide arithmetic policy.
func CurrentPolicy() Policy {
	return Policy(activePolicy.Load())
}

// ParsePolicy maps "reject", "assert" and "saturate" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reject":
		return PolicyReject, nil
	case "assert":
		return PolicyAssert, nil
	case "saturate":
		return PolicySaturate, nil
	}
	return PolicyReject, oops.In("clock").Errorf("unknown arithmetic policy %q", s)
}

func (p Policy) String() string {
	switch p {
	case PolicyReject:
		return "reject"
	case PolicyAssert:
		return "assert"
	case PolicySaturate:
		return "saturate"
	}
	return "unknown"
}

func add(a, b Time) (Time, error) {
	nsec := a.nsec + b.nsec
	var carry uint64
	if nsec >= nanosPerSecond {
		nsec -= nanosPerSecond
		carry = 1
	}
	sec, c1 := bits.Add64(a.sec, b.sec, 0)
	sec, c2 := bits.Add64(sec, carry, 0)
	if c1|c2 != 0 {
		return MaxTime, errs.New(errs.Overflow, "clock", "%s + %s exceeds %s", a, b, MaxTime)
	}
	return Time{sec: sec, nsec: nsec}, nil
}

func sub(a, b Time) (Time, error) {
	if a.Before(b) {
		return Time{}, errs.New(errs.Underflow, "clock", "%s - %s is negative", a, b)
	}
	sec := a.sec - b.sec
	nsec := a.nsec
	if nsec < b.nsec {
		nsec += nanosPerSecond
		sec--
	}
	return Time{sec: sec, nsec: nsec - b.nsec}, nil
}

// CheckAdd reports whether t + d would overflow, without changing t.
func (t Time) CheckAdd(d Duration) error {
	_, err := add(t, d.Time())
	return err
}

// CheckSub reports whether t - d would underflow, without changing t.
func (t Time) CheckSub(d Duration) error {
	_, err := sub(t, d.Time())
	return err
}

// Add adds d to t under the current policy.
func (t *Time) Add(d Duration) error {
	return t.AddWith(CurrentPolicy(), d)
}

// Sub subtracts d from t under the current policy.
func (t *Time) Sub(d Duration) error {
	return t.SubWith(CurrentPolicy(), d)
}

// AddWith adds d to t under policy p.
func (t *Time) AddWith(p Policy, d Duration) error {
	r, err := add(*t, d.Time())
	return t.commit(p, r, err)
}

// SubWith subtracts d from t under policy p.
func (t *Time) SubWith(p Policy, d Duration) error {
	r, err := sub(*t, d.Time())
	return t.commit(p, r, err)
}

// Plus returns t + d under the current policy. t is not modified.
func (t Time) Plus(d Duration) (Time, error) {
	err := t.Add(d)
	return t, err
}

// Minus returns t - d under the current policy. t is not modified.
func (t Time) Minus(d Duration) (Time, error) {
	err := t.Sub(d)
	return t, err
}

// commit stores r when err is nil; otherwise r is the saturated bound and p decides.
func (t *Time) commit(p Policy, r Time, err error) error {
	if err == nil {
		*t = r
		return nil
	}
	switch p {
	case PolicySaturate:
		log.WithFields(logger.Fields{
			"at":     "clock.(*Time).commit",
			"reason": err.Error(),
			"result": r.String(),
		}).Debug("time_arithmetic_saturated")
		*t = r
		return nil
	case PolicyAssert:
		panic(err)
	}
	return err
}
