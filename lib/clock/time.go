package clock

import (
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/errs"
)

var log = logger.GetGoI2PLogger()

const nanosPerSecond = uint64(time.Second)

type (
	Nanoseconds  uint64
	Microseconds uint64
	Milliseconds uint64
	Seconds      uint64
	Minutes      uint64
)

// Unit constrains the generic conversions to the tagged unit types.
type Unit interface {
	Nanoseconds | Microseconds | Milliseconds | Seconds | Minutes
	nanosPerUnit() uint64
}

// Duration is anything Add and Sub accept: a tagged unit or another Time.
type Duration interface {
	Time() Time
}

func (Nanoseconds) nanosPerUnit() uint64  { return 1 }
func (Microseconds) nanosPerUnit() uint64 { return 1_000 }
func (Milliseconds) nanosPerUnit() uint64 { return 1_000_000 }
func (Seconds) nanosPerUnit() uint64      { return nanosPerSecond }
func (Minutes) nanosPerUnit() uint64      { return 60 * nanosPerSecond }

func (n Nanoseconds) Time() Time  { return From(n) }
func (u Microseconds) Time() Time { return From(u) }
func (m Milliseconds) Time() Time { return From(m) }
func (s Seconds) Time() Time      { return From(s) }
func (m Minutes) Time() Time      { return From(m) }

// Time is a normalized seconds + nanoseconds value. The zero value is zero time.
type Time struct {
	sec  uint64
	nsec uint64
}

// MaxTime is the largest representable Time.
var MaxTime = Time{sec: math.MaxUint64, nsec: nanosPerSecond - 1}

// From builds a Time from a unit-tagged count. Counts beyond MaxTime saturate.
func From[U Unit](v U) Time {
	per := v.nanosPerUnit()
	if per >= nanosPerSecond {
		hi, sec := bits.Mul64(uint64(v), per/nanosPerSecond)
		if hi != 0 {
			log.WithFields(logger.Fields{
				"at":    "clock.From",
				"value": uint64(v),
			}).Warn("time_construction_saturated")
			return MaxTime
		}
		return Time{sec: sec}
	}
	perSecond := nanosPerSecond / per
	return Time{
		sec:  uint64(v) / perSecond,
		nsec: (uint64(v) % perSecond) * per,
	}
}

// To converts t to the unit U, truncating sub-unit precision. A value too large for the
// unit saturates at math.MaxUint64.
func To[U Unit](t Time) U {
	var zero U
	per := zero.nanosPerUnit()
	if per >= nanosPerSecond {
		return U(t.sec / (per / nanosPerSecond))
	}
	hi, lo := bits.Mul64(t.sec, nanosPerSecond/per)
	if hi != 0 {
		return U(^uint64(0))
	}
	v, carry := bits.Add64(lo, t.nsec/per, 0)
	if carry != 0 {
		return U(^uint64(0))
	}
	return U(v)
}

// New builds a Time from seconds and nanoseconds, carrying excess nanoseconds into seconds.
func New(sec, nsec uint64) (Time, error) {
	carry := nsec / nanosPerSecond
	s, c := bits.Add64(sec, carry, 0)
	if c != 0 {
		return Time{}, errs.New(errs.Overflow, "clock", "%d s + %d ns exceeds the representable range", sec, nsec)
	}
	return Time{sec: s, nsec: nsec % nanosPerSecond}, nil
}

// FromDuration converts a non-negative time.Duration.
func FromDuration(d time.Duration) (Time, error) {
	if d < 0 {
		return Time{}, errs.New(errs.Underflow, "clock", "negative duration %s", d)
	}
	return From(Nanoseconds(d)), nil
}

// Time returns t itself so a Time can be used wherever a Duration is expected.
func (t Time) Time() Time { return t }

// Parts returns the normalized seconds and nanoseconds.
func (t Time) Parts() (sec, nsec uint64) { return t.sec, t.nsec }

func (t Time) Nanoseconds() Nanoseconds   { return To[Nanoseconds](t) }
func (t Time) Microseconds() Microseconds { return To[Microseconds](t) }
func (t Time) Milliseconds() Milliseconds { return To[Milliseconds](t) }
func (t Time) Seconds() Seconds           { return To[Seconds](t) }
func (t Time) Minutes() Minutes           { return To[Minutes](t) }

// AsDuration converts t to a time.Duration, saturating at the largest Duration.
func (t Time) AsDuration() time.Duration {
	ns := t.Nanoseconds()
	if uint64(ns) > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(ns)
}

func (t Time) IsZero() bool { return t.sec == 0 && t.nsec == 0 }

// Compare returns -1, 0 or +1 as t is before, equal to or after u.
func (t Time) Compare(u Time) int {
	switch {
	case t.sec < u.sec:
		return -1
	case t.sec > u.sec:
		return 1
	case t.nsec < u.nsec:
		return -1
	case t.nsec > u.nsec:
		return 1
	}
	return 0
}

func (t Time) Before(u Time) bool { return t.Compare(u) < 0 }
func (t Time) After(u Time) bool  { return t.Compare(u) > 0 }
func (t Time) Equal(u Time) bool  { return t == u }

func (t Time) String() string {
	return fmt.Sprintf("%d.%09ds", t.sec, t.nsec)
}
