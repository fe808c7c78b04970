// Package clock provides the Time value used by every timed operation in oslock.
//
// A Time is a non-negative count of seconds plus nanoseconds, always normalized so the
// nanosecond part stays below one second. It is built from a unit-tagged count and can be
// converted back to any unit, truncating what the unit cannot represent:
//
//	t := clock.From(clock.Milliseconds(1500))
//	t.Seconds()      // 1
//	t.Milliseconds() // 1500
//
// Arithmetic never wraps around. Add and Sub check the result first and then follow the
// active Policy: PolicyReject leaves the value untouched and returns ErrUnderflow or
// ErrOverflow, PolicyAssert panics, PolicySaturate clamps to zero or MaxTime.
//
// Clock reads go through a Source. The default SystemSource reads CLOCK_MONOTONIC and
// CLOCK_REALTIME; monotonic readings are immune to wall clock adjustments (NTP corrections,
// manual time changes), which is why every relative timeout in the lock package is turned
// into a monotonic deadline:
//
//	deadline, err := clock.MonotonicDeadline(clock.Seconds(2))
//
// NTPSource corrects the realtime reading by an offset learned from an NTP server and leaves
// the monotonic reading alone.
package clock
