//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package clock

import (
	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/errs"
	"golang.org/x/sys/unix"
)

func (SystemSource) MonotonicNow() (Time, error) {
	return gettime(unix.CLOCK_MONOTONIC, "CLOCK_MONOTONIC")
}

func (SystemSource) RealtimeNow() (Time, error) {
	return gettime(unix.CLOCK_REALTIME, "CLOCK_REALTIME")
}

func gettime(id int32, name string) (Time, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(id, &ts); err != nil {
		log.WithFields(logger.Fields{
			"at":    "clock.gettime",
			"clock": name,
			"error": err.Error(),
		}).Error("clock_gettime_failed")
		return Time{}, errs.Wrap(errs.ClockReadFailure, "clock", err, "clock_gettime(%s)", name)
	}
	t, err := FromTimespec(ts)
	return reading(name, t, err)
}

// FromTimespec converts a native timespec. Negative fields are rejected.
func FromTimespec(ts unix.Timespec) (Time, error) {
	sec, nsec := ts.Unix()
	if sec < 0 || nsec < 0 {
		return Time{}, errs.New(errs.Underflow, "clock", "negative timespec %d.%09d", sec, nsec)
	}
	return New(uint64(sec), uint64(nsec))
}

// Timespec converts t to a native timespec, saturating like AsDuration.
func (t Time) Timespec() unix.Timespec {
	return unix.NsecToTimespec(int64(t.AsDuration()))
}
