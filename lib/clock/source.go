package clock

import (
	"sync"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/errs"
)

// ID names the clock a deadline is measured against.
type ID int

const (
	// Realtime is the wall clock; it can jump when the system time is adjusted.
	Realtime ID = iota
	// Monotonic never moves backward and ignores wall clock adjustments.
	Monotonic
)

func (id ID) String() string {
	switch id {
	case Realtime:
		return "realtime"
	case Monotonic:
		return "monotonic"
	}
	return "unknown"
}

// Source reads the current time from a clock. Both reads may fail; failures carry
// errs.ClockReadFailure.
type Source interface {
	MonotonicNow() (Time, error)
	RealtimeNow() (Time, error)
}

// SystemSource reads the operating system clocks.
type SystemSource struct{}

var (
	sourceMu      sync.RWMutex
	defaultSource Source = SystemSource{}
)

// Default returns the process-wide clock source.
func Default() Source {
	sourceMu.RLock()
	defer sourceMu.RUnlock()
	return defaultSource
}

// SetDefault replaces the process-wide clock source and returns the previous one.
// A nil source restores SystemSource.
func SetDefault(s Source) Source {
	if s == nil {
		s = SystemSource{}
	}
	sourceMu.Lock()
	defer sourceMu.Unlock()
	prev := defaultSource
	defaultSource = s
	return prev
}

// MonotonicNow reads the monotonic clock of the default source.
func MonotonicNow() (Time, error) {
	return Default().MonotonicNow()
}

// RealtimeNow reads the realtime clock of the default source.
func RealtimeNow() (Time, error) {
	return Default().RealtimeNow()
}

// reading classifies a failed conversion of a raw system clock value as a clock read
// failure.
func reading(name string, t Time, err error) (Time, error) {
	if err == nil {
		return t, nil
	}
	log.WithFields(logger.Fields{
		"at":    "clock.reading",
		"clock": name,
		"error": err.Error(),
	}).Error("clock_value_unusable")
	return Time{}, errs.Wrap(errs.ClockReadFailure, "clock", err, "reading %s", name)
}

// Read reads clock id from src.
func Read(src Source, id ID) (Time, error) {
	switch id {
	case Monotonic:
		return src.MonotonicNow()
	case Realtime:
		return src.RealtimeNow()
	}
	return Time{}, errs.New(errs.ClockReadFailure, "clock", "unknown clock id %d", int(id))
}

// DeadlineFrom returns now(id) + d, read from src.
func DeadlineFrom(src Source, id ID, d Duration) (Time, error) {
	now, err := Read(src, id)
	if err != nil {
		return Time{}, err
	}
	return now.Plus(d)
}

// MonotonicDeadline returns the monotonic time d from now.
func MonotonicDeadline(d Duration) (Time, error) {
	return DeadlineFrom(Default(), Monotonic, d)
}

// RealtimeDeadline returns the realtime time d from now.
func RealtimeDeadline(d Duration) (Time, error) {
	return DeadlineFrom(Default(), Realtime, d)
}

// Remaining returns how long until deadline on clock id, or zero if it has passed.
func Remaining(src Source, id ID, deadline Time) (Time, error) {
	now, err := Read(src, id)
	if err != nil {
		return Time{}, err
	}
	if !now.Before(deadline) {
		return Time{}, nil
	}
	r, _ := sub(deadline, now)
	return r, nil
}
