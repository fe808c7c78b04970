package clock

import (
	"github.com/go-i2p/logger"
)

// Deadline is a point on the monotonic clock after which something has expired.
// It captures its start from a Source and answers every question with a fresh
// monotonic reading, so wall clock jumps cannot cause premature or delayed expiry.
//
// A Deadline is immutable and safe for concurrent use.
type Deadline struct {
	src      Source
	start    Time
	lifetime Time
	at       Time
}

// NewDeadline starts a Deadline of the given lifetime on the default source.
func NewDeadline(lifetime Duration) (*Deadline, error) {
	return NewDeadlineOn(Default(), lifetime)
}

// NewDeadlineOn starts a Deadline of the given lifetime on src.
func NewDeadlineOn(src Source, lifetime Duration) (*Deadline, error) {
	start, err := src.MonotonicNow()
	if err != nil {
		return nil, err
	}
	life := lifetime.Time()
	at, err := start.Plus(life)
	if err != nil {
		return nil, err
	}
	return &Deadline{src: src, start: start, lifetime: life, at: at}, nil
}

// At returns the absolute monotonic time of expiry.
func (d *Deadline) At() Time { return d.at }

// Lifetime returns the configured lifetime.
func (d *Deadline) Lifetime() Time { return d.lifetime }

// Expired reports whether the deadline has passed. A failed clock read counts as expired
// so callers bounded by a deadline never wait forever on a broken clock.
func (d *Deadline) Expired() bool {
	now, err := d.src.MonotonicNow()
	if err != nil {
		log.WithFields(logger.Fields{
			"at":    "clock.(*Deadline).Expired",
			"error": err.Error(),
		}).Warn("deadline_clock_read_failed")
		return true
	}
	return !now.Before(d.at)
}

// Remaining returns the time left, or zero once expired.
func (d *Deadline) Remaining() (Time, error) {
	return Remaining(d.src, Monotonic, d.at)
}

// Elapsed returns how much monotonic time has passed since the deadline was created.
func (d *Deadline) Elapsed() (Time, error) {
	now, err := d.src.MonotonicNow()
	if err != nil {
		return Time{}, err
	}
	r, _ := sub(now, d.start)
	return r, nil
}
