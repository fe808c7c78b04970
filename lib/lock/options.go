package lock

import (
	"sync/atomic"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/clock"
	"github.com/go-i2p/oslock/lib/native"
)

var log = logger.GetGoI2PLogger()

// Option configures how a lock object is created.
type Option func(*options)

type options struct {
	provider native.Provider
	src      clock.Source
}

// WithProvider creates the native primitives with p instead of native.Default().
func WithProvider(p native.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithClock reads time from src. Unless WithProvider is also given, the native primitives
// read src as well.
func WithClock(src clock.Source) Option {
	return func(o *options) { o.src = src }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.provider == nil {
		o.provider = native.NewProvider(o.src)
	}
	return o
}

func (o options) source() clock.Source {
	if o.src != nil {
		return o.src
	}
	return clock.Default()
}

var strictRelease atomic.Bool

// SetStrictRelease makes a MonotonicLock release from a goroutine that does not hold the
// lock panic instead of returning errs.ErrNotOwner. It returns the previous setting.
func SetStrictRelease(strict bool) bool {
	return strictRelease.Swap(strict)
}

// StrictRelease reports the current setting.
func StrictRelease() bool {
	return strictRelease.Load()
}
