package native

import (
	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/clock"
	"github.com/go-i2p/oslock/lib/errs"
)

// Provider creates native primitives. The lock package takes a Provider so that creation,
// destruction and call failures can be substituted.
type Provider interface {
	NewMutex(attr MutexAttr) (Mutex, error)
	NewCond(attr CondAttr) (Cond, error)
}

type runtimeProvider struct {
	src clock.Source
}

// Default returns the runtime Provider. Its primitives read the process-wide clock source
// at the time of each timed call.
func Default() Provider {
	return runtimeProvider{}
}

// NewProvider returns a runtime Provider whose primitives read src. A nil src behaves like
// Default.
func NewProvider(src clock.Source) Provider {
	return runtimeProvider{src: src}
}

func (p runtimeProvider) source() clock.Source {
	if p.src != nil {
		return p.src
	}
	return clock.Default()
}

func (p runtimeProvider) NewMutex(attr MutexAttr) (Mutex, error) {
	switch attr.Kind {
	case Normal, Recursive:
	default:
		log.WithFields(logger.Fields{
			"at":   "native.NewMutex",
			"kind": int(attr.Kind),
		}).Error("invalid_mutex_kind")
		return nil, errs.New(errs.NativeCallFailure, "native", "invalid mutex kind %d", int(attr.Kind))
	}
	return newSemMutex(attr.Kind, p.source), nil
}

func (p runtimeProvider) NewCond(attr CondAttr) (Cond, error) {
	switch attr.Clock {
	case clock.Realtime, clock.Monotonic:
	default:
		log.WithFields(logger.Fields{
			"at":    "native.NewCond",
			"clock": int(attr.Clock),
		}).Error("invalid_cond_clock")
		return nil, errs.New(errs.NativeCallFailure, "native", "invalid condition clock %d", int(attr.Clock))
	}
	return newChanCond(attr.Clock, p.source), nil
}
