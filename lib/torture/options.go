package torture

import (
	"time"

	"github.com/samber/oops"
	"golang.org/x/time/rate"
)

// Options configures a run.
type Options struct {
	// Workers is the number of goroutines contending for the lock.
	Workers int
	// Duration bounds the run.
	Duration time.Duration
	// Depth is how many times a worker re-enters a reentrant lock per critical section.
	Depth int
	// Rate caps acquisitions per second across all workers. Zero means unlimited.
	Rate float64
	// Timeout bounds each timed acquisition.
	Timeout time.Duration
}

func (o Options) validate() error {
	switch {
	case o.Workers < 1:
		return oops.In("torture").With("workers", o.Workers).Errorf("at least one worker is required")
	case o.Duration <= 0:
		return oops.In("torture").With("duration", o.Duration).Errorf("duration must be positive")
	case o.Depth < 1:
		return oops.In("torture").With("depth", o.Depth).Errorf("depth must be at least 1")
	case o.Rate < 0:
		return oops.In("torture").With("rate", o.Rate).Errorf("rate must not be negative")
	case o.Timeout <= 0:
		return oops.In("torture").With("timeout", o.Timeout).Errorf("timeout must be positive")
	}
	return nil
}

func (o Options) limiter() *rate.Limiter {
	if o.Rate == 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := int(o.Rate)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(o.Rate), burst)
}
