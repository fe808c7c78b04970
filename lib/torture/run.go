package torture

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/clock"
	"github.com/go-i2p/oslock/lib/errs"
	"github.com/go-i2p/oslock/lib/lock"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var log = logger.GetGoI2PLogger()

// counters is shared by the workers of one run.
type counters struct {
	inside       atomic.Int32
	acquisitions atomic.Uint64
	wouldBlock   atomic.Uint64
	timedOut     atomic.Uint64
	reentries    atomic.Uint64
	samples      atomic.Uint64
	violations   atomic.Uint64
}

func (c *counters) enter() {
	if n := c.inside.Add(1); n != 1 {
		c.violations.Add(1)
		log.WithFields(logger.Fields{
			"at":     "torture.enter",
			"inside": n,
		}).Error("mutual_exclusion_violated")
	}
}

func (c *counters) leave() {
	c.inside.Add(-1)
}

// classify counts the expected failures and passes anything else on.
func (c *counters) classify(err error) error {
	switch {
	case err == nil:
		c.acquisitions.Add(1)
		return nil
	case errors.Is(err, errs.ErrWouldBlock):
		c.wouldBlock.Add(1)
		return nil
	case errors.Is(err, errs.ErrTimedOut):
		c.timedOut.Add(1)
		return nil
	}
	return err
}

func (c *counters) report(kind string, workers int, elapsed time.Duration, interrupted bool) Report {
	return Report{
		Kind:         kind,
		Workers:      workers,
		Elapsed:      elapsed,
		Acquisitions: c.acquisitions.Load(),
		WouldBlock:   c.wouldBlock.Load(),
		TimedOut:     c.timedOut.Load(),
		Reentries:    c.reentries.Load(),
		Samples:      c.samples.Load(),
		Violations:   c.violations.Load(),
		Interrupted:  interrupted,
	}
}

// worker runs one acquisition per step until ctx is done.
type worker func(ctx context.Context, step int) error

// run fans fn out over opts.Workers goroutines for opts.Duration, pacing every step through
// one shared limiter. A cancelled parent context marks the report interrupted.
func run(ctx context.Context, kind string, opts Options, c *counters, fn worker) (Report, error) {
	if err := opts.validate(); err != nil {
		return Report{Kind: kind}, err
	}
	runCtx, cancel := context.WithTimeout(ctx, opts.Duration)
	defer cancel()

	limiter := opts.limiter()
	g, gctx := errgroup.WithContext(runCtx)
	start := time.Now()
	for w := 0; w < opts.Workers; w++ {
		g.Go(func() error {
			for step := w; ; step += opts.Workers {
				if err := pace(gctx, limiter); err != nil {
					return nil
				}
				if err := fn(gctx, step); err != nil {
					return err
				}
			}
		})
	}
	err := g.Wait()
	report := c.report(kind, opts.Workers, time.Since(start), ctx.Err() != nil)

	log.WithFields(logger.Fields{
		"at":           "torture.run",
		"kind":         kind,
		"acquisitions": report.Acquisitions,
		"violations":   report.Violations,
	}).Debug("run_finished")

	if err != nil {
		return report, oops.In("torture").With("kind", kind).Wrapf(err, "run aborted")
	}
	return report, nil
}

// pace waits for the limiter and reports ctx's error once the run is over.
func pace(ctx context.Context, limiter *rate.Limiter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if limiter.Limit() == rate.Inf {
		return nil
	}
	return limiter.Wait(ctx)
}

// RunMutex contends on m, cycling through blocking, try and timed acquisitions. m must be
// unlocked when the run starts.
func RunMutex(ctx context.Context, m *lock.Mutex, opts Options) (Report, error) {
	if m == nil {
		return Report{Kind: "mutex"}, oops.In("torture").Errorf("nil mutex")
	}

	c := &counters{}
	return run(ctx, "mutex", opts, c, func(_ context.Context, step int) error {
		var scope *lock.MutexLockedScope
		var err error
		switch step % 3 {
		case 0:
			scope, err = m.MakeLockedScope()
		case 1:
			scope, err = m.TryMakeLockedScope()
		default:
			var deadline clock.Time
			deadline, err = clock.RealtimeDeadline(clock.Nanoseconds(opts.Timeout))
			if err == nil {
				scope, err = m.MakeLockedScopeUntil(deadline)
			}
		}
		if err := c.classify(err); err != nil {
			return err
		}
		if !scope.Valid() {
			return nil
		}
		c.enter()
		c.leave()
		return scope.Release()
	})
}

// RunMonotonic contends on l. Every critical section re-enters the lock Depth-1 times, which
// must never block, and releases the levels innermost first.
func RunMonotonic(ctx context.Context, l *lock.MonotonicLock, opts Options) (Report, error) {
	if l == nil {
		return Report{Kind: "monotonic"}, oops.In("torture").Errorf("nil monotonic lock")
	}

	c := &counters{}
	return run(ctx, "monotonic", opts, c, func(_ context.Context, step int) error {
		var scope *lock.MonotonicLockedScope
		var err error
		switch step % 3 {
		case 0:
			scope, err = l.MakeLockedScope()
		case 1:
			scope, err = l.TryMakeLockedScope()
		default:
			scope, err = l.MakeLockedScopeFor(clock.Nanoseconds(opts.Timeout))
		}
		if err := c.classify(err); err != nil {
			return err
		}
		if !scope.Valid() {
			return nil
		}
		defer scope.Release()

		c.enter()
		defer c.leave()
		return reenter(l, c, opts.Depth-1)
	})
}

func reenter(l *lock.MonotonicLock, c *counters, depth int) error {
	if depth <= 0 {
		return nil
	}
	scope, err := l.TryMakeLockedScope()
	if err != nil {
		c.violations.Add(1)
		log.WithFields(logger.Fields{
			"at":    "torture.reenter",
			"error": err.Error(),
		}).Error("reentry_refused")
		return nil
	}
	c.reentries.Add(1)
	if _, count := l.Holder(); count < 2 {
		c.violations.Add(1)
	}
	if err := reenter(l, c, depth-1); err != nil {
		return err
	}
	return scope.Release()
}

// RunClock reads the monotonic clock of src from every worker and checks that each worker
// never sees it go backwards.
func RunClock(ctx context.Context, opts Options, src clock.Source) (Report, error) {
	if err := opts.validate(); err != nil {
		return Report{Kind: "clock"}, err
	}
	if src == nil {
		src = clock.Default()
	}
	c := &counters{}
	last := make([]clock.Time, opts.Workers)
	return run(ctx, "clock", opts, c, func(_ context.Context, step int) error {
		now, err := src.MonotonicNow()
		if err != nil {
			return err
		}
		c.samples.Add(1)
		w := step % opts.Workers
		if now.Before(last[w]) {
			c.violations.Add(1)
			log.WithFields(logger.Fields{
				"at":       "torture.RunClock",
				"previous": last[w].String(),
				"now":      now.String(),
			}).Error("monotonic_clock_regressed")
		}
		last[w] = now
		return nil
	})
}
