// Package signals dispatches process signals to registered handlers.
//
// An interrupt (SIGINT, SIGTERM) runs the stop handlers first, bounded by the stop timeout,
// and then the interrupt handlers. The oslock binary cancels a stress run from a stop
// handler; the run closes its locks as it unwinds. SIGHUP runs the reload handlers.
package signals

import (
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/go-i2p/logger"
)

var log = logger.GetGoI2PLogger()

// listening is the channel of the current session, nil between StopHandle and the next
// Start or Handle.
var (
	listenMu  sync.Mutex
	listening chan os.Signal
)

// Handler is called when a signal is received.
type Handler func()

// HandlerID identifies a registration for Deregister.
type HandlerID int

type phase int

const (
	phaseReload phase = iota
	phaseStop
	phaseInterrupt
)

func (p phase) String() string {
	switch p {
	case phaseReload:
		return "reload"
	case phaseStop:
		return "stop"
	case phaseInterrupt:
		return "interrupt"
	}
	return "unknown"
}

type registeredHandler struct {
	id    HandlerID
	phase phase
	fn    Handler
}

const defaultStopTimeout = 10 * time.Second

var (
	mu          sync.RWMutex
	handlers    []registeredHandler
	nextID      HandlerID
	stopTimeout = defaultStopTimeout
)

func register(p phase, f Handler) HandlerID {
	if f == nil {
		return -1
	}
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	handlers = append(handlers, registeredHandler{id: id, phase: p, fn: f})
	return id
}

// RegisterReloadHandler registers f for SIGHUP. Nil handlers are ignored and return -1.
func RegisterReloadHandler(f Handler) HandlerID {
	return register(phaseReload, f)
}

// RegisterStopHandler registers f to run first on an interrupt. Stop handlers run in
// registration order and together get at most the stop timeout.
func RegisterStopHandler(f Handler) HandlerID {
	return register(phaseStop, f)
}

// RegisterInterruptHandler registers f to run on an interrupt after the stop handlers.
func RegisterInterruptHandler(f Handler) HandlerID {
	return register(phaseInterrupt, f)
}

// Deregister removes the handler registered under id.
func Deregister(id HandlerID) {
	mu.Lock()
	defer mu.Unlock()
	for i, h := range handlers {
		if h.id == id {
			handlers = append(handlers[:i], handlers[i+1:]...)
			return
		}
	}
}

// SetStopTimeout bounds the stop phase. Non-positive values restore the default.
func SetStopTimeout(timeout time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	if timeout <= 0 {
		timeout = defaultStopTimeout
	}
	stopTimeout = timeout
}

func snapshot(p phase) []Handler {
	mu.RLock()
	defer mu.RUnlock()
	var out []Handler
	for _, h := range handlers {
		if h.phase == p {
			out = append(out, h.fn)
		}
	}
	return out
}

// run calls each handler in order, recovering from panics.
func run(p phase, hs []Handler) {
	for _, h := range hs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(logger.Fields{
						"at":    "signals.run",
						"phase": p.String(),
						"panic": r,
					}).Error("handler_panicked")
				}
			}()
			h()
		}()
	}
}

func handleReload() {
	run(phaseReload, snapshot(phaseReload))
}

// handleStop runs the stop handlers and reports whether they finished within the timeout.
func handleStop() bool {
	hs := snapshot(phaseStop)
	if len(hs) == 0 {
		return true
	}
	mu.RLock()
	timeout := stopTimeout
	mu.RUnlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		run(phaseStop, hs)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		log.WithFields(logger.Fields{
			"at":      "signals.handleStop",
			"timeout": timeout.String(),
		}).Warn("stop_handlers_timed_out")
		return false
	}
}

func handleInterrupted() {
	handleStop()
	run(phaseInterrupt, snapshot(phaseInterrupt))
}

// listen subscribes a fresh buffered channel. It reports false when a session is already
// running.
func listen() (chan os.Signal, bool) {
	listenMu.Lock()
	defer listenMu.Unlock()
	if listening != nil {
		return nil, false
	}
	ch := make(chan os.Signal, 1)
	notify(ch)
	listening = ch
	return ch, true
}

// Start subscribes to signals before returning and dispatches them on a new goroutine until
// StopHandle. It does nothing while a session is running.
func Start() {
	if ch, ok := listen(); ok {
		go dispatch(ch)
	}
}

// Handle is Start on the calling goroutine and blocks until StopHandle. A StopHandle that
// runs before Handle has subscribed does not end it.
func Handle() {
	if ch, ok := listen(); ok {
		dispatch(ch)
	}
}

// StopHandle ends the current session and restores default signal behaviour. A later Start
// or Handle opens a new session.
func StopHandle() {
	listenMu.Lock()
	defer listenMu.Unlock()
	if listening == nil {
		return
	}
	signal.Stop(listening)
	close(listening)
	listening = nil
}
