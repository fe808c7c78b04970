package util

import (
	"errors"
	"io"
	"sync"

	"github.com/go-i2p/logger"
)

var (
	closeOnExit []io.Closer
	closeMutex  sync.Mutex
)

// RegisterCloser registers c to be closed by CloseAll. Nil closers are ignored.
func RegisterCloser(c io.Closer) {
	if c == nil {
		return
	}
	closeMutex.Lock()
	defer closeMutex.Unlock()
	closeOnExit = append(closeOnExit, c)
	log.WithFields(logger.Fields{
		"at":    "util.RegisterCloser",
		"count": len(closeOnExit),
	}).Debug("registered_closer")
}

// CloseAll closes every registered closer, most recently registered first, and clears the
// list. It returns the joined close errors.
func CloseAll() error {
	closeMutex.Lock()
	closers := closeOnExit
	closeOnExit = nil
	closeMutex.Unlock()

	log.WithFields(logger.Fields{
		"at":    "util.CloseAll",
		"count": len(closers),
	}).Debug("closing_all")

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			log.WithError(err).Warn("error closing resource")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
