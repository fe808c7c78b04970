//go:build windows

package signals

import (
	"os"
	"os/signal"
)

func notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt)
}

func dispatch(ch <-chan os.Signal) {
	for sig := range ch {
		if sig == os.Interrupt {
			handleInterrupted()
		}
	}
}
