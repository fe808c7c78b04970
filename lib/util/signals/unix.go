//go:build !windows

package signals

import (
	"os"
	"os/signal"
	"syscall"
)

func notify(ch chan os.Signal) {
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
}

func dispatch(ch <-chan os.Signal) {
	for sig := range ch {
		switch sig {
		case syscall.SIGHUP:
			handleReload()
		case syscall.SIGINT, syscall.SIGTERM:
			handleInterrupted()
		}
	}
}
