//go:build !windows

package signals

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReloadDeliveredAcrossSessions(t *testing.T) {
	reset(t)

	reloads := make(chan struct{}, 1)
	RegisterReloadHandler(func() { reloads <- struct{}{} })

	for i := 0; i < 2; i++ {
		Start()
		require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGHUP))
		select {
		case <-reloads:
		case <-time.After(2 * time.Second):
			t.Fatalf("session %d: SIGHUP not dispatched", i)
		}
		StopHandle()
	}
}
