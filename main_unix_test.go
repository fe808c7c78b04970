//go:build !windows

package main

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/go-i2p/oslock/lib/torture"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterruptibleCancelsOnSIGINT(t *testing.T) {
	// Two runs in one process: the second must still see the signal.
	for i := 0; i < 2; i++ {
		report, err := interruptible(func(ctx context.Context) (torture.Report, error) {
			if err := syscall.Kill(os.Getpid(), syscall.SIGINT); err != nil {
				return torture.Report{}, err
			}
			select {
			case <-ctx.Done():
				return torture.Report{Interrupted: true}, nil
			case <-time.After(5 * time.Second):
				return torture.Report{}, oops.Errorf("run %d was not cancelled", i)
			}
		})
		require.NoError(t, err)
		assert.True(t, report.Interrupted, "run %d", i)
	}
}
