//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package clock

import (
	"testing"

	"github.com/go-i2p/oslock/lib/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestFromTimespec(t *testing.T) {
	v, err := FromTimespec(unix.NsecToTimespec(1_500_000_000))
	require.NoError(t, err)
	assert.Equal(t, From(Milliseconds(1500)), v)
	assert.Equal(t, v, mustFromTimespec(t, v.Timespec()))
}

func TestNegativeTimespecIsClockReadFailure(t *testing.T) {
	t1, cause := FromTimespec(unix.NsecToTimespec(-1_000_000_000))
	assert.Equal(t, errs.Underflow, errs.KindOf(cause))

	_, err := reading("CLOCK_REALTIME", t1, cause)
	assert.Equal(t, errs.ClockReadFailure, errs.KindOf(err))
}

func mustFromTimespec(t *testing.T, ts unix.Timespec) Time {
	t.Helper()
	v, err := FromTimespec(ts)
	require.NoError(t, err)
	return v
}
