//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package clock

import "time"

// origin anchors monotonic readings; time.Since uses the runtime's monotonic reading.
var origin = time.Now()

func (SystemSource) MonotonicNow() (Time, error) {
	t, err := FromDuration(time.Since(origin))
	return reading("runtime monotonic", t, err)
}

func (SystemSource) RealtimeNow() (Time, error) {
	t, err := FromDuration(time.Duration(time.Now().UnixNano()))
	return reading("runtime realtime", t, err)
}
