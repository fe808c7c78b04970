package lock

import (
	"errors"
	"testing"
	"time"

	"github.com/go-i2p/oslock/lib/native"
	"github.com/stretchr/testify/require"
)

// failingProvider refuses to create the primitives it is told to.
type failingProvider struct {
	failMutex bool
	failCond  bool
}

var errRefused = errors.New("native init refused")

func (p failingProvider) NewMutex(attr native.MutexAttr) (native.Mutex, error) {
	if p.failMutex {
		return nil, errRefused
	}
	return native.Default().NewMutex(attr)
}

func (p failingProvider) NewCond(attr native.CondAttr) (native.Cond, error) {
	if p.failCond {
		return nil, errRefused
	}
	return native.Default().NewCond(attr)
}

// inGoroutine runs fn on a fresh goroutine and waits for it.
func inGoroutine(t *testing.T, fn func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("goroutine did not finish")
	}
}

func requireBlocked[T any](t *testing.T, ch <-chan T, d time.Duration) {
	t.Helper()
	select {
	case <-ch:
		require.FailNow(t, "expected goroutine to still be blocked")
	case <-time.After(d):
	}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for goroutine")
	}
	var zero T
	return zero
}
