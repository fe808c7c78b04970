package lock

import (
	"testing"
	"time"

	"github.com/go-i2p/oslock/lib/clock"
	"github.com/go-i2p/oslock/lib/errs"
	"github.com/go-i2p/oslock/lib/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mutex
// =============================================================================

func TestMutex_TryFromSecondGoroutine(t *testing.T) {
	m, err := NewMutex()
	require.NoError(t, err)
	require.True(t, m.Valid())

	s, err := m.MakeLockedScope()
	require.NoError(t, err)

	inGoroutine(t, func() {
		scope, err := m.TryMakeLockedScope()
		assert.ErrorIs(t, err, errs.ErrWouldBlock)
		assert.False(t, scope.Valid())
	})

	require.NoError(t, s.Release())

	inGoroutine(t, func() {
		scope, err := m.TryMakeLockedScope()
		assert.NoError(t, err)
		assert.True(t, scope.Valid())
		assert.NoError(t, scope.Release())
	})
}

func TestMutex_BlockingAcquireWaitsForRelease(t *testing.T) {
	m, err := NewMutex()
	require.NoError(t, err)

	s, err := m.MakeLockedScope()
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		scope, err := m.MakeLockedScope()
		if err == nil {
			close(acquired)
			_ = scope.Release()
		}
	}()
	requireBlocked(t, acquired, 20*time.Millisecond)
	require.NoError(t, s.Release())
	receive(t, acquired)
}

func TestMutex_MakeLockedScopeUntil(t *testing.T) {
	m, err := NewMutex()
	require.NoError(t, err)

	s, err := m.MakeLockedScope()
	require.NoError(t, err)

	inGoroutine(t, func() {
		deadline, err := clock.RealtimeDeadline(clock.Milliseconds(20))
		require.NoError(t, err)
		scope, err := m.MakeLockedScopeUntil(deadline)
		assert.ErrorIs(t, err, errs.ErrTimedOut)
		assert.False(t, scope.Valid())
	})
	require.NoError(t, s.Release())

	deadline, err := clock.RealtimeDeadline(clock.Seconds(1))
	require.NoError(t, err)
	s, err = m.MakeLockedScopeUntil(deadline)
	require.NoError(t, err)
	require.NoError(t, s.Release())
}

func TestMutex_InvalidInstance(t *testing.T) {
	m, err := NewMutex(WithProvider(failingProvider{failMutex: true}))
	require.Error(t, err)
	assert.Equal(t, errs.InitFailure, errs.KindOf(err))
	assert.ErrorIs(t, err, errRefused)
	require.NotNil(t, m)
	assert.False(t, m.Valid())

	done := make(chan struct{})
	go func() {
		defer close(done)
		s, err := m.TryMakeLockedScope()
		assert.ErrorIs(t, err, errs.ErrInvalidInstance)
		assert.False(t, s.Valid())

		s, err = m.MakeLockedScope()
		assert.ErrorIs(t, err, errs.ErrInvalidInstance)
		assert.False(t, s.Valid())

		s, err = m.MakeLockedScopeUntil(clock.MaxTime)
		assert.ErrorIs(t, err, errs.ErrInvalidInstance)
		assert.False(t, s.Valid())
	}()
	receive(t, done)

	assert.NoError(t, m.Close(), "closing an invalid mutex does nothing")
}

func TestMutex_Close(t *testing.T) {
	m, err := NewMutex()
	require.NoError(t, err)

	s, err := m.MakeLockedScope()
	require.NoError(t, err)

	err = m.Close()
	assert.Equal(t, errs.DestroyFailure, errs.KindOf(err))
	assert.True(t, m.Valid(), "failed destroy keeps the mutex usable")

	require.NoError(t, s.Release())
	require.NoError(t, m.Close())
	assert.False(t, m.Valid())

	_, err = m.TryMakeLockedScope()
	assert.ErrorIs(t, err, errs.ErrInvalidInstance)
}

// =============================================================================
// RecursiveMutex
// =============================================================================

func TestRecursiveMutex_Nested(t *testing.T) {
	r, err := NewRecursiveMutex()
	require.NoError(t, err)
	require.True(t, r.Valid())

	const depth = 4
	scopes := make([]*MutexLockedScope, 0, depth)
	for i := 0; i < depth; i++ {
		s, err := r.TryMakeLockedScope()
		require.NoError(t, err, "level %d", i)
		scopes = append(scopes, s)
	}

	for i := depth - 1; i > 0; i-- {
		require.NoError(t, scopes[i].Release())
		inGoroutine(t, func() {
			_, err := r.TryMakeLockedScope()
			assert.ErrorIs(t, err, errs.ErrWouldBlock)
		})
	}
	require.NoError(t, scopes[0].Release())

	inGoroutine(t, func() {
		s, err := r.TryMakeLockedScope()
		assert.NoError(t, err)
		assert.NoError(t, s.Release())
	})
}

func TestRecursiveMutex_TimedReentry(t *testing.T) {
	r, err := NewRecursiveMutex()
	require.NoError(t, err)

	outer, err := r.MakeLockedScope()
	require.NoError(t, err)
	inner, err := r.MakeLockedScopeUntil(clock.Time{})
	require.NoError(t, err, "the holder re-enters even past the deadline")
	require.NoError(t, inner.Release())
	require.NoError(t, outer.Release())
}

func TestRecursiveMutex_WithAttr(t *testing.T) {
	r, err := NewRecursiveMutexWithAttr(native.NewMutexAttr())
	assert.ErrorIs(t, err, errs.ErrAttributeNotRecursive)
	require.NotNil(t, r)
	assert.False(t, r.Valid())
	_, err = r.TryMakeLockedScope()
	assert.ErrorIs(t, err, errs.ErrInvalidInstance)

	attr := native.NewMutexAttr()
	attr.SetKind(native.Recursive)
	r, err = NewRecursiveMutexWithAttr(attr)
	require.NoError(t, err)
	assert.True(t, r.Valid())
	require.NoError(t, r.Close())
	assert.False(t, r.Valid())
}

func TestRecursiveMutex_InitFailure(t *testing.T) {
	r, err := NewRecursiveMutex(WithProvider(failingProvider{failMutex: true}))
	assert.Equal(t, errs.InitFailure, errs.KindOf(err))
	assert.False(t, r.Valid())
}
