package clock

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-i2p/oslock/lib/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Construction and conversion
// =============================================================================

func TestFrom_RoundTrip(t *testing.T) {
	assert.Equal(t, Seconds(5), From(Seconds(5)).Seconds())
	assert.Equal(t, Milliseconds(5000), From(Seconds(5)).Milliseconds())

	ms := From(Milliseconds(1500))
	assert.Equal(t, Seconds(1), ms.Seconds(), "seconds truncate")
	assert.Equal(t, Milliseconds(1500), ms.Milliseconds())
	assert.Equal(t, Microseconds(1_500_000), ms.Microseconds())
	assert.Equal(t, Nanoseconds(1_500_000_000), ms.Nanoseconds())
}

func TestFrom_Normalizes(t *testing.T) {
	tests := []struct {
		name     string
		got      Time
		sec      uint64
		nsec     uint64
		minutes  Minutes
		asString string
	}{
		{"nanoseconds", From(Nanoseconds(2_000_000_001)), 2, 1, 0, "2.000000001s"},
		{"microseconds", From(Microseconds(3_000_007)), 3, 7_000, 0, "3.000007000s"},
		{"milliseconds", From(Milliseconds(999)), 0, 999_000_000, 0, "0.999000000s"},
		{"seconds", From(Seconds(61)), 61, 0, 1, "61.000000000s"},
		{"minutes", From(Minutes(2)), 120, 0, 2, "120.000000000s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sec, nsec := tt.got.Parts()
			assert.Equal(t, tt.sec, sec)
			assert.Equal(t, tt.nsec, nsec)
			assert.Less(t, nsec, nanosPerSecond)
			assert.Equal(t, tt.minutes, tt.got.Minutes())
			assert.Equal(t, tt.asString, tt.got.String())
		})
	}
}

func TestFrom_SaturatesMinutes(t *testing.T) {
	assert.Equal(t, MaxTime, From(Minutes(math.MaxUint64)))
}

func TestTo_SaturatesNarrowUnits(t *testing.T) {
	big := From(Seconds(math.MaxUint64 / 2))
	assert.Equal(t, Nanoseconds(math.MaxUint64), big.Nanoseconds())
	assert.Equal(t, Seconds(math.MaxUint64/2), big.Seconds())
	assert.Equal(t, Microseconds(math.MaxUint64), To[Microseconds](MaxTime))
	assert.Equal(t, Milliseconds(math.MaxUint64), To[Milliseconds](MaxTime))
}

func TestTo_SaturatesOnNanosecondCarry(t *testing.T) {
	edge, err := New(math.MaxUint64/nanosPerSecond, nanosPerSecond-1)
	require.NoError(t, err)
	assert.Equal(t, Nanoseconds(math.MaxUint64), To[Nanoseconds](edge))

	fits, err := New(math.MaxUint64/nanosPerSecond, 0)
	require.NoError(t, err)
	assert.Equal(t, Nanoseconds(math.MaxUint64/nanosPerSecond*nanosPerSecond), fits.Nanoseconds())
}

func TestNew_CarriesNanoseconds(t *testing.T) {
	v, err := New(1, 2_500_000_000)
	require.NoError(t, err)
	assert.Equal(t, From(Milliseconds(3500)), v)

	_, err = New(math.MaxUint64, nanosPerSecond)
	assert.True(t, errors.Is(err, errs.ErrOverflow))
}

func TestFromDuration(t *testing.T) {
	v, err := FromDuration(1500 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, Milliseconds(1500), v.Milliseconds())
	assert.Equal(t, 1500*time.Millisecond, v.AsDuration())

	_, err = FromDuration(-time.Second)
	assert.Equal(t, errs.Underflow, errs.KindOf(err))

	assert.Equal(t, time.Duration(math.MaxInt64), MaxTime.AsDuration())
}

func TestCompare(t *testing.T) {
	a := From(Milliseconds(1500))
	b := From(Milliseconds(1600))
	c := From(Seconds(2))

	assert.True(t, a.Before(b))
	assert.True(t, c.After(b))
	assert.True(t, a.Equal(From(Microseconds(1_500_000))))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, Time{}.IsZero())
	assert.False(t, a.IsZero())
}

// =============================================================================
// Arithmetic and policy
// =============================================================================

func TestSub_SevenSeconds(t *testing.T) {
	v := From(Seconds(10))
	require.NoError(t, v.SubWith(PolicyReject, From(Seconds(3))))
	assert.Equal(t, From(Seconds(7)), v)
}

func TestSub_UnderflowRejected(t *testing.T) {
	v := From(Seconds(3))
	err := v.SubWith(PolicyReject, From(Seconds(10)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnderflow))
	assert.Equal(t, From(Seconds(3)), v, "value unchanged on reject")

	assert.True(t, errs.Is(v.CheckSub(Seconds(10)), errs.Underflow))
	assert.NoError(t, v.CheckSub(Seconds(3)))
}

func TestSub_Borrow(t *testing.T) {
	v := From(Milliseconds(2100))
	require.NoError(t, v.SubWith(PolicyReject, Milliseconds(200)))
	assert.Equal(t, Milliseconds(1900), v.Milliseconds())
}

func TestAdd_Carry(t *testing.T) {
	v := From(Milliseconds(900))
	require.NoError(t, v.AddWith(PolicyReject, Milliseconds(300)))
	sec, nsec := v.Parts()
	assert.Equal(t, uint64(1), sec)
	assert.Equal(t, uint64(200_000_000), nsec)

	require.NoError(t, v.AddWith(PolicyReject, From(Seconds(1))))
	assert.Equal(t, Milliseconds(2200), v.Milliseconds())
}

func TestAdd_OverflowRejected(t *testing.T) {
	v := MaxTime
	err := v.AddWith(PolicyReject, Nanoseconds(1))
	assert.True(t, errs.Is(err, errs.Overflow))
	assert.Equal(t, MaxTime, v)
	assert.Error(t, MaxTime.CheckAdd(Nanoseconds(1)))
}

func TestPolicy_Saturate(t *testing.T) {
	v := From(Seconds(3))
	require.NoError(t, v.SubWith(PolicySaturate, Seconds(10)))
	assert.True(t, v.IsZero())

	w := MaxTime
	require.NoError(t, w.AddWith(PolicySaturate, Seconds(1)))
	assert.Equal(t, MaxTime, w)
}

func TestPolicy_AssertPanics(t *testing.T) {
	v := From(Seconds(3))
	assert.Panics(t, func() {
		_ = v.SubWith(PolicyAssert, Seconds(10))
	})
	assert.Equal(t, From(Seconds(3)), v)
}

func TestPolicy_Global(t *testing.T) {
	prev := SetPolicy(PolicySaturate)
	defer SetPolicy(prev)

	assert.Equal(t, PolicySaturate, CurrentPolicy())
	v := From(Seconds(1))
	require.NoError(t, v.Sub(Seconds(2)))
	assert.True(t, v.IsZero())

	r, err := From(Seconds(1)).Minus(Seconds(5))
	require.NoError(t, err)
	assert.True(t, r.IsZero())
}

func TestPlusMinus_DoNotMutate(t *testing.T) {
	base := From(Seconds(10))
	p, err := base.Plus(Milliseconds(250))
	require.NoError(t, err)
	m, err := base.Minus(Seconds(4))
	require.NoError(t, err)

	assert.Equal(t, Milliseconds(10_250), p.Milliseconds())
	assert.Equal(t, Seconds(6), m.Seconds())
	assert.Equal(t, Seconds(10), base.Seconds())
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want Policy
		ok   bool
	}{
		{"", PolicyReject, true},
		{"reject", PolicyReject, true},
		{"ASSERT", PolicyAssert, true},
		{" saturate ", PolicySaturate, true},
		{"wrap", PolicyReject, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, err == nil)
		})
	}
	assert.Equal(t, "saturate", PolicySaturate.String())
}
