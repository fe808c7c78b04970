package clock

import (
	"errors"
	"testing"
	"time"

	"github.com/beevik/ntp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockNTPClient struct {
	responses map[string]*ntp.Response
	queried   []string
}

func (m *mockNTPClient) QueryWithOptions(host string, _ ntp.QueryOptions) (*ntp.Response, error) {
	m.queried = append(m.queried, host)
	resp, ok := m.responses[host]
	if !ok {
		return nil, errors.New("no route to host")
	}
	return resp, nil
}

func TestNTPSource_SyncAdoptsFirstValidOffset(t *testing.T) {
	client := &mockNTPClient{responses: map[string]*ntp.Response{
		"bad.example":  {Stratum: 0, ClockOffset: time.Second},
		"good.example": {Stratum: 2, ClockOffset: 3 * time.Second},
		"late.example": {Stratum: 2, ClockOffset: 9 * time.Second},
	}}
	base := &manualSource{mono: From(Seconds(7)), real: From(Seconds(1000))}
	src := NewNTPSource(base, client, []string{"down.example", "bad.example", "good.example", "late.example"}, 0)

	_, synced := src.Offset()
	assert.False(t, synced)

	require.NoError(t, src.Sync())
	assert.Equal(t, []string{"down.example", "bad.example", "good.example"}, client.queried)

	offset, synced := src.Offset()
	assert.True(t, synced)
	assert.Equal(t, 3*time.Second, offset)

	real, err := src.RealtimeNow()
	require.NoError(t, err)
	assert.Equal(t, From(Seconds(1003)), real)

	mono, err := src.MonotonicNow()
	require.NoError(t, err)
	assert.Equal(t, From(Seconds(7)), mono, "monotonic reading is not corrected")
}

func TestNTPSource_NegativeOffset(t *testing.T) {
	base := &manualSource{real: From(Seconds(1000))}
	src := NewNTPSource(base, &mockNTPClient{}, nil, 0)
	src.SetOffset(-1500 * time.Millisecond)

	real, err := src.RealtimeNow()
	require.NoError(t, err)
	assert.Equal(t, Milliseconds(998_500), real.Milliseconds())

	src.SetOffset(-2000 * time.Second)
	_, err = src.RealtimeNow()
	assert.Error(t, err, "offset larger than the reading underflows")
}

func TestNTPSource_RejectsInvalidResponses(t *testing.T) {
	tests := []struct {
		name string
		resp *ntp.Response
	}{
		{"kiss of death", &ntp.Response{Stratum: 0}},
		{"stratum too high", &ntp.Response{Stratum: 16}},
		{"not in sync", &ntp.Response{Stratum: 1, Leap: ntp.LeapNotInSync}},
		{"skew in future", &ntp.Response{Stratum: 1, ClockOffset: MaxClockSkew + time.Second}},
		{"skew in past", &ntp.Response{Stratum: 1, ClockOffset: -MaxClockSkew - time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockNTPClient{responses: map[string]*ntp.Response{"s": tt.resp}}
			src := NewNTPSource(nil, client, []string{"s"}, time.Second)
			assert.Error(t, src.Sync())
			_, synced := src.Offset()
			assert.False(t, synced)
		})
	}
}

func TestNTPSource_NoServers(t *testing.T) {
	src := NewNTPSource(nil, nil, nil, 0)
	assert.Error(t, src.Sync())
}
