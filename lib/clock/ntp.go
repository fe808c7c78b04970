package clock

import (
	"sync"
	"time"

	"github.com/beevik/ntp"
	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/errs"
	"github.com/samber/oops"
)

// MaxClockSkew bounds the offset accepted from an NTP server. Anything larger is treated
// as a misbehaving server rather than a clock correction.
const MaxClockSkew = 60 * time.Minute

const defaultNTPTimeout = 5 * time.Second

// NTPClient is the subset of github.com/beevik/ntp used by NTPSource.
type NTPClient interface {
	QueryWithOptions(host string, options ntp.QueryOptions) (*ntp.Response, error)
}

// DefaultNTPClient queries real NTP servers.
type DefaultNTPClient struct{}

func (DefaultNTPClient) QueryWithOptions(host string, options ntp.QueryOptions) (*ntp.Response, error) {
	return ntp.QueryWithOptions(host, options)
}

// NTPSource corrects the realtime reading of a base Source by the offset learned from
// NTP. The monotonic reading is passed through untouched.
type NTPSource struct {
	base    Source
	client  NTPClient
	servers []string
	timeout time.Duration

	mu     sync.RWMutex
	offset time.Duration
	synced bool
}

// NewNTPSource builds an NTPSource. A nil base uses SystemSource, a nil client queries the
// network, a non-positive timeout uses five seconds.
func NewNTPSource(base Source, client NTPClient, servers []string, timeout time.Duration) *NTPSource {
	if base == nil {
		base = SystemSource{}
	}
	if client == nil {
		client = DefaultNTPClient{}
	}
	if timeout <= 0 {
		timeout = defaultNTPTimeout
	}
	return &NTPSource{
		base:    base,
		client:  client,
		servers: append([]string(nil), servers...),
		timeout: timeout,
	}
}

// Sync queries the configured servers in order and adopts the offset of the first valid
// response.
func (s *NTPSource) Sync() error {
	if len(s.servers) == 0 {
		return oops.In("clock").Errorf("no NTP servers configured")
	}
	var lastErr error
	for _, server := range s.servers {
		offset, err := s.query(server)
		if err != nil {
			log.WithFields(logger.Fields{
				"at":     "clock.(*NTPSource).Sync",
				"server": server,
				"error":  err.Error(),
			}).Debug("ntp_query_failed")
			lastErr = err
			continue
		}
		s.SetOffset(offset)
		log.WithFields(logger.Fields{
			"at":     "clock.(*NTPSource).Sync",
			"server": server,
			"offset": offset.String(),
		}).Debug("ntp_offset_updated")
		return nil
	}
	return oops.In("clock").Wrapf(lastErr, "all %d NTP servers failed", len(s.servers))
}

func (s *NTPSource) query(server string) (time.Duration, error) {
	resp, err := s.client.QueryWithOptions(server, ntp.QueryOptions{Timeout: s.timeout})
	if err != nil {
		return 0, oops.In("clock").With("server", server).Wrapf(err, "ntp query")
	}
	if resp == nil {
		return 0, oops.In("clock").With("server", server).Errorf("empty NTP response")
	}
	if resp.Stratum == 0 || resp.Stratum > 15 {
		return 0, oops.In("clock").With("server", server).Errorf("NTP stratum %d out of range", resp.Stratum)
	}
	if resp.Leap == ntp.LeapNotInSync {
		return 0, oops.In("clock").With("server", server).Errorf("NTP server not synchronized")
	}
	if resp.ClockOffset > MaxClockSkew || resp.ClockOffset < -MaxClockSkew {
		return 0, oops.In("clock").With("server", server).Errorf("NTP offset %s exceeds max skew %s", resp.ClockOffset, MaxClockSkew)
	}
	return resp.ClockOffset, nil
}

// SetOffset replaces the realtime correction.
func (s *NTPSource) SetOffset(offset time.Duration) {
	s.mu.Lock()
	s.offset = offset
	s.synced = true
	s.mu.Unlock()
}

// Offset returns the current realtime correction and whether one has been learned.
func (s *NTPSource) Offset() (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offset, s.synced
}

func (s *NTPSource) MonotonicNow() (Time, error) {
	return s.base.MonotonicNow()
}

// RealtimeNow returns the base realtime reading shifted by the learned offset.
func (s *NTPSource) RealtimeNow() (Time, error) {
	now, err := s.base.RealtimeNow()
	if err != nil {
		return Time{}, err
	}
	offset, _ := s.Offset()
	if offset >= 0 {
		r, err := add(now, From(Nanoseconds(offset)))
		if err != nil {
			return Time{}, errs.Wrap(errs.ClockReadFailure, "clock", err, "apply NTP offset %s", offset)
		}
		return r, nil
	}
	r, err := sub(now, From(Nanoseconds(-offset)))
	if err != nil {
		return Time{}, errs.Wrap(errs.ClockReadFailure, "clock", err, "apply NTP offset %s", offset)
	}
	return r, nil
}
