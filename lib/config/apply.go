package config

import (
	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/clock"
	"github.com/go-i2p/oslock/lib/lock"
)

// Apply validates cfg and installs its library-wide settings: the Time arithmetic policy and
// strict release for reentrant locks.
func Apply(cfg *Config) error {
	if err := Validate(*cfg); err != nil {
		return err
	}
	policy, err := clock.ParsePolicy(cfg.Time.ArithmeticPolicy)
	if err != nil {
		return err
	}
	clock.SetPolicy(policy)
	lock.SetStrictRelease(cfg.Lock.StrictRelease)

	log.WithFields(logger.Fields{
		"at":             "config.Apply",
		"policy":         policy.String(),
		"strict_release": cfg.Lock.StrictRelease,
	}).Debug("configuration_applied")
	return nil
}

// ClockSource returns the source the configuration asks for: an NTP-corrected source when
// clock.ntp.enabled is set, the system clocks otherwise. The NTP source has not synced yet.
func (c ClockConfig) ClockSource(client clock.NTPClient) clock.Source {
	if !c.NTP.Enabled {
		return clock.SystemSource{}
	}
	return clock.NewNTPSource(clock.SystemSource{}, client, c.NTP.Servers, c.NTP.Timeout)
}
