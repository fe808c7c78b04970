package config

import (
	"strings"
	"time"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/clock"
)

// Defaults returns a Config with every default value set.
func Defaults() Config {
	return Config{
		Time: TimeConfig{
			// Reject: an out-of-range result is an error and the value is left alone.
			ArithmeticPolicy: clock.PolicyReject.String(),
		},
		Lock: LockConfig{
			StrictRelease: false,
		},
		Clock: ClockConfig{
			NTP: NTPConfig{
				Enabled: false,
				Servers: []string{"0.pool.ntp.org", "1.pool.ntp.org", "2.pool.ntp.org"},
				Timeout: 5 * time.Second,
			},
		},
		Torture: TortureConfig{
			Workers:  8,
			Duration: 5 * time.Second,
			Depth:    3,
			Rate:     0,
			Timeout:  50 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Validate checks that cfg holds usable values.
func Validate(cfg Config) error {
	log.WithFields(logger.Fields{
		"at":     "config.Validate",
		"reason": "verification_requested",
	}).Debug("validating configuration")

	validators := []func() error{
		func() error { return validateTime(cfg.Time) },
		func() error { return validateClock(cfg.Clock) },
		func() error { return validateTorture(cfg.Torture) },
		func() error { return validateLog(cfg.Log) },
	}
	for _, validator := range validators {
		if err := validator(); err != nil {
			log.WithError(err).Error("configuration validation failed")
			return err
		}
	}
	return nil
}

func validateTime(t TimeConfig) error {
	if _, err := clock.ParsePolicy(t.ArithmeticPolicy); err != nil {
		return newValidationError("time.arithmetic_policy must be one of reject, assert, saturate")
	}
	return nil
}

func validateClock(c ClockConfig) error {
	if !c.NTP.Enabled {
		return nil
	}
	if len(c.NTP.Servers) == 0 {
		return newValidationError("clock.ntp.servers must not be empty when NTP is enabled")
	}
	if c.NTP.Timeout <= 0 {
		return newValidationError("clock.ntp.timeout must be positive")
	}
	return nil
}

func validateTorture(t TortureConfig) error {
	switch {
	case t.Workers < 1:
		return newValidationError("torture.workers must be at least 1")
	case t.Duration <= 0:
		return newValidationError("torture.duration must be positive")
	case t.Depth < 1:
		return newValidationError("torture.depth must be at least 1")
	case t.Rate < 0:
		return newValidationError("torture.rate must not be negative")
	case t.Timeout <= 0:
		return newValidationError("torture.timeout must be positive")
	}
	return nil
}

func validateLog(l LogConfig) error {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return newValidationError("log.level must be one of debug, info, warn, error")
}

type validationError struct {
	message string
}

func newValidationError(message string) error {
	return &validationError{message: message}
}

func (e *validationError) Error() string {
	return "configuration validation failed: " + e.message
}
