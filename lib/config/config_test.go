package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-i2p/oslock/lib/clock"
	"github.com/go-i2p/oslock/lib/lock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewConfigFromViperDefaults verifies that every default written by setDefaults is read
// back under the same key.
func TestNewConfigFromViperDefaults(t *testing.T) {
	viper.Reset()
	setDefaults()

	cfg := NewConfigFromViper()
	assert.Equal(t, Defaults(), *cfg)
}

func TestNewConfigFromViperOverride(t *testing.T) {
	viper.Reset()
	setDefaults()

	viper.Set("time.arithmetic_policy", "saturate")
	viper.Set("lock.strict_release", true)
	viper.Set("clock.ntp.servers", []string{"time.example.org"})
	viper.Set("torture.workers", 3)
	viper.Set("torture.duration", "250ms")
	viper.Set("torture.rate", 12.5)

	cfg := NewConfigFromViper()
	assert.Equal(t, "saturate", cfg.Time.ArithmeticPolicy)
	assert.True(t, cfg.Lock.StrictRelease)
	assert.Equal(t, []string{"time.example.org"}, cfg.Clock.NTP.Servers)
	assert.Equal(t, 3, cfg.Torture.Workers)
	assert.Equal(t, 250*time.Millisecond, cfg.Torture.Duration)
	assert.Equal(t, 12.5, cfg.Torture.Rate)
}

// =============================================================================
// Config file handling
// =============================================================================

func TestInitConfigCreatesDefaultFile(t *testing.T) {
	viper.Reset()
	home := t.TempDir()
	t.Setenv("HOME", home)

	prev := CfgFile
	CfgFile = ""
	defer func() { CfgFile = prev }()

	require.NoError(t, InitConfig())
	assert.FileExists(t, filepath.Join(home, OSLOCK_BASE_DIR, "config.yaml"))

	// A second run reads the file it just wrote.
	viper.Reset()
	require.NoError(t, InitConfig())
	assert.Equal(t, Defaults().Torture.Workers, NewConfigFromViper().Torture.Workers)
}

func TestInitConfigExplicitFile(t *testing.T) {
	viper.Reset()
	path := filepath.Join(t.TempDir(), "oslock.yaml")
	require.NoError(t, os.WriteFile(path, []byte("torture:\n  workers: 2\nlog:\n  level: debug\n"), 0o644))

	prev := CfgFile
	CfgFile = path
	defer func() { CfgFile = prev }()

	require.NoError(t, InitConfig())
	cfg := NewConfigFromViper()
	assert.Equal(t, 2, cfg.Torture.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, Defaults().Torture.Depth, cfg.Torture.Depth, "unset keys keep their defaults")
}

func TestInitConfigMissingExplicitFile(t *testing.T) {
	viper.Reset()
	prev := CfgFile
	CfgFile = filepath.Join(t.TempDir(), "missing.yaml")
	defer func() { CfgFile = prev }()

	assert.Error(t, InitConfig())
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path, false))
	assert.Error(t, WriteDefaultConfig(path, false), "existing file is kept")
	require.NoError(t, WriteDefaultConfig(path, true))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	assert.Equal(t, "reject", v.GetString("time.arithmetic_policy"))
	assert.Equal(t, 5*time.Second, v.GetDuration("torture.duration"))
}

// =============================================================================
// Apply
// =============================================================================

func TestApply(t *testing.T) {
	prevPolicy := clock.CurrentPolicy()
	prevStrict := lock.StrictRelease()
	defer func() {
		clock.SetPolicy(prevPolicy)
		lock.SetStrictRelease(prevStrict)
	}()

	cfg := Defaults()
	cfg.Time.ArithmeticPolicy = "saturate"
	cfg.Lock.StrictRelease = true
	require.NoError(t, Apply(&cfg))
	assert.Equal(t, clock.PolicySaturate, clock.CurrentPolicy())
	assert.True(t, lock.StrictRelease())

	cfg.Time.ArithmeticPolicy = "wrap"
	assert.Error(t, Apply(&cfg))
	assert.Equal(t, clock.PolicySaturate, clock.CurrentPolicy(), "invalid config changes nothing")
}

func TestClockSource(t *testing.T) {
	c := Defaults().Clock
	_, ok := c.ClockSource(nil).(clock.SystemSource)
	assert.True(t, ok)

	c.NTP.Enabled = true
	_, ok = c.ClockSource(nil).(*clock.NTPSource)
	assert.True(t, ok)
}
