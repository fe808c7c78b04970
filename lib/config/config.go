package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/go-i2p/logger"
	"github.com/go-i2p/oslock/lib/util"
	"github.com/samber/oops"
	"github.com/spf13/viper"
)

var (
	CfgFile string
	log     = logger.GetGoI2PLogger()
)

const OSLOCK_BASE_DIR = ".oslock"

// Config is the typed view of the viper settings.
type Config struct {
	Time    TimeConfig
	Lock    LockConfig
	Clock   ClockConfig
	Torture TortureConfig
	Log     LogConfig
}

type TimeConfig struct {
	ArithmeticPolicy string
}

type LockConfig struct {
	StrictRelease bool
}

type ClockConfig struct {
	NTP NTPConfig
}

type NTPConfig struct {
	Enabled bool
	Servers []string
	Timeout time.Duration
}

type TortureConfig struct {
	Workers  int
	Duration time.Duration
	Depth    int
	Rate     float64
	Timeout  time.Duration
}

type LogConfig struct {
	Level string
}

// InitConfig points viper at the config file, loads the defaults and reads the file,
// creating it when it does not exist yet.
func InitConfig() error {
	if CfgFile != "" {
		viper.SetConfigFile(CfgFile)
	} else {
		viper.AddConfigPath(BuildOslockDirPath())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	setDefaults()

	return handleConfigFile()
}

func setDefaults() {
	d := Defaults()

	viper.SetDefault("time.arithmetic_policy", d.Time.ArithmeticPolicy)
	viper.SetDefault("lock.strict_release", d.Lock.StrictRelease)

	viper.SetDefault("clock.ntp.enabled", d.Clock.NTP.Enabled)
	viper.SetDefault("clock.ntp.servers", d.Clock.NTP.Servers)
	viper.SetDefault("clock.ntp.timeout", d.Clock.NTP.Timeout)

	viper.SetDefault("torture.workers", d.Torture.Workers)
	viper.SetDefault("torture.duration", d.Torture.Duration)
	viper.SetDefault("torture.depth", d.Torture.Depth)
	viper.SetDefault("torture.rate", d.Torture.Rate)
	viper.SetDefault("torture.timeout", d.Torture.Timeout)

	viper.SetDefault("log.level", d.Log.Level)
}

// NewConfigFromViper creates a Config from the current viper settings.
func NewConfigFromViper() *Config {
	return &Config{
		Time: TimeConfig{
			ArithmeticPolicy: viper.GetString("time.arithmetic_policy"),
		},
		Lock: LockConfig{
			StrictRelease: viper.GetBool("lock.strict_release"),
		},
		Clock: ClockConfig{
			NTP: NTPConfig{
				Enabled: viper.GetBool("clock.ntp.enabled"),
				Servers: viper.GetStringSlice("clock.ntp.servers"),
				Timeout: viper.GetDuration("clock.ntp.timeout"),
			},
		},
		Torture: TortureConfig{
			Workers:  viper.GetInt("torture.workers"),
			Duration: viper.GetDuration("torture.duration"),
			Depth:    viper.GetInt("torture.depth"),
			Rate:     viper.GetFloat64("torture.rate"),
			Timeout:  viper.GetDuration("torture.timeout"),
		},
		Log: LogConfig{
			Level: viper.GetString("log.level"),
		},
	}
}

func createDefaultConfig(defaultConfigDir string) error {
	defaultConfigFile := filepath.Join(defaultConfigDir, "config.yaml")
	if err := util.EnsureParentDir(defaultConfigFile); err != nil {
		return err
	}

	if err := viper.SafeWriteConfigAs(defaultConfigFile); err != nil {
		return oops.In("config").With("file", defaultConfigFile).Wrapf(err, "could not write default config file")
	}

	log.WithFields(logger.Fields{
		"at":   "config.createDefaultConfig",
		"file": defaultConfigFile,
	}).Debug("created_default_config")
	return nil
}

func handleConfigFile() error {
	err := viper.ReadInConfig()
	if err == nil {
		log.WithFields(logger.Fields{
			"at":   "config.handleConfigFile",
			"file": viper.ConfigFileUsed(),
		}).Debug("using_config_file")
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	switch {
	case CfgFile != "" && (errors.As(err, &notFound) || os.IsNotExist(err)):
		return oops.In("config").With("file", CfgFile).Wrapf(err, "config file not found")
	case errors.As(err, &notFound):
		return createDefaultConfig(BuildOslockDirPath())
	}
	return oops.In("config").Wrapf(err, "error reading config file")
}

// WriteDefaultConfig writes the defaults to path, refusing to overwrite an existing file
// unless force is set.
func WriteDefaultConfig(path string, force bool) error {
	v := viper.New()
	d := Defaults()
	v.Set("time.arithmetic_policy", d.Time.ArithmeticPolicy)
	v.Set("lock.strict_release", d.Lock.StrictRelease)
	v.Set("clock.ntp.enabled", d.Clock.NTP.Enabled)
	v.Set("clock.ntp.servers", d.Clock.NTP.Servers)
	v.Set("clock.ntp.timeout", d.Clock.NTP.Timeout.String())
	v.Set("torture.workers", d.Torture.Workers)
	v.Set("torture.duration", d.Torture.Duration.String())
	v.Set("torture.depth", d.Torture.Depth)
	v.Set("torture.rate", d.Torture.Rate)
	v.Set("torture.timeout", d.Torture.Timeout.String())
	v.Set("log.level", d.Log.Level)

	if !force && util.CheckFileExists(path) {
		return oops.In("config").With("file", path).Errorf("config file already exists")
	}
	if err := util.EnsureParentDir(path); err != nil {
		return err
	}
	if err := v.WriteConfigAs(path); err != nil {
		return oops.In("config").With("file", path).Wrapf(err, "could not write config file")
	}
	return nil
}

func BuildOslockDirPath() string {
	return filepath.Join(util.UserHome(), OSLOCK_BASE_DIR)
}
