// Package logger is the command-line logger of the oslock binary. It wraps logrus, is
// silent unless DEBUG_OSLOCK is set or a level is configured, and turns warnings and
// errors into fatal exits when WARNFAIL_OSLOCK is set. A level from DEBUG_OSLOCK takes
// precedence over log.level and --log-level.
//
// The library packages under lib/ log through github.com/go-i2p/logger instead. That logger
// is configured only by its own environment, DEBUG_I2P and WARNFAIL_I2P.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
)

var (
	log  *Logger
	once sync.Once
)

type Logger struct {
	*logrus.Logger
}

type Entry struct {
	*logrus.Entry
}

func (l *Logger) Warn(args ...interface{}) {
	warnFatal(args...)
	l.Logger.Warn(args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	warnFatalf(format, args...)
	l.Logger.Warnf(format, args...)
}

func (l *Logger) Error(args ...interface{}) {
	warnFatal(args...)
	l.Logger.Error(args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	warnFatalf(format, args...)
	l.Logger.Errorf(format, args...)
}

func (l *Logger) WithField(key string, value interface{}) *Entry {
	return &Entry{l.Logger.WithField(key, value)}
}

func (l *Logger) WithFields(fields logrus.Fields) *Entry {
	return &Entry{l.Logger.WithFields(fields)}
}

func (l *Logger) WithError(err error) *Entry {
	return &Entry{l.Logger.WithError(err)}
}

func (e *Entry) Warn(args ...interface{}) {
	warnFatal(args...)
	e.Entry.Warn(args...)
}

func (e *Entry) Error(args ...interface{}) {
	warnFatal(args...)
	e.Entry.Error(args...)
}

func warnFatal(args ...interface{}) {
	if failFast != "" {
		log.Fatal(args...)
	}
}

func warnFatalf(format string, args ...interface{}) {
	if failFast != "" {
		log.Fatalf(format, args...)
	}
}

var (
	failFast string
	// envLevel is the level DEBUG_OSLOCK asked for, empty when it is unset.
	envLevel string
)

// InitializeLogger sets up the process logger from DEBUG_OSLOCK and WARNFAIL_OSLOCK.
func InitializeLogger() {
	once.Do(func() {
		log = &Logger{Logger: logrus.New()}
		log.SetOutput(io.Discard)
		log.SetLevel(logrus.PanicLevel)
		if logLevel := os.Getenv("DEBUG_OSLOCK"); logLevel != "" {
			envLevel = logLevel
			failFast = os.Getenv("WARNFAIL_OSLOCK")
			if failFast != "" {
				logLevel = "debug"
			}
			if err := SetLevel(logLevel); err != nil {
				log.SetOutput(os.Stderr)
				log.SetLevel(logrus.DebugLevel)
			}
			log.WithField("level", log.GetLevel()).Debug("Logging enabled.")
		}
	})
}

// SetLevel enables output to stderr at the named level (debug, info, warn or error).
func SetLevel(level string) error {
	var lvl logrus.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = logrus.DebugLevel
	case "info":
		lvl = logrus.InfoLevel
	case "warn":
		lvl = logrus.WarnLevel
	case "error":
		lvl = logrus.ErrorLevel
	default:
		return oops.In("logger").Errorf("unknown log level %q", level)
	}
	l := GetLogger()
	l.SetOutput(os.Stderr)
	l.SetLevel(lvl)
	return nil
}

// ApplyConfiguredLevel is SetLevel for a level from configuration or flags. It does nothing
// when DEBUG_OSLOCK chose the level.
func ApplyConfiguredLevel(level string) error {
	if envLevel != "" {
		return nil
	}
	return SetLevel(level)
}

// GetLogger returns the initialized Logger.
func GetLogger() *Logger {
	if log == nil {
		InitializeLogger()
	}
	return log
}

func init() {
	InitializeLogger()
}
