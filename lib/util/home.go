package util

import (
	"os"

	"github.com/go-i2p/logger"
)

// UserHome returns the current user's home directory, falling back to $HOME, then
// %USERPROFILE%, then the working directory.
func UserHome() string {
	homeDir, err := os.UserHomeDir()
	if err == nil {
		return homeDir
	}
	for _, env := range []string{"HOME", "USERPROFILE"} {
		if home := os.Getenv(env); home != "" {
			log.WithFields(logger.Fields{
				"at":  "util.UserHome",
				"env": env,
			}).WithError(err).Warn("home_dir_fallback")
			return home
		}
	}
	if wd, wdErr := os.Getwd(); wdErr == nil {
		log.WithFields(logger.Fields{
			"at":  "util.UserHome",
			"dir": wd,
		}).WithError(err).Warn("home_dir_fallback_working_dir")
		return wd
	}
	panic("oslock: unable to determine home directory; set $HOME")
}
