package util

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

// CheckFileExists reports whether fpath can be stat'ed.
func CheckFileExists(fpath string) bool {
	_, err := os.Stat(fpath)
	return err == nil
}

// EnsureParentDir creates the directory that will hold fpath.
func EnsureParentDir(fpath string) error {
	dir := filepath.Dir(fpath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return oops.In("util").With("dir", dir).Wrapf(err, "could not create directory")
	}
	return nil
}
