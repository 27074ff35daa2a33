//go:build windows

package cmd

import (
	"errors"
	"os"
)

func openTTY() (*os.File, error) {
	return nil, errors.New("the interactive picker is not supported on Windows")
}

// acquireLock opens path without locking it.
func acquireLock(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600) //nolint:gosec // G304: path is under the data directory
}
