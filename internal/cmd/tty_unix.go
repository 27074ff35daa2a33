//go:build !windows

package cmd

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const ttyPath = "/dev/tty"

// minTermWidth is the narrowest terminal the picker draws in.
const minTermWidth = 20

// openTTY checks the controlling terminal is usable and opens it for the
// picker. stdin and stdout stay free for data.
func openTTY() (*os.File, error) {
	if os.Getenv("TERM") == "dumb" {
		return nil, errors.New("TERM=dumb is not supported")
	}
	tty, err := os.OpenFile(ttyPath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("no TTY available: %w", err)
	}
	ws, err := unix.IoctlGetWinsize(int(tty.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		tty.Close()
		return nil, fmt.Errorf("cannot get terminal size: %w", err)
	}
	if ws.Col < minTermWidth {
		tty.Close()
		return nil, fmt.Errorf("terminal too narrow (%d columns, need at least %d)", ws.Col, minTermWidth)
	}
	return tty, nil
}

// acquireLock takes an exclusive advisory lock on path. The returned file
// holds the lock until it is closed.
func acquireLock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600) //nolint:gosec // G304: path is under the data directory
	if err != nil {
		return nil, fmt.Errorf("cannot open lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, errors.New("another sift session holds the resume store")
	}
	return f, nil
}
