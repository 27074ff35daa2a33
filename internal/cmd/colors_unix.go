//go:build !windows

package cmd

import "golang.org/x/sys/unix"

// ttyColumns returns the column count of the terminal on fd, or 0.
func ttyColumns(fd uintptr) int {
	ws, err := unix.IoctlGetWinsize(int(fd), unix.TIOCGWINSZ)
	if err != nil {
		return 0
	}
	return int(ws.Col)
}
