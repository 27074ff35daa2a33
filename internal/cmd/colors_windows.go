//go:build windows

package cmd

// ttyColumns always reports 0; the width comes from $COLUMNS instead.
func ttyColumns(fd uintptr) int { return 0 }
