//go:build windows

package fsmeta

import (
	"os"
	"syscall"
	"time"
)

// birthTime reads CreationTime from the Win32FileAttributeData that
// os.Stat populates on Windows.
func birthTime(path string) (time.Time, bool) {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	d, ok := fi.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(0, d.CreationTime.Nanoseconds()), true
}
