//go:build linux

package fsmeta

import (
	"time"

	"golang.org/x/sys/unix"
)

// birthTime uses statx(2), via golang.org/x/sys/unix, to read the
// STATX_BTIME field directly from the kernel. Filesystems that don't
// report a birth time (many older filesystems, some network mounts)
// leave the STATX_BTIME bit unset in the result mask, and birthTime
// reports ok=false for those.
func birthTime(path string) (time.Time, bool) {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME, &stx); err != nil {
		return time.Time{}, false
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}, false
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), true
}
