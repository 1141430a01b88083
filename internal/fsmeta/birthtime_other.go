//go:build !linux && !darwin && !windows

package fsmeta

import "time"

// birthTime has no portable fallback on other platforms; callers get
// a zero duration instead.
func birthTime(path string) (time.Time, bool) {
	return time.Time{}, false
}
