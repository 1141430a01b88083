// Package fsmeta extracts filesystem metadata the standard library
// does not expose portably — in particular file creation time, needed
// as a duration since the Unix epoch for directory listings.
package fsmeta

import "time"

// Created returns the creation time of the file at path as a duration
// since the Unix epoch. If the platform or filesystem cannot report a
// creation time, it returns zero rather than failing the whole listing.
func Created(path string) time.Duration {
	t, ok := birthTime(path)
	if !ok {
		return 0
	}
	return time.Duration(t.UnixNano())
}
