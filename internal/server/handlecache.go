package server

import (
	"os"
	"time"
)

// cachedHandle pairs an open read handle with the time it was last used.
type cachedHandle struct {
	f        *os.File
	lastUsed time.Time
}

// handleCache reuses open read handles across repeated requests for
// the same file. It is owned and touched only by the dispatcher's
// goroutine (the Serve loop), so it needs no lock: nothing else ever
// reaches into the map.
type handleCache struct {
	entries    map[string]*cachedHandle
	idleExpiry time.Duration
}

func newHandleCache(idleExpiry time.Duration) *handleCache {
	return &handleCache{
		entries:    make(map[string]*cachedHandle),
		idleExpiry: idleExpiry,
	}
}

// get returns the cached handle for path, opening and inserting one on miss.
func (c *handleCache) get(path string) (*os.File, error) {
	if ch, ok := c.entries[path]; ok {
		ch.lastUsed = time.Now()
		return ch.f, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	c.entries[path] = &cachedHandle{f: f, lastUsed: time.Now()}
	return f, nil
}

// sweep closes and evicts handles idle beyond idleExpiry. A zero
// idleExpiry disables eviction, keeping the working set bounded only
// by distinct files requested.
func (c *handleCache) sweep() {
	if c.idleExpiry <= 0 {
		return
	}
	now := time.Now()
	for path, ch := range c.entries {
		if now.Sub(ch.lastUsed) > c.idleExpiry {
			_ = ch.f.Close()
			delete(c.entries, path)
		}
	}
}

// closeAll releases every cached handle; used on shutdown.
func (c *handleCache) closeAll() {
	for path, ch := range c.entries {
		_ = ch.f.Close()
		delete(c.entries, path)
	}
}
