package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestHandleCache_ReusesOpenHandle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := newHandleCache(0)
	f1, err := c.get(path)
	if err != nil {
		t.Fatal(err)
	}
	f2, err := c.get(path)
	if err != nil {
		t.Fatal(err)
	}
	if f1 != f2 {
		t.Fatalf("expected cache hit to return the same *os.File")
	}
	c.closeAll()
}

func TestHandleCache_SweepEvictsIdle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := newHandleCache(10 * time.Millisecond)
	if _, err := c.get(path); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	c.sweep()
	if len(c.entries) != 0 {
		t.Fatalf("expected idle handle to be evicted, got %d entries", len(c.entries))
	}
}

func TestHandleCache_ZeroIdleDisablesEviction(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := newHandleCache(0)
	if _, err := c.get(path); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	c.sweep()
	if len(c.entries) != 1 {
		t.Fatalf("expected no eviction with idleExpiry=0, got %d entries", len(c.entries))
	}
	c.closeAll()
}
