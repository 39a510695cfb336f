package ttlcache

import (
	"testing"
	"time"
)

func TestGetReturnsStoredValue(t *testing.T) {
	c := New[string](30 * time.Minute)
	c.Put("tenant-1", "handle")

	got, ok := c.Get("tenant-1")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if got != "handle" {
		t.Fatalf("got %q, want %q", got, "handle")
	}
}

func TestGetMissesUnknownKey(t *testing.T) {
	c := New[string](30 * time.Minute)

	if _, ok := c.Get("tenant-1"); ok {
		t.Fatalf("expected cache miss")
	}
}

func TestExpiredEntryIsNotServed(t *testing.T) {
	c := New[string](30 * time.Minute)

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Put("tenant-1", "handle")

	current = current.Add(29 * time.Minute)
	if _, ok := c.Get("tenant-1"); !ok {
		t.Fatalf("entry expired before its TTL")
	}

	current = current.Add(time.Minute)
	if _, ok := c.Get("tenant-1"); ok {
		t.Fatalf("expired entry was served")
	}
}

func TestPutReplacesEntry(t *testing.T) {
	c := New[string](30 * time.Minute)

	current := time.Now()
	c.now = func() time.Time { return current }

	c.Put("tenant-1", "old")
	current = current.Add(31 * time.Minute)
	c.Put("tenant-1", "new")

	got, ok := c.Get("tenant-1")
	if !ok {
		t.Fatalf("expected cache hit after refresh")
	}
	if got != "new" {
		t.Fatalf("got %q, want %q", got, "new")
	}
}
