package cache

import (
	"testing"
	"time"
)

func TestInvalidateMatchesNamespace(t *testing.T) {
	c := New(time.Minute, time.Minute)
	c.Set("titles:movie:20", []byte("a"))
	c.Set("titles:movie:5", []byte("b"))
	c.Set("titles:series:20", []byte("c"))
	c.Set("similar:tt1:10", []byte("d"))
	c.Set("title:tt1", []byte("e"))

	removed, err := c.Invalidate("titles:movie:*")
	if err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if _, ok := c.Get("titles:series:20"); !ok {
		t.Fatal("series entry should survive movie invalidation")
	}

	removed, err = c.Invalidate("similar:*")
	if err != nil || removed != 1 {
		t.Fatalf("expected 1 similar removed, got %d err=%v", removed, err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries left, got %d", c.Len())
	}
}

func TestInvalidateRejectsBadPattern(t *testing.T) {
	c := New(time.Minute, time.Minute)
	c.Set("titles:movie:20", []byte("a"))
	if _, err := c.Invalidate("titles:["); err == nil {
		t.Fatal("expected bad pattern error")
	}
	if c.Len() != 1 {
		t.Fatal("bad pattern must not remove entries")
	}
}

func TestGetMissing(t *testing.T) {
	c := New(time.Minute, time.Minute)
	if _, ok := c.Get("nope"); ok {
		t.Fatal("expected miss")
	}
}

func TestKey(t *testing.T) {
	if got := Key("latest", "series", 20); got != "latest:series:20" {
		t.Fatalf("unexpected key %q", got)
	}
}
