package cache

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"storefront/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.SetOutput(io.Discard, io.Discard)
	os.Exit(m.Run())
}

var ctx = context.Background()

func TestMemory_SetGetDelete(t *testing.T) {
	c := NewMemory(Options{MaxCapacityMB: 1, TTL: time.Minute})
	defer c.Close()

	c.Set(ctx, "gallery", []byte("listing"))
	got, ok := c.Get(ctx, "gallery")
	if !ok || string(got) != "listing" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	c.Set(ctx, "gallery", []byte("newer"))
	if got, _ := c.Get(ctx, "gallery"); string(got) != "newer" {
		t.Errorf("overwrite failed: %q", got)
	}
	if c.totalSize != int64(len("newer")) {
		t.Errorf("totalSize = %d after overwrite", c.totalSize)
	}

	c.Delete(ctx, "gallery")
	if _, ok := c.Get(ctx, "gallery"); ok {
		t.Error("item survived Delete")
	}
	if c.totalSize != 0 {
		t.Errorf("totalSize = %d after delete", c.totalSize)
	}
}

func TestMemory_Expiry(t *testing.T) {
	c := NewMemory(Options{MaxCapacityMB: 1, TTL: 20 * time.Millisecond})
	defer c.Close()

	c.Set(ctx, "k", []byte("v"))
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expired item returned")
	}

	n, freed := c.removeExpired(time.Now())
	if n != 1 || freed != 1 {
		t.Errorf("removeExpired = %d, %d", n, freed)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d", c.Len())
	}
}

func TestMemory_SkipsOversizedItems(t *testing.T) {
	c := NewMemory(Options{MaxCapacityMB: 1, TTL: time.Minute, MaxItemBytes: 8})
	defer c.Close()

	c.Set(ctx, "big", bytes.Repeat([]byte("x"), 9))
	if _, ok := c.Get(ctx, "big"); ok {
		t.Error("item above MaxItemBytes should not be stored")
	}
}

func TestMemory_PrunesWhenFull(t *testing.T) {
	c := NewMemory(Options{MaxCapacityMB: 1, TTL: time.Minute})
	defer c.Close()

	chunk := bytes.Repeat([]byte("x"), 300*1024)
	c.Set(ctx, "a", chunk)
	c.Set(ctx, "b", chunk)
	c.Set(ctx, "c", chunk)
	c.Set(ctx, "d", chunk)

	if c.totalSize > c.maxSize {
		t.Fatalf("totalSize %d exceeds max %d", c.totalSize, c.maxSize)
	}
	if _, ok := c.Get(ctx, "d"); !ok {
		t.Error("newest item should be present after pruning")
	}
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("oldest item should have been evicted")
	}
}

func TestNoop(t *testing.T) {
	var s Store = Noop{}
	s.Set(ctx, "k", []byte("v"))
	if _, ok := s.Get(ctx, "k"); ok {
		t.Error("Noop must never hit")
	}
}

func TestNewRedis_BadURL(t *testing.T) {
	if _, err := NewRedis(ctx, "not-a-url://", time.Minute, "sf:"); err == nil {
		t.Fatal("expected parse error")
	}
}
