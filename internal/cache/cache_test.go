package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestCandidateKey(t *testing.T) {
	k1 := CandidateKey("London", 10)
	k2 := CandidateKey("London", 10)
	if k1 != k2 {
		t.Error("same query should produce the same key")
	}

	if CandidateKey("London", 5) == k1 {
		t.Error("limit must be part of the key")
	}
	if CandidateKey("Paris", 10) == k1 {
		t.Error("name must be part of the key")
	}
	if len(k1) == 0 || k1[:len("geoparse:v1:")] != "geoparse:v1:" {
		t.Errorf("key missing namespace prefix: %s", k1)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, found := c.Get("missing"); found {
		t.Error("expected miss for unknown key")
	}

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || !bytes.Equal(val, []byte("v")) {
		t.Errorf("Get = %q, %v", val, found)
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("expected entry to expire")
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("a", []byte("1"), time.Minute)
	_ = c.Set("b", []byte("2"), time.Minute)

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, found := c.Get("a"); found {
		t.Error("expected empty cache after clear")
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	val, found := c.Get("k")
	if !found || !bytes.Equal(val, []byte("v")) {
		t.Errorf("Get = %q, %v", val, found)
	}

	// A fresh instance over the same directory sees the entry.
	c2 := NewDiskCache(dir, time.Minute)
	if _, found := c2.Get("k"); !found {
		t.Error("disk entries should survive the cache instance")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)

	if err := c.Set("k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get("k"); found {
		t.Error("expected disk entry to expire")
	}
}

func TestLayeredCache_Promotion(t *testing.T) {
	dir := t.TempDir()

	// Seed only the disk layer.
	seed := NewDiskCache(dir, time.Minute)
	if err := seed.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}

	c := NewLayeredCache(time.Minute, dir, time.Minute)
	val, found := c.Get("k")
	if !found || !bytes.Equal(val, []byte("v")) {
		t.Fatalf("Get = %q, %v", val, found)
	}

	// After promotion the memory layer serves it directly.
	if val, found := c.memory.Get("k"); !found || !bytes.Equal(val, []byte("v")) {
		t.Error("disk hit should be promoted into memory")
	}
}

func TestLayeredCache_SetBothLayers(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Minute)

	if err := c.Set("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, found := c.disk.Get("k"); !found {
		t.Error("Set should reach the disk layer")
	}

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get("k"); found {
		t.Error("expected miss after delete in both layers")
	}
}
