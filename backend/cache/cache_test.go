package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGet(t *testing.T) {
	c := New(10, time.Minute)
	defer c.Close()

	c.Set(Key("user", "u1"), "alice")
	assert.Equal(t, "alice", c.Get("user:u1"))
	assert.Nil(t, c.Get("user:u2"))
}

func TestTTLExpiry(t *testing.T) {
	c := New(10, time.Minute)
	defer c.Close()

	c.Set("stats:u1", 42, 10*time.Millisecond)
	assert.Equal(t, 42, c.Get("stats:u1"))

	time.Sleep(20 * time.Millisecond)
	assert.Nil(t, c.Get("stats:u1"))
}

func TestLRUEviction(t *testing.T) {
	c := New(2, time.Minute)
	defer c.Close()

	c.Set("user:a", 1)
	c.Set("user:b", 2)
	// Touch a so b becomes least recently used.
	c.Get("user:a")
	c.Set("user:c", 3)

	assert.Equal(t, 1, c.Get("user:a"))
	assert.Nil(t, c.Get("user:b"))
	assert.Equal(t, 3, c.Get("user:c"))
}

func TestInvalidatePattern(t *testing.T) {
	c := New(10, time.Minute)
	defer c.Close()

	c.Set("user:u1", "profile")
	c.Set("progress:u1", "rows")
	c.Set("stats:u1", "stats")
	c.Set("user:u2", "other")

	removed := c.Invalidate("u1")
	assert.Equal(t, 3, removed)
	assert.Nil(t, c.Get("user:u1"))
	assert.Nil(t, c.Get("progress:u1"))
	assert.Equal(t, "other", c.Get("user:u2"))
}

func TestClearAndStats(t *testing.T) {
	c := New(10, time.Minute)
	defer c.Close()

	c.Set("user:u1", 1)
	c.Get("user:u1") // hit
	c.Get("user:u2") // miss

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Entries)

	assert.Equal(t, 1, c.Clear())
	assert.Equal(t, 0, c.Stats().Entries)
}

func TestSweepRemovesExpired(t *testing.T) {
	c := New(10, time.Minute)
	defer c.Close()

	c.Set("user:a", 1, 5*time.Millisecond)
	c.Set("user:b", 2, time.Minute)
	time.Sleep(10 * time.Millisecond)

	c.sweep()
	assert.Equal(t, 1, c.Stats().Entries)
	assert.Equal(t, 2, c.Get("user:b"))
}
