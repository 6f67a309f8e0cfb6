package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(limit int, window time.Duration) (*Limiter, *clock) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(limit, window)
	l.now = c.now
	return l, c
}

func TestAllowConsumesAndRefills(t *testing.T) {
	l, c := newTestLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"), "keys are independent")

	c.t = c.t.Add(20 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"), "one token refills every 20s")
	assert.False(t, l.Allow("10.0.0.1"))

	c.t = c.t.Add(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"))
	}
	assert.False(t, l.Allow("10.0.0.1"), "refill is capped at the limit")
}

func TestEvictIdleKeys(t *testing.T) {
	l, c := newTestLimiter(5, time.Minute)
	l.Allow("a")
	c.t = c.t.Add(90 * time.Second)
	l.Allow("b")
	c.t = c.t.Add(45 * time.Second)
	l.evict()
	assert.Equal(t, 1, l.Len())
}
