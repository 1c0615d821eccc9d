package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterPerKey(t *testing.T) {
	l := New(2, 1)
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"), "bucket exhausted")
	assert.True(t, l.Allow("10.0.0.2"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"), "refilled one token")
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestLimiterEvictsIdleKeys(t *testing.T) {
	l := New(1, 1)
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.Len())

	now = now.Add(2 * idleTTL)
	l.Allow("c")
	assert.Equal(t, 1, l.Len())
}
