package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTTL_GetSet(t *testing.T) {
	c := New[string, int](time.Minute)

	_, ok := c.Get("missing")
	require.False(t, ok)

	c.Set("a", 1)
	got, ok := c.Get("a")
	require.True(t, ok)
	require.Equal(t, 1, got)
}

func TestTTL_ExpiresLazily(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	c := New(time.Minute, WithClock[string, string](clock))

	c.Set("a", "one")
	c.Set("b", "two")
	require.Equal(t, 2, c.Len())

	now = now.Add(30 * time.Second)
	c.Set("c", "three")

	now = now.Add(45 * time.Second)
	// a and b are 75s old, c is 45s old
	_, ok := c.Get("a")
	require.False(t, ok)
	got, ok := c.Get("c")
	require.True(t, ok)
	require.Equal(t, "three", got)
	require.Equal(t, 1, c.Len())
}

func TestTTL_Sweep(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	c := New(time.Minute, WithClock[int, int](clock))

	c.Set(1, 1)
	c.Set(2, 2)
	now = now.Add(2 * time.Minute)
	require.Equal(t, 2, c.Sweep())
	require.Equal(t, 0, c.Len())
}

func TestTTL_ZeroTTLNeverExpires(t *testing.T) {
	c := New[string, int](0)
	c.Set("a", 1)
	require.Equal(t, 0, c.Sweep())
	_, ok := c.Get("a")
	require.True(t, ok)
}
