package cache

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUGetOrOpen(t *testing.T) {
	opened := 0
	c := New[string, int](2, nil)

	v, err := c.GetOrOpen("a", func() (int, error) { opened++; return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// Hit: open must not run again.
	v, err = c.GetOrOpen("a", func() (int, error) { opened++; return 99, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, opened)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLRUOpenError(t *testing.T) {
	c := New[string, int](2, nil)
	wantErr := errors.New("open failed")

	_, err := c.GetOrOpen("a", func() (int, error) { return 0, wantErr })
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 0, c.Len())
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := New[string, int](2, func(k string, _ int) { evicted = append(evicted, k) })

	open := func(v int) func() (int, error) {
		return func() (int, error) { return v, nil }
	}

	_, err := c.GetOrOpen("a", open(1))
	require.NoError(t, err)
	_, err = c.GetOrOpen("b", open(2))
	require.NoError(t, err)

	// Touch "a" so "b" becomes least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	_, err = c.GetOrOpen("c", open(3))
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestLRUCapacityBound(t *testing.T) {
	closed := 0
	c := New[int, int](12, func(int, int) { closed++ })

	for i := 0; i < 13; i++ {
		_, err := c.GetOrOpen(i, func() (int, error) { return i, nil })
		require.NoError(t, err)
	}

	assert.Equal(t, 12, c.Len())
	assert.Equal(t, 1, closed, "exactly one eviction for 13 inserts at capacity 12")
	_, ok := c.Get(0)
	assert.False(t, ok, "oldest entry evicted")
}

func TestLRURemove(t *testing.T) {
	var evicted []string
	c := New[string, int](4, func(k string, _ int) { evicted = append(evicted, k) })

	_, err := c.GetOrOpen("a", func() (int, error) { return 1, nil })
	require.NoError(t, err)

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, []string{"a"}, evicted)
}

func TestLRUClear(t *testing.T) {
	evicted := make(map[string]int)
	c := New[string, int](4, func(k string, _ int) { evicted[k]++ })

	for _, k := range []string{"a", "b", "c"} {
		_, err := c.GetOrOpen(k, func() (int, error) { return 0, nil })
		require.NoError(t, err)
	}

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, evicted, "each entry closed exactly once")

	// Cache remains usable after Clear.
	_, err := c.GetOrOpen("d", func() (int, error) { return 4, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestLRUStress(t *testing.T) {
	alive := make(map[int]bool)
	c := New[int, int](8, func(k int, _ int) { delete(alive, k) })

	for i := 0; i < 100; i++ {
		k := i % 20
		_, err := c.GetOrOpen(k, func() (int, error) {
			if alive[k] {
				return 0, fmt.Errorf("key %d opened twice", k)
			}
			alive[k] = true
			return k, nil
		})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(alive), 8)
	}
}
