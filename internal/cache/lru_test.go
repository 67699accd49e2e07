package cache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/irceline/internal/cache"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := cache.NewLRU[string, string](5)

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		c.Put(k, k+"-value")
	}
	assert.Equal(t, 5, c.Len())
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, c.Keys())

	c.Put("f", "f-value")
	assert.Equal(t, 5, c.Len())
	assert.False(t, c.Contains("a"))
	assert.Equal(t, []string{"f", "e", "d", "c", "b"}, c.Keys())

	c.Put("b", "b-updated")
	c.Put("g", "g-value")
	assert.Equal(t, []string{"g", "b", "f", "e", "d"}, c.Keys())
	assert.False(t, c.Contains("c"))

	v, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, "b-updated", v)
}

func TestLRU_GetPromotes(t *testing.T) {
	c := cache.NewLRU[string, int](3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("d", 4)

	assert.True(t, c.Contains("a"))
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestLRU_ContainsPromotes(t *testing.T) {
	c := cache.NewLRU[string, int](3)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	require.True(t, c.Contains("a"))

	c.Put("d", 4)

	assert.Equal(t, []string{"d", "a", "c"}, c.Keys())
}

func TestLRU_MissDoesNotChangeOrder(t *testing.T) {
	c := cache.NewLRU[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	assert.False(t, c.Contains("x"))
	_, ok := c.Get("y")
	assert.False(t, ok)

	assert.Equal(t, []string{"b", "a"}, c.Keys())
}

func TestLRU_RetainsMostRecentlyTouched(t *testing.T) {
	for _, capacity := range []int{1, 2, 5, 20} {
		t.Run(fmt.Sprintf("capacity_%d", capacity), func(t *testing.T) {
			c := cache.NewLRU[int, int](capacity)
			total := capacity*2 + 1
			for i := 0; i < total; i++ {
				c.Put(i, i)
			}

			assert.Equal(t, capacity, c.Len())
			for i := 0; i < total; i++ {
				assert.Equal(t, i >= total-capacity, c.Contains(i), "key %d", i)
			}
		})
	}
}

func TestLRU_EvictCallback(t *testing.T) {
	var evicted []string
	c := cache.NewLRU[string, int](2, cache.WithEvictCallback(func(k string, _ int) {
		evicted = append(evicted, k)
	}))

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)
	c.Put("d", 4)

	assert.Equal(t, []string{"a", "b"}, evicted)
}

func TestLRU_Remove(t *testing.T) {
	c := cache.NewLRU[string, int](2)
	c.Put("a", 1)

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, 0, c.Len())
}

func TestLRU_MinimumCapacity(t *testing.T) {
	c := cache.NewLRU[string, int](0)
	assert.Equal(t, 1, c.Cap())

	c.Put("a", 1)
	c.Put("b", 2)
	assert.Equal(t, []string{"b"}, c.Keys())
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := cache.NewLRU[int, int](10)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := (g*200 + i) % 25
				c.Put(k, i)
				c.Contains(k)
				c.Get(k)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 10, c.Len())
}
