package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertRetrieve(t *testing.T) {
	c := New[string](10)

	c.Insert("a", "value-a", 1)
	c.Insert("b", "value-b", 2)

	value, ok := c.Retrieve("a")
	require.True(t, ok)
	assert.Equal(t, "value-a", value)

	_, ok = c.Retrieve("missing")
	assert.False(t, ok)

	assert.Equal(t, 3, c.Weight())
	assert.Equal(t, 10, c.Budget())
	assert.Equal(t, 2, c.Len())
}

func TestInsertReplaces(t *testing.T) {
	c := New[int](10)

	c.Insert("a", 1, 4)
	c.Insert("a", 2, 3)

	value, ok := c.Retrieve("a")
	require.True(t, ok)
	assert.Equal(t, 2, value)
	assert.Equal(t, 3, c.Weight())
	assert.Equal(t, 1, c.Len())
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int](3)

	c.Insert("a", 1, 1)
	c.Insert("b", 2, 1)
	c.Insert("c", 3, 1)

	// Touch a so that b becomes the eviction candidate
	_, ok := c.Retrieve("a")
	require.True(t, ok)

	c.Insert("d", 4, 1)
	assert.Equal(t, 3, c.Weight())

	_, ok = c.Retrieve("b")
	assert.False(t, ok)
	for _, key := range []string{"a", "c", "d"} {
		_, ok := c.Retrieve(key)
		assert.True(t, ok, key)
	}

	// A heavy entry evicts as many entries as needed
	c.Insert("heavy", 5, 3)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 3, c.Weight())
}

func TestOverweightEntryIsNotStored(t *testing.T) {
	c := New[int](2)

	c.Insert("a", 1, 1)
	c.Insert("big", 2, 3)

	_, ok := c.Retrieve("big")
	assert.False(t, ok)
	_, ok = c.Retrieve("a")
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	c := New[int](10)
	c.Insert("a", 1, 1)
	c.Insert("b", 2, 1)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.Weight())

	_, ok := c.Retrieve("a")
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	c := New[int](50)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				key := fmt.Sprintf("%d-%d", worker, j%100)
				c.Insert(key, j, 1)
				c.Retrieve(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Weight(), c.Budget())
	assert.Equal(t, c.Weight(), c.Len())
}
