package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_AddGetDelete(t *testing.T) {
	t.Parallel()

	c, err := NewLRU(2)
	require.NoError(t, err)

	c.Add("ann", 1)
	v, ok := c.Get("ann")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Add("ann", 2)
	v, _ = c.Get("ann")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())

	c.Delete("ann")
	_, ok = c.Get("ann")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestLRU_Bounded(t *testing.T) {
	t.Parallel()

	c, err := NewLRU(2)
	require.NoError(t, err)

	for _, key := range []string{"stat:a", "stat:b", "stat:c"} {
		c.Add(key, key)
	}

	assert.Equal(t, 2, c.Len())
}

func TestNewLRU_ZeroSize(t *testing.T) {
	t.Parallel()

	_, err := NewLRU(0)
	assert.Error(t, err)
}
