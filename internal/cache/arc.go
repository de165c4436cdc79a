package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// NewLRU builds an adaptive replacement cache holding at most size records
func NewLRU(size int) (*LRU, error) {
	c, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("new arc cache of size %d: %w", size, err)
	}

	return &LRU{arc: c}, nil
}

var _ Cache = (*LRU)(nil)

type LRU struct {
	arc *lru.ARCCache
}

func (c *LRU) Get(key string) (interface{}, bool) {
	return c.arc.Get(key)
}

func (c *LRU) Add(key string, value interface{}) {
	c.arc.Add(key, value)
}

func (c *LRU) Delete(key string) {
	c.arc.Remove(key)
}

func (c *LRU) Len() int {
	return c.arc.Len()
}
