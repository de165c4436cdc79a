// Package strpool reuses string builders for rendered messages.
package strpool

import (
	"strings"
	"sync"
)

// builders that grew past this are left to the garbage collector
const maxCap = 64 << 10

var pool = sync.Pool{
	New: func() interface{} {
		return new(strings.Builder)
	},
}

func Get() *strings.Builder {
	return pool.Get().(*strings.Builder)
}

// Put resets the builder and returns it to the pool. The builder must not be used afterwards,
// copy its String() first.
func Put(b *strings.Builder) {
	if b.Cap() > maxCap {
		return
	}

	b.Reset()
	pool.Put(b)
}
