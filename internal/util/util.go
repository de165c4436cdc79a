package util

import (
	"fmt"
	"hash/fnv"
	"time"
)

// Plural picks the singular or plural form for n
func Plural(n int, one, many string) string {
	if n == 1 || n == -1 {
		return one
	}

	return many
}

// GenerateCodeHash derives a short room code from the current time. Callers check uniqueness.
func GenerateCodeHash() (int64, error) {
	h := fnv.New32a()
	bytes, err := time.Now().MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("hash binary encode error: %w", err)
	}

	_, err = h.Write(bytes)
	if err != nil {
		return 0, fmt.Errorf("hash write error: %w", err)
	}

	return int64(h.Sum32() >> 20), nil
}
