// Package cache keeps recently read database records in memory.
package cache

// Cache is keyed by the bbolt key of the cached record: a user id or a stat bucket name.
// Writers must Delete or overwrite a key after changing the record behind it.
type Cache interface {
	Get(key string) (interface{}, bool)
	Add(key string, value interface{})
	Delete(key string)
	Len() int
}
