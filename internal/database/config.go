package database

import "time"

type Config struct {
	// Path to the bbolt file
	FilePath string `envconfig:"DRAWBERRY_DB_PATH" default:"drawberry.db"`

	// How long to wait for the file lock held by another process
	LockTimeout time.Duration `envconfig:"DRAWBERRY_DB_LOCK_TIMEOUT" default:"5s"`

	// Inspection tools open the file without taking the write lock
	ReadOnly bool `ignored:"true"`
}
