// Package database wraps the bbolt file that stores users, match statistics and saved rooms.
package database

import (
	"context"
	"fmt"

	"github.com/drawberry-games/drawberry/internal/logging"
	bolt "go.etcd.io/bbolt"
)

type DB struct {
	DB *bolt.DB
}

// NewFromEnv opens the file named by the config, creating it unless the config is read-only
func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx).Named("database.NewFromEnv")

	mode := "read-write"
	if config.ReadOnly {
		mode = "read-only"
	}
	logger.Infof("opening %s %s", mode, config.FilePath)

	db, err := bolt.Open(config.FilePath, 0600, &bolt.Options{
		Timeout:  config.LockTimeout,
		ReadOnly: config.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("open bolt file %s: %w", config.FilePath, err)
	}

	return &DB{DB: db}, nil
}

func (db *DB) Close(ctx context.Context) error {
	logging.FromContext(ctx).Named("database.Close").Infof("closing %s", db.DB.Path())

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("close bolt file: %w", err)
	}

	return nil
}
