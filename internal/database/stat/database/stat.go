// Package database keeps one bucket of finished-match results per player.
package database

import (
	"encoding/json"
	"fmt"

	"github.com/drawberry-games/drawberry/internal/cache"
	"github.com/drawberry-games/drawberry/internal/database"
	"github.com/drawberry-games/drawberry/internal/database/stat/model"
	bolt "go.etcd.io/bbolt"
)

// bucket names are prefixed so a player id can never collide with the other buckets
const prefix = "stat:"

var ErrNotFound = fmt.Errorf("not found")

func New(db *database.DB, cache cache.Cache) *DB {
	return &DB{sDB: db, cache: cache}
}

type DB struct {
	sDB *database.DB

	cache cache.Cache
}

func bucketName(userID string) string {
	return prefix + userID
}

func (db *DB) FetchProfileStat(userID string) (model.AggregationStat, error) {
	stats, err := db.FetchByUserID(userID)
	if err != nil {
		return model.AggregationStat{}, fmt.Errorf("fetch by userID: %w", err)
	}

	return model.Aggregate(stats), nil
}

// FetchByUserID returns the player's results in insertion key order
func (db *DB) FetchByUserID(userID string) ([]model.Stat, error) {
	name := bucketName(userID)
	if db.cache != nil {
		if v, ok := db.cache.Get(name); ok {
			return v.([]model.Stat), nil
		}
	}

	var stats []model.Stat
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(name))
		if b == nil {
			return ErrNotFound
		}

		return b.ForEach(func(k, v []byte) error {
			var stat model.Stat
			if err := json.Unmarshal(v, &stat); err != nil {
				return fmt.Errorf("unmarshal stat: %w", err)
			}

			// the id is the key, not part of the value
			if err := stat.ID.UnmarshalBinary(k); err != nil {
				return fmt.Errorf("stat id: %w", err)
			}

			stats = append(stats, stat)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", name, err)
	}

	if db.cache != nil {
		db.cache.Add(name, stats)
	}

	return stats, nil
}

func (db *DB) Add(stat model.Stat) error {
	key, err := stat.ID.MarshalBinary()
	if err != nil {
		return fmt.Errorf("stat id: %w", err)
	}

	data, err := json.Marshal(stat)
	if err != nil {
		return fmt.Errorf("marshal stat: %w", err)
	}

	name := bucketName(stat.UserID)
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		return b.Put(key, data)
	}); err != nil {
		return fmt.Errorf("update %s: %w", name, err)
	}

	if db.cache != nil {
		db.cache.Delete(name)
	}

	return nil
}
