// Package database stores snapshots of rooms that were still running at shutdown, keyed by
// room code.
package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/drawberry-games/drawberry/internal/byteutil"
	"github.com/drawberry-games/drawberry/internal/database"
	"github.com/drawberry-games/drawberry/internal/database/matchstate/model"
	bolt "go.etcd.io/bbolt"
)

const bucket = "states"

var (
	ErrEntryNotFound  = fmt.Errorf("not found")
	ErrBucketNotFound = fmt.Errorf("bucket not found")
)

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

// FetchAll returns the saved rooms ordered by code
func (db *DB) FetchAll() ([]model.State, error) {
	var states []model.State

	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return ErrEntryNotFound
		}

		return b.ForEach(func(k, v []byte) error {
			var state model.State
			if err := json.Unmarshal(v, &state); err != nil {
				return fmt.Errorf("unmarshal room %d: %w", byteutil.DecodeBytesToInt64(k), err)
			}

			states = append(states, state)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("view states: %w", err)
	}

	return states, nil
}

func (db *DB) Add(state model.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal room %d: %w", state.Code, err)
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		return b.Put(byteutil.EncodeInt64ToBytes(state.Code), data)
	}); err != nil {
		return fmt.Errorf("update states: %w", err)
	}

	return nil
}

// Delete removes a single room, deleting a missing room is not an error
func (db *DB) Delete(code int64) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		return b.Delete(byteutil.EncodeInt64ToBytes(code))
	}); err != nil {
		return fmt.Errorf("update states: %w", err)
	}

	return nil
}

// Clean drops every saved room once they were restored
func (db *DB) Clean() error {
	err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		return tx.DeleteBucket([]byte(bucket))
	})
	if errors.Is(err, bolt.ErrBucketNotFound) {
		return ErrBucketNotFound
	}
	if err != nil {
		return fmt.Errorf("delete states bucket: %w", err)
	}

	return nil
}
