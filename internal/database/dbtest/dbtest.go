// Package dbtest opens throwaway bbolt files for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/drawberry-games/drawberry/internal/database"
)

func New(t *testing.T) *database.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{FilePath: filepath.Join(t.TempDir(), "test.db"), LockTimeout: time.Second})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(ctx); err != nil {
			t.Errorf("close db: %v", err)
		}
	})

	return db
}
