package database

import (
	"errors"
	"testing"

	"github.com/drawberry-games/drawberry/internal/cache"
	"github.com/drawberry-games/drawberry/internal/database/dbtest"
	"github.com/drawberry-games/drawberry/internal/database/user/model"
)

func TestDB_StoreFetch(t *testing.T) {
	t.Parallel()

	c, err := cache.NewLRU(16)
	if err != nil {
		t.Fatalf("new lru: %v", err)
	}

	db := New(dbtest.New(t), c)

	if _, err := db.Fetch("nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected %v got %v", ErrNotFound, err)
	}

	u := model.NewUser("p1", "Jon")
	u.Stars = 2
	if err := db.Store(u); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := db.Fetch("p1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if got.Name != "Jon" || got.Stars != 2 {
		t.Errorf("expected %#v got %#v", u, got)
	}
}

func TestDB_FetchOrCreate(t *testing.T) {
	t.Parallel()

	db := New(dbtest.New(t), nil)

	u, err := db.FetchOrCreate("p2", "Calvin")
	if err != nil {
		t.Fatalf("fetch or create: %v", err)
	}

	if u.Status != model.StatusActive {
		t.Errorf("expected %v got %v", model.StatusActive, u.Status)
	}

	again, err := db.FetchOrCreate("p2", "Other")
	if err != nil {
		t.Fatalf("fetch or create: %v", err)
	}

	if again.Name != "Calvin" {
		t.Errorf("expected %q got %q", "Calvin", again.Name)
	}
}
