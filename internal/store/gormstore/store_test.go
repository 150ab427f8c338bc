package gormstore

import (
	"context"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s, err := New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestStore_LoadEmpty(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected no stored credential")
	}
}

func TestStore_SaveLoadDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "k1"); err != nil {
		t.Fatalf("save: %v", err)
	}
	v, ok, err := s.Load(ctx)
	if err != nil || !ok || v != "k1" {
		t.Fatalf("load after save: v=%q ok=%v err=%v", v, ok, err)
	}

	// overwrite keeps a single row
	if err := s.Save(ctx, "k2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, _ = s.Load(ctx)
	if !ok || v != "k2" {
		t.Fatalf("expected k2, got %q ok=%v", v, ok)
	}

	if err := s.Delete(ctx); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Load(ctx); ok {
		t.Fatalf("expected absent after delete")
	}
}
