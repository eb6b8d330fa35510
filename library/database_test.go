package library

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabase_GetMissingKey(t *testing.T) {
	db := tempDB(t)
	if _, err := db.Get(context.Background(), "biblio_books"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("want ErrKeyNotFound, got %v", err)
	}
}

func TestDatabase_PutAllOverwrites(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	if err := db.PutAll(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := db.PutAll(ctx, map[string][]byte{"a": []byte("3")}); err != nil {
		t.Fatalf("put again: %v", err)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"a", "3"},
		{"b", "2"},
	}
	for _, tt := range tests {
		got, err := db.Get(ctx, tt.key)
		if err != nil {
			t.Fatalf("get %s: %v", tt.key, err)
		}
		if string(got) != tt.want {
			t.Errorf("%s: want %q, got %q", tt.key, tt.want, got)
		}
	}

	keys, err := db.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if strings.Join(keys, ",") != "a,b" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestDatabase_LargeValue(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()
	huge := strings.Repeat("lorem ipsum ", 50_000) // ~550 KB

	if err := db.PutAll(ctx, map[string][]byte{"big": []byte(huge)}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := db.Get(ctx, "big")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != len(huge) {
		t.Fatalf("want %d bytes, got %d", len(huge), len(got))
	}
}

func TestDatabase_Delete(t *testing.T) {
	db := tempDB(t)
	ctx := context.Background()

	if err := db.PutAll(ctx, map[string][]byte{"biblio_user": []byte("null")}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := db.Delete(ctx, "biblio_user"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.Get(ctx, "biblio_user"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("want ErrKeyNotFound after delete, got %v", err)
	}
	// Deleting twice is fine.
	if err := db.Delete(ctx, "biblio_user"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestDatabase_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lib.db")
	ctx := context.Background()

	db, err := NewDatabase(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.PutAll(ctx, map[string][]byte{"k": []byte("v")}); err != nil {
		t.Fatalf("put: %v", err)
	}
	db.Close()

	// Migrations run again on an already migrated file.
	db, err = NewDatabase(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	got, err := db.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("want v, got %q (%v)", got, err)
	}
}
