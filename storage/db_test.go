package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func runDatabaseSuite(t *testing.T, db Database) {
	t.Helper()

	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound for missing key, got %v", err)
	}

	if err := db.Put([]byte("k"), []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, err := db.Get([]byte("k"))
	if err != nil || string(value) != "v1" {
		t.Fatalf("get: %q err %v", value, err)
	}

	if err := db.Put([]byte("k"), []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, err = db.Get([]byte("k"))
	if err != nil || string(value) != "v2" {
		t.Fatalf("get after overwrite: %q err %v", value, err)
	}

	// The stored value must not alias the caller's slice.
	input := []byte("aliased")
	if err := db.Put([]byte("alias"), input); err != nil {
		t.Fatalf("put: %v", err)
	}
	input[0] = 'X'
	value, err = db.Get([]byte("alias"))
	if err != nil || string(value) != "aliased" {
		t.Fatalf("stored value mutated through caller slice: %q err %v", value, err)
	}
}

func TestMemDB(t *testing.T) {
	db := NewMemDB()
	t.Cleanup(db.Close)
	runDatabaseSuite(t, db)
}

func TestBoltDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := NewBoltDB(path)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	t.Cleanup(db.Close)
	runDatabaseSuite(t, db)
}

func TestBoltDBPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := NewBoltDB(path)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	db.Close()

	reopened, err := NewBoltDB(path)
	if err != nil {
		t.Fatalf("reopen bolt: %v", err)
	}
	t.Cleanup(reopened.Close)
	value, err := reopened.Get([]byte("k"))
	if err != nil || string(value) != "v" {
		t.Fatalf("get after reopen: %q err %v", value, err)
	}
}

func TestLevelDB(t *testing.T) {
	db, err := NewLevelDB(filepath.Join(t.TempDir(), "leveldb"))
	if err != nil {
		t.Fatalf("open leveldb: %v", err)
	}
	t.Cleanup(db.Close)
	runDatabaseSuite(t, db)
}
