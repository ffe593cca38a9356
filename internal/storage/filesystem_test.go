package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAndReadRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	key, err := store.Write("docs/history.json", []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if key != "docs/history.json" {
		t.Fatalf("key = %q", key)
	}
	data, err := store.Read("docs/history.json")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Fatalf("data = %s", data)
	}
}

func TestReadMissingReportsNotExist(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Read("absent.json"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}

func TestWriteRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "base"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Write("../escape.json", []byte("x")); err == nil {
		t.Fatalf("traversal key accepted")
	}
	if _, err := store.Write("  ", []byte("x")); err == nil {
		t.Fatalf("blank key accepted")
	}
}
