package storage_test

import (
	"testing"
	"time"

	"github.com/chwellgo/netcore/storage"
)

func TestMemoryGetPutRemove(t *testing.T) {
	m := storage.NewMemory()

	if _, ok, _ := m.Get("k"); ok {
		t.Fatal("expected missing key to report not found")
	}

	if err := m.Put("k", "v"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, ok, err := m.Get("k")
	if err != nil || !ok || v != "v" {
		t.Fatalf("Get = (%q, %v, %v), want (v, true, nil)", v, ok, err)
	}

	if err := m.Remove("k"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := m.Get("k"); ok {
		t.Fatal("expected key to be gone after Remove")
	}
}

func TestMemoryTTLExpires(t *testing.T) {
	m := storage.NewMemory()
	if err := m.PutTTL("k", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("PutTTL: %v", err)
	}
	if ok, _ := m.Exists("k"); !ok {
		t.Fatal("expected key to exist immediately after PutTTL")
	}

	time.Sleep(30 * time.Millisecond)
	if ok, _ := m.Exists("k"); ok {
		t.Fatal("expected key to have expired")
	}
}

func TestMemoryKeysPrefix(t *testing.T) {
	m := storage.NewMemory()
	m.Put("room:1", "a")
	m.Put("room:2", "b")
	m.Put("player:1", "c")

	keys, err := m.Keys("room:")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("Keys(room:) = %v, want 2 entries", keys)
	}
}
