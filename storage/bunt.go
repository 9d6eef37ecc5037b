package storage

import (
	"strings"
	"time"

	"github.com/tidwall/buntdb"
)

// BuntStore persists to disk (or ":memory:") via tidwall/buntdb, so values
// written to a file-backed store survive a restart.
type BuntStore struct {
	db *buntdb.DB
}

// NewBuntStore opens (creating if absent) the buntdb file at path. Pass
// ":memory:" for a non-persistent instance.
func NewBuntStore(path string) (*BuntStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &BuntStore{db: db}, nil
}

func (b *BuntStore) Get(key string) (string, bool, error) {
	var value string
	var found bool
	err := b.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err == buntdb.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		value, found = v, true
		return nil
	})
	return value, found, err
}

func (b *BuntStore) Put(key, value string) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, value, nil)
		return err
	})
}

func (b *BuntStore) PutTTL(key, value string, ttl time.Duration) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, value, &buntdb.SetOptions{Expires: true, TTL: ttl})
		return err
	})
}

func (b *BuntStore) Remove(key string) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key)
		if err == buntdb.ErrNotFound {
			return nil
		}
		return err
	})
}

func (b *BuntStore) Exists(key string) (bool, error) {
	_, found, err := b.Get(key)
	return found, err
}

func (b *BuntStore) Keys(prefix string) ([]string, error) {
	var keys []string
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(key, _ string) bool {
			if strings.HasPrefix(key, prefix) {
				keys = append(keys, key)
			}
			return true
		})
	})
	return keys, err
}

func (b *BuntStore) Close() error { return b.db.Close() }
