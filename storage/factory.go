package storage

import (
	"fmt"

	"github.com/chwellgo/netcore/config"
)

// New constructs a Store from cfg: "memory" for Memory, "buntdb" for a
// BuntStore rooted at cfg.Path.
func New(cfg config.Storage) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemory(), nil
	case "buntdb":
		return NewBuntStore(cfg.Path)
	default:
		return nil, fmt.Errorf("storage: unknown backend type %q", cfg.Type)
	}
}
