// Package store persists the committed chain of a node between runs. Stored chains are not
// trusted: a loaded chain goes through the ledger's import validation like any other candidate.
package store

import (
	"fmt"

	"github.com/Luismorlan/ticket_chain/config"
	"github.com/Luismorlan/ticket_chain/model"
)

type Store interface {
	// Load returns the saved chain, or an empty chain when nothing was saved yet.
	Load() ([]model.Block, error)
	// Save replaces whatever was saved before with blocks.
	Save(blocks []model.Block) error
	Close() error
}

// Open picks the backend named by the config.
func Open(c config.AppConfig) (Store, error) {
	switch c.STORE_KIND {
	case config.StoreFile:
		return NewFileStore(c.STORE_PATH), nil
	case config.StoreBolt:
		return OpenBoltStore(c.STORE_PATH)
	default:
		return nil, fmt.Errorf("store: unknown kind %q", c.STORE_KIND)
	}
}
