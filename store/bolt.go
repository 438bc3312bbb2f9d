package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Luismorlan/ticket_chain/model"
	bolt "go.etcd.io/bbolt"
)

var blocksBucket = []byte("blocks")

// BoltStore keeps one record per block, keyed by the big endian block index so a cursor walks
// them in chain order.
type BoltStore struct {
	db *bolt.DB
}

func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltStore{db: db}, nil
}

func indexKey(index int64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(index))
	return key
}

func (s *BoltStore) Load() ([]model.Block, error) {
	var blocks []model.Block
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucket).ForEach(func(k, v []byte) error {
			var block model.Block
			if err := json.Unmarshal(v, &block); err != nil {
				return fmt.Errorf("store: block %x: %w", k, err)
			}
			blocks = append(blocks, block)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

// Save rewrites only what changed: blocks whose stored hash differs are overwritten and records
// past the end of the new chain are deleted, all in one transaction.
func (s *BoltStore) Save(blocks []model.Block) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(blocksBucket)
		for i := range blocks {
			key := indexKey(int64(i))
			if stored := bucket.Get(key); stored != nil {
				var old model.Block
				if json.Unmarshal(stored, &old) == nil && old.Hash == blocks[i].Hash {
					continue
				}
			}
			value, err := json.Marshal(&blocks[i])
			if err != nil {
				return err
			}
			if err := bucket.Put(key, value); err != nil {
				return err
			}
		}
		var stale [][]byte
		c := bucket.Cursor()
		for k, _ := c.Seek(indexKey(int64(len(blocks)))); k != nil; k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
