// Package metadb provides BoltDB-backed persistence for plot-level metadata
// that is not part of a tag index: today, just the last root block.
package metadb

import (
	"fmt"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

var bucketMeta = []byte("meta")

// lastRootBlockKey is the single well-known key under which the plot's last
// root block is stored.
var lastRootBlockKey = []byte("last_root_block")

// MetaDB is a generic Get/Put key-value store over a single bbolt bucket,
// backing PlotMetaDB.
type MetaDB struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the metadata database at
// <dataDir>/meta.db.
func Open(dataDir string) (*MetaDB, error) {
	dbPath := filepath.Join(dataDir, "meta.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open meta database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create meta bucket: %w", err)
	}

	return &MetaDB{db: db}, nil
}

// Close closes the database.
func (m *MetaDB) Close() error {
	return m.db.Close()
}

// Get returns the value for key, or nil if it is unset.
func (m *MetaDB) Get(key []byte) ([]byte, error) {
	var value []byte
	err := m.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		data := b.Get(key)
		if data == nil {
			return nil
		}
		value = make([]byte, len(data))
		copy(value, data)
		return nil
	})
	return value, err
}

// Put sets the value for key.
func (m *MetaDB) Put(key, value []byte) error {
	return m.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		return b.Put(key, value)
	})
}

// LastRootBlock returns the plot's last root block, or nil if it was never
// set.
func (m *MetaDB) LastRootBlock() ([]byte, error) {
	return m.Get(lastRootBlockKey)
}

// SetLastRootBlock persists the plot's last root block.
func (m *MetaDB) SetLastRootBlock(block []byte) error {
	return m.Put(lastRootBlockKey, block)
}
