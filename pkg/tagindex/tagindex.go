// Package tagindex provides an ordered tag-to-piece-index store backed by
// BoltDB, scoped to a single salt.
package tagindex

import (
	"encoding/binary"
	"fmt"

	"github.com/cuemby/plotengine/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var bucketTags = []byte("tags")

// TagIndex is a single salt's tag index: an ordered map from an 8-byte
// big-endian tag to the 8-byte little-endian index of the piece that
// produced it. The asymmetric endianness is deliberate — keys sort
// byte-for-byte in tag order (big-endian), while the value is a plain
// machine integer with no ordering requirement (little-endian).
type TagIndex struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the tag index database at path.
func Open(path string) (*TagIndex, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag index: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketTags)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tags bucket: %w", err)
	}

	return &TagIndex{db: db}, nil
}

// Close closes the underlying database.
func (t *TagIndex) Close() error {
	return t.db.Close()
}

// PutMany writes a batch of tag entries in a single transaction.
func (t *TagIndex) PutMany(entries []types.TagEntry) error {
	if len(entries) == 0 {
		return nil
	}

	return t.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTags)
		for _, e := range entries {
			var value [8]byte
			binary.LittleEndian.PutUint64(value[:], e.Index)
			if err := b.Put(e.Tag[:], value[:]); err != nil {
				return fmt.Errorf("failed to put tag entry: %w", err)
			}
		}
		return nil
	})
}

// FindFirstInRange returns the first entry, in ascending tag order, whose
// tag falls within rangeVal/2 of target on either side, wrapping around the
// 64-bit tag space. It mirrors a circular range scan: the window is
// [target-range/2, target+range/2] computed with wraparound, and when that
// window wraps past the top or bottom of the tag space the scan is the
// union of the wrapped-around piece at the start of the space and the
// remainder at the end. Only the first match encountered during the scan
// is returned, not the one nearest to target.
func (t *TagIndex) FindFirstInRange(target types.Tag, rangeVal uint64) (types.TagEntry, bool, error) {
	half := rangeVal / 2
	targetVal := target.Uint64()

	lower, lowerUnderflow := subOverflow(targetVal, half)
	upper, upperOverflow := addOverflow(targetVal, half)

	var entry types.TagEntry
	found := false

	err := t.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketTags).Cursor()

		scan := func(from, to uint64) bool {
			var seek [8]byte
			binary.BigEndian.PutUint64(seek[:], from)
			for k, v := c.Seek(seek[:]); k != nil; k, v = c.Next() {
				var tag types.Tag
				copy(tag[:], k)
				if tag.Uint64() > to {
					return false
				}
				entry = types.TagEntry{Tag: tag, Index: binary.LittleEndian.Uint64(v)}
				found = true
				return true
			}
			return false
		}

		if lowerUnderflow || upperOverflow {
			if scan(0, upper) {
				return nil
			}
			scan(lower, ^uint64(0))
			return nil
		}

		scan(lower, upper)
		return nil
	})
	if err != nil {
		return types.TagEntry{}, false, fmt.Errorf("failed to scan tag index: %w", err)
	}

	return entry, found, nil
}

// subOverflow computes a-b over the uint64 wraparound ring, reporting
// whether the subtraction wrapped past zero.
func subOverflow(a, b uint64) (uint64, bool) {
	return a - b, b > a
}

// addOverflow computes a+b over the uint64 wraparound ring, reporting
// whether the addition wrapped past the maximum uint64 value.
func addOverflow(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum < a
}
