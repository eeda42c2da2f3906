package recordstore

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/cuemby/plotengine/pkg/log"
	"github.com/cuemby/plotengine/pkg/types"
	"github.com/multiformats/go-multihash"
	bolt "go.etcd.io/bbolt"
)

var bucketRecords = []byte("records")

// SectorMultihashCode identifies keys whose values are sets of sector
// identifiers rather than opaque blobs. Puts under a Sector-coded key
// merge with any existing value instead of replacing it, so that multiple
// peers independently advertising partial sector sets for the same
// content key accumulate into one union rather than clobbering each
// other. This is a pragmatic workaround for the DHT protocol having no
// native set-valued record, not a general persistence feature.
const SectorMultihashCode = 0x2A

// boltRecord is the on-disk encoding of a types.Record.
type boltRecord struct {
	Key       []byte
	Value     []byte
	Publisher []byte
}

// BoltRecordStorage is a BoltDB-backed RecordStorage with Sector-multihash
// merge semantics.
type BoltRecordStorage struct {
	db *bolt.DB
}

// OpenBoltRecordStorage opens (creating if necessary) a record store at
// <dataDir>/records.db.
func OpenBoltRecordStorage(dataDir string) (*BoltRecordStorage, error) {
	db, err := bolt.Open(filepath.Join(dataDir, "records.db"), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create records bucket: %w", err)
	}

	return &BoltRecordStorage{db: db}, nil
}

func (s *BoltRecordStorage) Close() error {
	return s.db.Close()
}

func (s *BoltRecordStorage) Get(key []byte) (types.Record, bool) {
	var rec types.Record
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketRecords).Get(key)
		if data == nil {
			return nil
		}
		decoded, err := decodeBoltRecord(data)
		if err != nil {
			log.Error(fmt.Sprintf("failed to decode record for key %x: %v", key, err))
			return nil
		}
		rec = decoded
		found = true
		return nil
	})
	if err != nil {
		log.Error(fmt.Sprintf("record store get failed: %v", err))
		return types.Record{}, false
	}

	return rec, found
}

// Put stores record, merging it with any existing value when the key's
// multihash code is SectorMultihashCode and both values decode as sorted
// sets of byte strings. Any decode failure on either side falls back to
// plain replacement.
func (s *BoltRecordStorage) Put(record types.Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRecords)

		existing := b.Get(record.Key)
		merged := mergeOnSectorMultihash(record, existing)

		encoded, err := encodeBoltRecord(merged)
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}

		return b.Put(record.Key, encoded)
	})
}

func (s *BoltRecordStorage) Remove(key []byte) {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecords).Delete(key)
	})
	if err != nil {
		log.Error(fmt.Sprintf("failed to remove record %x: %v", key, err))
	}
}

func (s *BoltRecordStorage) Records() []types.Record {
	var records []types.Record

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			rec, err := decodeBoltRecord(v)
			if err != nil {
				log.Error(fmt.Sprintf("skipping undecodable record for key %x: %v", k, err))
				return nil
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		log.Error(fmt.Sprintf("record store scan failed: %v", err))
	}

	return records
}

// RecordCount returns the number of stored records.
func (s *BoltRecordStorage) RecordCount() int {
	count := 0
	s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(bucketRecords).Stats().KeyN
		return nil
	})
	return count
}

func encodeBoltRecord(rec types.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(boltRecord{
		Key:       rec.Key,
		Value:     rec.Value,
		Publisher: rec.Publisher,
	}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeBoltRecord(data []byte) (types.Record, error) {
	var br boltRecord
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&br); err != nil {
		return types.Record{}, err
	}
	return types.Record{Key: br.Key, Value: br.Value, Publisher: br.Publisher}, nil
}

// mergeOnSectorMultihash implements the Sector-multihash merge rule: if
// key decodes as a Sector-coded multihash and both the new and existing
// values decode as gob-encoded sorted []byte sets, the stored value
// becomes their union. Any other case - wrong code, missing existing
// value, or a decode failure on either side - returns newRecord
// unchanged.
func mergeOnSectorMultihash(newRecord types.Record, existingData []byte) types.Record {
	if existingData == nil {
		return newRecord
	}

	decoded, err := multihash.Decode(newRecord.Key)
	if err != nil || decoded.Code != SectorMultihashCode {
		return newRecord
	}

	existing, err := decodeBoltRecord(existingData)
	if err != nil {
		return newRecord
	}

	oldSet, ok := decodeByteSet(existing.Value)
	if !ok {
		return newRecord
	}
	newSet, ok := decodeByteSet(newRecord.Value)
	if !ok {
		return newRecord
	}

	merged := unionByteSets(oldSet, newSet)

	encodedValue, err := encodeByteSet(merged)
	if err != nil {
		return newRecord
	}

	result := newRecord
	result.Value = encodedValue
	return result
}

func decodeByteSet(data []byte) ([][]byte, bool) {
	var set [][]byte
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&set); err != nil {
		return nil, false
	}
	return set, true
}

func encodeByteSet(set [][]byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(set); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unionByteSets(a, b [][]byte) [][]byte {
	seen := make(map[string]bool, len(a)+len(b))
	var out [][]byte
	for _, set := range [][][]byte{a, b} {
		for _, item := range set {
			key := string(item)
			if !seen[key] {
				seen[key] = true
				out = append(out, item)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return out
}
