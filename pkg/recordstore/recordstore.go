// Package recordstore provides pluggable backends for the DHT's value and
// provider record storage, decoupled from any particular Kademlia
// implementation.
package recordstore

import (
	"fmt"
	"sync"

	"github.com/cuemby/plotengine/pkg/events"
	"github.com/cuemby/plotengine/pkg/types"
)

// RecordStorage stores and retrieves DHT value records.
type RecordStorage interface {
	Get(key []byte) (types.Record, bool)
	Put(record types.Record) error
	Remove(key []byte)
	Records() []types.Record
}

// ProviderStorage stores and retrieves DHT provider records.
type ProviderStorage interface {
	AddProvider(record types.ProviderRecord) error
	Providers(key []byte) []types.ProviderRecord
	Provided() []types.ProviderRecord
	RemoveProvider(key []byte, provider types.PeerID)
}

// recordCounter is implemented by any RecordStorage variant that can
// report how many records it holds.
type recordCounter interface {
	RecordCount() int
}

// providerCounter is implemented by any ProviderStorage variant that can
// report how many provider records it holds.
type providerCounter interface {
	ProviderCount() int
}

// Store pairs a node's record storage and provider storage under a single
// handle, satisfying metrics.RecordStoreStats so the pair can be sampled
// by the metrics collector as one unit. Put and AddProvider publish
// lifecycle events through Broker when one is set; Broker may be left nil.
type Store struct {
	Records   RecordStorage
	Providers ProviderStorage
	Broker    *events.Broker
}

// Put stores a record and, if a broker is configured, publishes
// events.EventRecordStored.
func (s Store) Put(record types.Record) error {
	if err := s.Records.Put(record); err != nil {
		return err
	}
	s.publish(events.EventRecordStored, "record stored", record.Key)
	return nil
}

// Remove deletes a record and, if a broker is configured, publishes
// events.EventRecordEvicted.
func (s Store) Remove(key []byte) {
	s.Records.Remove(key)
	s.publish(events.EventRecordEvicted, "record evicted", key)
}

// AddProvider registers a provider record and, if a broker is configured,
// publishes events.EventProviderRegistered.
func (s Store) AddProvider(record types.ProviderRecord) error {
	if err := s.Providers.AddProvider(record); err != nil {
		return err
	}
	s.publish(events.EventProviderRegistered, "provider registered", record.Key)
	return nil
}

func (s Store) publish(eventType events.EventType, message string, key []byte) {
	if s.Broker == nil {
		return
	}
	s.Broker.Publish(&events.Event{
		Type:     eventType,
		Message:  message,
		Metadata: map[string]string{"key": fmt.Sprintf("%x", key)},
	})
}

// RecordCount reports 0 if the underlying RecordStorage does not track a
// count.
func (s Store) RecordCount() int {
	if counter, ok := s.Records.(recordCounter); ok {
		return counter.RecordCount()
	}
	return 0
}

// ProviderCount reports 0 if the underlying ProviderStorage does not
// track a count.
func (s Store) ProviderCount() int {
	if counter, ok := s.Providers.(providerCounter); ok {
		return counter.ProviderCount()
	}
	return 0
}

// NoRecordStorage is a stub that accepts writes silently but stores
// nothing. It is used when the local node should not cache DHT content.
type NoRecordStorage struct{}

func (NoRecordStorage) Get([]byte) (types.Record, bool) { return types.Record{}, false }
func (NoRecordStorage) Put(types.Record) error          { return nil }
func (NoRecordStorage) Remove([]byte)                   {}
func (NoRecordStorage) Records() []types.Record         { return nil }

// ValueGetter looks up a value by key, as if it were backed by a record
// store, without actually storing anything.
type ValueGetter func(key []byte) ([]byte, bool)

// GetOnlyRecordStorage proxies Get to an externally supplied lookup
// function and rejects all writes with types.ErrMaxRecords. It is used to
// expose a locally computed content set through the DHT's record-store
// interface without duplicating it into a second store.
type GetOnlyRecordStorage struct {
	valueGetter ValueGetter
}

func NewGetOnlyRecordStorage(getter ValueGetter) *GetOnlyRecordStorage {
	return &GetOnlyRecordStorage{valueGetter: getter}
}

func (s *GetOnlyRecordStorage) Get(key []byte) (types.Record, bool) {
	value, ok := s.valueGetter(key)
	if !ok {
		return types.Record{}, false
	}
	return types.Record{Key: key, Value: value}, true
}

func (s *GetOnlyRecordStorage) Put(types.Record) error  { return types.ErrMaxRecords }
func (s *GetOnlyRecordStorage) Remove([]byte)           {}
func (s *GetOnlyRecordStorage) Records() []types.Record { return nil }

// MemoryRecordStorage is an in-memory map of records, keyed by key.
type MemoryRecordStorage struct {
	mu      sync.RWMutex
	records map[string]types.Record
}

func NewMemoryRecordStorage() *MemoryRecordStorage {
	return &MemoryRecordStorage{records: make(map[string]types.Record)}
}

func (s *MemoryRecordStorage) Get(key []byte) (types.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[string(key)]
	return rec, ok
}

func (s *MemoryRecordStorage) Put(record types.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[string(record.Key)] = record
	return nil
}

func (s *MemoryRecordStorage) Remove(key []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, string(key))
}

func (s *MemoryRecordStorage) Records() []types.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out
}

// RecordCount returns the number of stored records.
func (s *MemoryRecordStorage) RecordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// MemoryProviderStorage is an in-memory map of provider records, keyed by
// content key. Providers are appended without deduplication or expiry: the
// same peer may be recorded as a provider for a key more than once, and
// entries accumulate for the lifetime of the process. Callers that need
// bounded growth should prune or replace entries at a higher layer.
type MemoryProviderStorage struct {
	mu        sync.RWMutex
	providers map[string][]types.ProviderRecord
}

func NewMemoryProviderStorage() *MemoryProviderStorage {
	return &MemoryProviderStorage{providers: make(map[string][]types.ProviderRecord)}
}

func (s *MemoryProviderStorage) AddProvider(record types.ProviderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(record.Key)
	s.providers[key] = append(s.providers[key], record)
	return nil
}

func (s *MemoryProviderStorage) Providers(key []byte) []types.ProviderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.providers[string(key)]
	out := make([]types.ProviderRecord, len(recs))
	copy(out, recs)
	return out
}

func (s *MemoryProviderStorage) Provided() []types.ProviderRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.ProviderRecord
	for _, recs := range s.providers {
		out = append(out, recs...)
	}
	return out
}

func (s *MemoryProviderStorage) RemoveProvider(key []byte, provider types.PeerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := string(key)
	recs := s.providers[k]
	kept := recs[:0]
	for _, rec := range recs {
		if string(rec.Provider) != string(provider) {
			kept = append(kept, rec)
		}
	}
	s.providers[k] = kept
}

// ProviderCount returns the total number of stored provider records.
func (s *MemoryProviderStorage) ProviderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, recs := range s.providers {
		count += len(recs)
	}
	return count
}
