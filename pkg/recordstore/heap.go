package recordstore

import (
	"container/heap"
	"crypto/sha256"
	"fmt"
	"math/big"
	"sync"

	"github.com/cuemby/plotengine/pkg/events"
	"github.com/cuemby/plotengine/pkg/log"
	"github.com/cuemby/plotengine/pkg/metrics"
	"github.com/cuemby/plotengine/pkg/types"
)

// distanceFromLocal returns the XOR distance between key and local's
// SHA-256 digests, as an unsigned big integer. Hashing first means
// distance is well defined even when the two byte strings have different
// lengths.
func distanceFromLocal(key, local []byte) *big.Int {
	hk := sha256.Sum256(key)
	hl := sha256.Sum256(local)
	var xored [sha256.Size]byte
	for i := range hk {
		xored[i] = hk[i] ^ hl[i]
	}
	return new(big.Int).SetBytes(xored[:])
}

// heapItem is one entry in the eviction heap: a stored key and its
// precomputed distance from the local peer.
type heapItem struct {
	key      []byte
	distance *big.Int
	index    int
}

// maxDistanceHeap is a container/heap max-heap ordered by distance: the
// item farthest from the local peer sits at index 0.
type maxDistanceHeap []*heapItem

func (h maxDistanceHeap) Len() int { return len(h) }
func (h maxDistanceHeap) Less(i, j int) bool {
	return h[i].distance.Cmp(h[j].distance) > 0
}
func (h maxDistanceHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *maxDistanceHeap) Push(x any) {
	item := x.(*heapItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *maxDistanceHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// recordHeap bounds a set of keys to maxItems, tracking which key is
// farthest (by XOR distance) from a local peer and evicting it first when
// the bound is exceeded.
type recordHeap struct {
	mu       sync.Mutex
	local    []byte
	maxItems int
	items    maxDistanceHeap
	byKey    map[string]*heapItem
}

func newRecordHeap(local []byte, maxItems int) *recordHeap {
	return &recordHeap{
		local:    local,
		maxItems: maxItems,
		byKey:    make(map[string]*heapItem),
	}
}

// insert adds key to the heap, evicting and returning the farthest key if
// the bound was exceeded. Returns (evictedKey, true) on eviction.
func (h *recordHeap) insert(key []byte) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	k := string(key)
	if _, exists := h.byKey[k]; exists {
		return nil, false
	}

	item := &heapItem{key: append([]byte(nil), key...), distance: distanceFromLocal(key, h.local)}
	heap.Push(&h.items, item)
	h.byKey[k] = item

	if len(h.items) <= h.maxItems {
		return nil, false
	}

	evicted := heap.Pop(&h.items).(*heapItem)
	delete(h.byKey, string(evicted.key))
	return evicted.key, true
}

func (h *recordHeap) remove(key []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	item, ok := h.byKey[string(key)]
	if !ok {
		return
	}
	heap.Remove(&h.items, item.index)
	delete(h.byKey, string(key))
}

func (h *recordHeap) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items)
}

// LimitedSizeRecordStorageWrapper decorates a RecordStorage with a bound
// on the total number of records, evicting the record whose key is
// farthest (by XOR distance) from a local peer identity whenever a put
// would exceed the bound.
type LimitedSizeRecordStorageWrapper struct {
	inner RecordStorage
	heap  *recordHeap

	// Broker, if set, receives events.EventRecordEvicted whenever a put
	// evicts the farthest record. Left nil, eviction is silent.
	Broker *events.Broker
}

// NewLimitedSizeRecordStorageWrapper wraps inner, bounding it to maxItems
// records relative to localPeer's identity bytes. Any records already in
// inner are loaded into the heap up front; if they exceed maxItems, the
// farthest ones are removed from inner.
func NewLimitedSizeRecordStorageWrapper(inner RecordStorage, maxItems int, localPeer types.PeerID) *LimitedSizeRecordStorageWrapper {
	h := newRecordHeap(localPeer, maxItems)
	for _, rec := range inner.Records() {
		if evictedKey, evicted := h.insert(rec.Key); evicted {
			inner.Remove(evictedKey)
		}
	}

	if h.size() > 0 {
		log.Info("record cache loaded from existing storage")
	}

	return &LimitedSizeRecordStorageWrapper{inner: inner, heap: h}
}

func (w *LimitedSizeRecordStorageWrapper) Get(key []byte) (types.Record, bool) {
	return w.inner.Get(key)
}

func (w *LimitedSizeRecordStorageWrapper) Put(record types.Record) error {
	if err := w.inner.Put(record); err != nil {
		return err
	}

	evictedKey, evicted := w.heap.insert(record.Key)
	if evicted {
		w.inner.Remove(evictedKey)
		metrics.RecordStoreEvictionsTotal.Inc()
		if w.Broker != nil {
			w.Broker.Publish(&events.Event{
				Type:     events.EventRecordEvicted,
				Message:  "record evicted by XOR-distance bound",
				Metadata: map[string]string{"key": fmt.Sprintf("%x", evictedKey)},
			})
		}
	}

	return nil
}

func (w *LimitedSizeRecordStorageWrapper) Remove(key []byte) {
	w.inner.Remove(key)
	w.heap.remove(key)
}

func (w *LimitedSizeRecordStorageWrapper) Records() []types.Record {
	return w.inner.Records()
}

// RecordCount returns the number of records currently tracked by the
// eviction heap, which always equals the inner store's record count.
func (w *LimitedSizeRecordStorageWrapper) RecordCount() int {
	return w.heap.size()
}
