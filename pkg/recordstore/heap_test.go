package recordstore

import (
	"testing"

	"github.com/cuemby/plotengine/pkg/types"
)

// orderByDistance returns a, b, c reordered so that the first return value
// is the candidate closest to local and the last is farthest, using the
// package's own XOR-distance function as the ground truth.
func orderByDistance(t *testing.T, local []byte, candidates ...[]byte) [][]byte {
	t.Helper()
	ordered := append([][]byte(nil), candidates...)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0; j-- {
			if distanceFromLocal(ordered[j], local).Cmp(distanceFromLocal(ordered[j-1], local)) < 0 {
				ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
			}
		}
	}
	return ordered
}

func hasKey(t *testing.T, store RecordStorage, key []byte) bool {
	t.Helper()
	_, found := store.Get(key)
	return found
}

func TestLimitedSizeRecordStorageWrapperEvictsFarthest(t *testing.T) {
	local := types.PeerID("local-peer")
	candidates := [][]byte{[]byte("key-one"), []byte("key-two"), []byte("key-three")}
	ordered := orderByDistance(t, local, candidates...)
	closest, middle, farthest := ordered[0], ordered[1], ordered[2]

	inner := NewMemoryRecordStorage()
	wrapper := NewLimitedSizeRecordStorageWrapper(inner, 2, local)

	for _, key := range [][]byte{closest, middle, farthest} {
		if err := wrapper.Put(types.Record{Key: key, Value: []byte("v")}); err != nil {
			t.Fatalf("Put(%q) error = %v", key, err)
		}
	}

	if got := wrapper.RecordCount(); got != 2 {
		t.Fatalf("RecordCount() = %d, want 2", got)
	}

	for _, key := range [][]byte{closest, middle} {
		if !hasKey(t, inner, key) {
			t.Errorf("inner store missing %q, want it retained", key)
		}
	}
	if hasKey(t, inner, farthest) {
		t.Errorf("inner store still has %q, want it evicted as farthest", farthest)
	}
}

func TestLimitedSizeRecordStorageWrapperRemove(t *testing.T) {
	local := types.PeerID("local-peer")
	inner := NewMemoryRecordStorage()
	wrapper := NewLimitedSizeRecordStorageWrapper(inner, 5, local)

	key := []byte("some-key")
	if err := wrapper.Put(types.Record{Key: key, Value: []byte("v")}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if got := wrapper.RecordCount(); got != 1 {
		t.Fatalf("RecordCount() = %d, want 1", got)
	}

	wrapper.Remove(key)
	if got := wrapper.RecordCount(); got != 0 {
		t.Errorf("RecordCount() = %d after Remove, want 0", got)
	}
	if hasKey(t, inner, key) {
		t.Error("inner store still has key after Remove")
	}
}

func TestLimitedSizeRecordStorageWrapperLoadsExisting(t *testing.T) {
	local := types.PeerID("local-peer")
	inner := NewMemoryRecordStorage()
	if err := inner.Put(types.Record{Key: []byte("preexisting"), Value: []byte("v")}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	wrapper := NewLimitedSizeRecordStorageWrapper(inner, 5, local)
	if got := wrapper.RecordCount(); got != 1 {
		t.Errorf("RecordCount() = %d after wrapping non-empty store, want 1", got)
	}
}
