package recordstore

import (
	"crypto/sha256"
	"testing"

	"github.com/cuemby/plotengine/pkg/types"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"
)

func openBoltTest(t *testing.T) *BoltRecordStorage {
	t.Helper()
	s, err := OpenBoltRecordStorage(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltRecordStoragePutGetRemove(t *testing.T) {
	s := openBoltTest(t)

	rec := types.Record{Key: []byte("plain-key"), Value: []byte("hello")}
	require.NoError(t, s.Put(rec))

	got, found := s.Get(rec.Key)
	require.True(t, found)
	require.Equal(t, rec.Value, got.Value)
	require.Equal(t, 1, s.RecordCount())

	s.Remove(rec.Key)
	_, found = s.Get(rec.Key)
	require.False(t, found)
}

func TestBoltRecordStorageRecords(t *testing.T) {
	s := openBoltTest(t)

	for i, v := range [][]byte{[]byte("a"), []byte("b"), []byte("c")} {
		key := []byte{byte(i)}
		require.NoError(t, s.Put(types.Record{Key: key, Value: v}))
	}

	require.Len(t, s.Records(), 3)
}

func sectorKey(t *testing.T, seed byte) []byte {
	t.Helper()
	digest := sha256.Sum256([]byte{seed})
	key, err := multihash.Encode(digest[:], SectorMultihashCode)
	require.NoError(t, err)
	return key
}

func TestBoltRecordStorageMergesSectorMultihashValues(t *testing.T) {
	s := openBoltTest(t)
	key := sectorKey(t, 0x01)

	firstSet, err := encodeByteSet([][]byte{[]byte("sector-a"), []byte("sector-b")})
	require.NoError(t, err)
	require.NoError(t, s.Put(types.Record{Key: key, Value: firstSet}))

	secondSet, err := encodeByteSet([][]byte{[]byte("sector-b"), []byte("sector-c")})
	require.NoError(t, err)
	require.NoError(t, s.Put(types.Record{Key: key, Value: secondSet}))

	got, found := s.Get(key)
	require.True(t, found)

	merged, ok := decodeByteSet(got.Value)
	require.True(t, ok)

	want := [][]byte{[]byte("sector-a"), []byte("sector-b"), []byte("sector-c")}
	require.Equal(t, want, merged)
}

func TestBoltRecordStorageNonSectorKeyReplaces(t *testing.T) {
	s := openBoltTest(t)
	key := []byte("not-a-multihash")

	require.NoError(t, s.Put(types.Record{Key: key, Value: []byte("first")}))
	require.NoError(t, s.Put(types.Record{Key: key, Value: []byte("second")}))

	got, found := s.Get(key)
	require.True(t, found)
	require.Equal(t, "second", string(got.Value))
}
