// Package recordstore implements the storage backends plugged into a DHT
// node's record store: where value records and provider records live, and
// what happens when a put would exceed some bound.
//
// Three concerns are layered independently rather than fused into one
// type, mirroring the trait-based split this package is grounded on:
//
//   - RecordStorage / ProviderStorage are the two narrow interfaces a
//     backend implements. NoRecordStorage, GetOnlyRecordStorage,
//     MemoryRecordStorage and BoltRecordStorage all satisfy RecordStorage;
//     MemoryProviderStorage satisfies ProviderStorage.
//   - BoltRecordStorage additionally applies the Sector-multihash merge
//     rule on Put: a key whose multihash code is SectorMultihashCode
//     stores a value that is itself a set, and two puts under the same
//     key union their sets instead of one overwriting the other. Every
//     other key behaves as plain replacement.
//   - LimitedSizeRecordStorageWrapper decorates any RecordStorage with a
//     hard cap on record count, evicting whichever key is farthest (by
//     XOR distance over a SHA-256 digest) from a configured local peer
//     identity whenever a put would exceed the cap.
package recordstore
