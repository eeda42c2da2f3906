// Package types defines the shared data model for the plot engine and the
// DHT record store: pieces, tags, salts, commitment status, and the record
// shapes stored by the record-store stack.
package types

import (
	"encoding/binary"
	"time"
)

// PieceSize is the fixed size, in bytes, of every encoded piece stored in a
// plot. Real deployments use a multiple of the erasure-coded sector size;
// it is a compile-time constant, so tests use this same value.
const PieceSize = 4096

// BatchSize is the number of pieces processed per ReadPieces/WriteTags
// round trip during commitment creation. The driver checks for an abort
// request only between batches.
const BatchSize = 256

// Piece is one fixed-size encoded blob at a specific index of the plot.
type Piece []byte

// PieceIndex is the position of a piece within the plot.
type PieceIndex = uint64

// Salt selects a tag-index epoch. It is opaque outside of equality and map
// keying.
type Salt [8]byte

// Tag is the 8-byte big-endian keyed hash of a piece under a salt. The
// natural ordering of the big-endian bytes is the total order TagIndex
// maintains.
type Tag [8]byte

// Uint64 interprets the tag as a big-endian unsigned integer.
func (t Tag) Uint64() uint64 {
	return binary.BigEndian.Uint64(t[:])
}

// TagFromUint64 encodes v as a big-endian Tag.
func TagFromUint64(v uint64) Tag {
	var t Tag
	binary.BigEndian.PutUint64(t[:], v)
	return t
}

// CommitmentStatus is the lifecycle state of a salt's TagIndex.
type CommitmentStatus int

const (
	// CommitmentInProgress means a batched build is underway; the index on
	// disk, if any, covers only a prefix of the plot.
	CommitmentInProgress CommitmentStatus = iota
	// CommitmentCreated means the TagIndex is complete and durable.
	CommitmentCreated
	// CommitmentAborted is a one-way transition from InProgress, observed by
	// the driver at the next batch boundary, at which point it cleans up.
	CommitmentAborted
)

func (s CommitmentStatus) String() string {
	switch s {
	case CommitmentInProgress:
		return "in_progress"
	case CommitmentCreated:
		return "created"
	case CommitmentAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// TagEntry is one (tag, piece index) pair as returned by TagIndex range
// queries, always in ascending tag order.
type TagEntry struct {
	Tag   Tag
	Index PieceIndex
}

// PeerID is an opaque node identity. The plot engine and record store treat
// it as a byte string; the libp2p identity type it stands in for is an
// external collaborator out of scope for this module.
type PeerID []byte

// Record is a DHT value record. Expires is never persisted.
type Record struct {
	Key       []byte
	Value     []byte
	Publisher PeerID
	Expires   *time.Time
}

// ProviderRecord advertises that Provider holds content addressed by Key.
type ProviderRecord struct {
	Key      []byte
	Provider PeerID
}
