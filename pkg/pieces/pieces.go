// Package pieces provides random-access storage for the dense array of
// fixed-size pieces that backs a plot.
package pieces

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/cuemby/plotengine/pkg/types"
)

// File is a random-access, fixed-record file of types.PieceSize-byte pieces.
// It is safe for concurrent ReadAt-style reads, but callers (the engine) are
// expected to serialize writes against it themselves — File does no locking
// of its own beyond the atomic piece count.
type File struct {
	f          *os.File
	pieceCount atomic.Uint64
}

// Open opens (creating if necessary) the piece file at path.
// The initial piece count is derived from the file's length, which is
// always a multiple of types.PieceSize.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open piece file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat piece file: %w", err)
	}

	pf := &File{f: f}
	pf.pieceCount.Store(uint64(info.Size()) / types.PieceSize)
	return pf, nil
}

// PieceCount returns the number of pieces currently stored.
func (f *File) PieceCount() uint64 {
	return f.pieceCount.Load()
}

// ReadPiece reads the piece at index i.
func (f *File) ReadPiece(i types.PieceIndex) (types.Piece, error) {
	buf := make([]byte, types.PieceSize)
	if _, err := f.f.ReadAt(buf, int64(i)*types.PieceSize); err != nil {
		return nil, fmt.Errorf("failed to read piece %d: %w", i, err)
	}
	return buf, nil
}

// ReadPieces reads n contiguous pieces starting at first, returned as one
// contiguous buffer.
func (f *File) ReadPieces(first types.PieceIndex, n uint64) ([]byte, error) {
	buf := make([]byte, n*types.PieceSize)
	if _, err := f.f.ReadAt(buf, int64(first)*types.PieceSize); err != nil {
		return nil, fmt.Errorf("failed to read %d pieces from %d: %w", n, first, err)
	}
	return buf, nil
}

// WritePieces writes ps contiguously starting at first, then advances the
// piece count to max(current, first+len(ps)).
func (f *File) WritePieces(first types.PieceIndex, ps []types.Piece) error {
	if len(ps) == 0 {
		return nil
	}

	whole := make([]byte, 0, len(ps)*types.PieceSize)
	for _, p := range ps {
		whole = append(whole, p...)
	}

	if _, err := f.f.WriteAt(whole, int64(first)*types.PieceSize); err != nil {
		return fmt.Errorf("failed to write %d pieces at %d: %w", len(ps), first, err)
	}

	newCount := first + uint64(len(ps))
	for {
		current := f.pieceCount.Load()
		if newCount <= current {
			break
		}
		if f.pieceCount.CompareAndSwap(current, newCount) {
			break
		}
	}

	return nil
}

// Sync fsyncs the underlying file.
func (f *File) Sync() error {
	if err := f.f.Sync(); err != nil {
		return fmt.Errorf("failed to sync piece file: %w", err)
	}
	return nil
}

// Close closes the underlying file without syncing; callers that need a
// durable close should call Sync first.
func (f *File) Close() error {
	return f.f.Close()
}
