package pieces

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/cuemby/plotengine/pkg/types"
)

func openTest(t *testing.T) *File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plot.bin")
	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func piece(b byte) types.Piece {
	p := make(types.Piece, types.PieceSize)
	for i := range p {
		p[i] = b
	}
	return p
}

func TestOpenEmpty(t *testing.T) {
	f := openTest(t)
	if got := f.PieceCount(); got != 0 {
		t.Errorf("PieceCount() = %d, want 0", got)
	}
}

func TestWriteAndReadPiece(t *testing.T) {
	f := openTest(t)

	pieces := []types.Piece{piece(1), piece(2), piece(3)}
	if err := f.WritePieces(0, pieces); err != nil {
		t.Fatalf("WritePieces() error = %v", err)
	}

	if got := f.PieceCount(); got != 3 {
		t.Errorf("PieceCount() = %d, want 3", got)
	}

	for i, want := range pieces {
		got, err := f.ReadPiece(types.PieceIndex(i))
		if err != nil {
			t.Fatalf("ReadPiece(%d) error = %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("ReadPiece(%d) = %x, want %x", i, got[:1], want[:1])
		}
	}
}

func TestReadPieces(t *testing.T) {
	f := openTest(t)

	pieces := []types.Piece{piece(1), piece(2), piece(3), piece(4)}
	if err := f.WritePieces(0, pieces); err != nil {
		t.Fatalf("WritePieces() error = %v", err)
	}

	buf, err := f.ReadPieces(1, 2)
	if err != nil {
		t.Fatalf("ReadPieces() error = %v", err)
	}
	if len(buf) != 2*types.PieceSize {
		t.Fatalf("ReadPieces() len = %d, want %d", len(buf), 2*types.PieceSize)
	}
	if !bytes.Equal(buf[:types.PieceSize], pieces[1]) {
		t.Error("first returned piece does not match piece at index 1")
	}
	if !bytes.Equal(buf[types.PieceSize:], pieces[2]) {
		t.Error("second returned piece does not match piece at index 2")
	}
}

func TestWritePiecesIsIdempotentOnCount(t *testing.T) {
	f := openTest(t)

	if err := f.WritePieces(0, []types.Piece{piece(1), piece(2)}); err != nil {
		t.Fatalf("WritePieces() error = %v", err)
	}
	if got := f.PieceCount(); got != 2 {
		t.Fatalf("PieceCount() = %d, want 2", got)
	}

	// Rewriting an earlier range must not shrink the count.
	if err := f.WritePieces(0, []types.Piece{piece(9)}); err != nil {
		t.Fatalf("WritePieces() error = %v", err)
	}
	if got := f.PieceCount(); got != 2 {
		t.Errorf("PieceCount() = %d, want 2 (must not shrink)", got)
	}

	got, err := f.ReadPiece(0)
	if err != nil {
		t.Fatalf("ReadPiece() error = %v", err)
	}
	if !bytes.Equal(got, piece(9)) {
		t.Error("overwrite at index 0 did not take effect")
	}
}

func TestWritePiecesEmptyIsNoop(t *testing.T) {
	f := openTest(t)
	if err := f.WritePieces(0, nil); err != nil {
		t.Fatalf("WritePieces(nil) error = %v", err)
	}
	if got := f.PieceCount(); got != 0 {
		t.Errorf("PieceCount() = %d, want 0", got)
	}
}

func TestSync(t *testing.T) {
	f := openTest(t)
	if err := f.WritePieces(0, []types.Piece{piece(1)}); err != nil {
		t.Fatalf("WritePieces() error = %v", err)
	}
	if err := f.Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
}

func TestReopenPreservesCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.bin")

	f, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := f.WritePieces(0, []types.Piece{piece(1), piece(2)}); err != nil {
		t.Fatalf("WritePieces() error = %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() (reopen) error = %v", err)
	}
	defer reopened.Close()

	if got := reopened.PieceCount(); got != 2 {
		t.Errorf("PieceCount() after reopen = %d, want 2", got)
	}
}
