package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/plotengine/pkg/commitments"
	"github.com/cuemby/plotengine/pkg/pieces"
	"github.com/cuemby/plotengine/pkg/types"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dataDir := t.TempDir()

	pf, err := pieces.Open(filepath.Join(dataDir, "plot.bin"))
	if err != nil {
		t.Fatalf("pieces.Open() error = %v", err)
	}

	commits, err := commitments.Open(dataDir)
	if err != nil {
		t.Fatalf("commitments.Open() error = %v", err)
	}

	e := Start(pf, commits)
	t.Cleanup(func() { e.Close() })
	return e
}

func piece(b byte) types.Piece {
	p := make(types.Piece, types.PieceSize)
	for i := range p {
		p[i] = b
	}
	return p
}

func TestWriteThenReadPiece(t *testing.T) {
	e := newTestEngine(t)

	if err := e.WritePieces(0, []types.Piece{piece(0x00), piece(0x11)}); err != nil {
		t.Fatalf("WritePieces() error = %v", err)
	}

	got, err := e.ReadPiece(1)
	if err != nil {
		t.Fatalf("ReadPiece() error = %v", err)
	}
	if got[0] != 0x11 {
		t.Errorf("ReadPiece(1)[0] = %x, want 0x11", got[0])
	}
}

func TestWriteTagsThenFindByRange(t *testing.T) {
	e := newTestEngine(t)
	salt := types.Salt{1, 1, 1, 1, 1, 1, 1, 1}

	tags := []types.Tag{
		types.TagFromUint64(0x05),
		types.TagFromUint64(0x20),
	}
	if err := e.WriteTags(0, tags, salt); err != nil {
		t.Fatalf("WriteTags() error = %v", err)
	}

	entry, found, err := e.FindByRange(types.TagFromUint64(0x20), 0, salt)
	if err != nil {
		t.Fatalf("FindByRange() error = %v", err)
	}
	if !found || entry.Index != 1 {
		t.Errorf("FindByRange() = %+v, found=%v, want index 1", entry, found)
	}
}

func TestFinishThenRemoveCommitment(t *testing.T) {
	e := newTestEngine(t)
	salt := types.Salt{2, 2, 2, 2, 2, 2, 2, 2}

	if err := e.WriteTags(0, []types.Tag{types.TagFromUint64(1)}, salt); err != nil {
		t.Fatalf("WriteTags() error = %v", err)
	}
	if err := e.FinishCommitment(salt); err != nil {
		t.Fatalf("FinishCommitment() error = %v", err)
	}
	if err := e.RemoveCommitment(salt); err != nil {
		t.Fatalf("RemoveCommitment() error = %v", err)
	}

	// After removal, find_by_range reopens an empty index rather than
	// erroring.
	_, found, err := e.FindByRange(types.TagFromUint64(1), 0, salt)
	if err != nil {
		t.Fatalf("FindByRange() error = %v", err)
	}
	if found {
		t.Error("FindByRange() found = true after RemoveCommitment, want false")
	}
}

func TestCloseIsIdempotentAndRejectsNewWork(t *testing.T) {
	dataDir := t.TempDir()
	pf, err := pieces.Open(filepath.Join(dataDir, "plot.bin"))
	if err != nil {
		t.Fatalf("pieces.Open() error = %v", err)
	}
	commits, err := commitments.Open(dataDir)
	if err != nil {
		t.Fatalf("commitments.Open() error = %v", err)
	}

	e := Start(pf, commits)
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close() (second call) error = %v", err)
	}

	if _, err := e.ReadPiece(0); err != types.ErrEngineClosed {
		t.Errorf("ReadPiece() after Close() error = %v, want ErrEngineClosed", err)
	}
}

func TestReadPriorityServesAtLeastOneWritePerDrain(t *testing.T) {
	e := newTestEngine(t)

	if err := e.WritePieces(0, []types.Piece{piece(0x00)}); err != nil {
		t.Fatalf("WritePieces() error = %v", err)
	}

	stopReads := make(chan struct{})
	readsDone := make(chan struct{})
	go func() {
		defer close(readsDone)
		for {
			select {
			case <-stopReads:
				return
			default:
			}
			e.ReadPiece(0)
		}
	}()

	writeDone := make(chan error, 1)
	go func() {
		writeDone <- e.WritePieces(1, []types.Piece{piece(0xAA)})
	}()

	select {
	case err := <-writeDone:
		if err != nil {
			t.Errorf("WritePieces() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("write starved by read flood")
	}

	close(stopReads)
	<-readsDone
}
