package plot

import (
	"bytes"
	"testing"
	"time"

	"github.com/cuemby/plotengine/pkg/types"
)

func openTest(t *testing.T, cfg Config) *Plot {
	t.Helper()
	if cfg.DataDir == "" {
		cfg.DataDir = t.TempDir()
	}
	p, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func piece(b byte) types.Piece {
	p := make(types.Piece, types.PieceSize)
	for i := range p {
		p[i] = b
	}
	return p
}

func TestIsEmptyAndWriteMany(t *testing.T) {
	p := openTest(t, Config{})

	if !p.IsEmpty() {
		t.Fatal("IsEmpty() = false on a freshly opened plot, want true")
	}

	if err := p.WriteMany([]types.Piece{piece(0x00), piece(0x11)}, 0); err != nil {
		t.Fatalf("WriteMany() error = %v", err)
	}

	if p.IsEmpty() {
		t.Error("IsEmpty() = true after WriteMany, want false")
	}

	got, err := p.Read(1)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(got, piece(0x11)) {
		t.Error("Read(1) did not return the second written piece")
	}
}

// tagByFirstByte maps a piece's first byte directly to a tag value, letting
// tests pin down exact tag(piece, salt) outputs without depending on any
// particular hash.
func tagByFirstByte(table map[byte]uint64) TagFunc {
	return func(p types.Piece, _ types.Salt) types.Tag {
		return types.TagFromUint64(table[p[0]])
	}
}

func TestCreateCommitmentThenFindByRangeExact(t *testing.T) {
	p := openTest(t, Config{TagFunc: tagByFirstByte(map[byte]uint64{
		0x00: 0x00000000_00000005,
		0x11: 0x00000000_00000020,
	})})

	if err := p.WriteMany([]types.Piece{piece(0x00), piece(0x11)}, 0); err != nil {
		t.Fatalf("WriteMany() error = %v", err)
	}

	salt := types.Salt{1, 1, 1, 1, 1, 1, 1, 1}
	if err := p.CreateCommitment(salt); err != nil {
		t.Fatalf("CreateCommitment() error = %v", err)
	}

	entry, found, err := p.FindByRange(types.TagFromUint64(0x00000000_00000020), 0, salt)
	if err != nil {
		t.Fatalf("FindByRange() error = %v", err)
	}
	if !found || entry.Index != 1 {
		t.Errorf("FindByRange() = %+v, found=%v, want index 1", entry, found)
	}
}

func TestCreateCommitmentReturnsFirstInAscendingOrder(t *testing.T) {
	p := openTest(t, Config{TagFunc: tagByFirstByte(map[byte]uint64{
		0x00: 0x00000000_00000005,
		0x11: 0x00000000_00000020,
	})})

	if err := p.WriteMany([]types.Piece{piece(0x00), piece(0x11)}, 0); err != nil {
		t.Fatalf("WriteMany() error = %v", err)
	}

	salt := types.Salt{2, 2, 2, 2, 2, 2, 2, 2}
	if err := p.CreateCommitment(salt); err != nil {
		t.Fatalf("CreateCommitment() error = %v", err)
	}

	entry, found, err := p.FindByRange(types.TagFromUint64(0), 64, salt)
	if err != nil {
		t.Fatalf("FindByRange() error = %v", err)
	}
	if !found || entry.Index != 0 {
		t.Errorf("FindByRange() = %+v, found=%v, want index 0 (first in ascending order)", entry, found)
	}
}

func TestCreateCommitmentWrapAround(t *testing.T) {
	p := openTest(t, Config{TagFunc: tagByFirstByte(map[byte]uint64{
		0x00: 0xFFFF_FFFF_FFFF_FFF8,
	})})

	if err := p.WriteMany([]types.Piece{piece(0x00)}, 0); err != nil {
		t.Fatalf("WriteMany() error = %v", err)
	}

	salt := types.Salt{3, 3, 3, 3, 3, 3, 3, 3}
	if err := p.CreateCommitment(salt); err != nil {
		t.Fatalf("CreateCommitment() error = %v", err)
	}

	entry, found, err := p.FindByRange(types.TagFromUint64(0x0000_0000_0000_0005), 0x20, salt)
	if err != nil {
		t.Fatalf("FindByRange() error = %v", err)
	}
	if !found || entry.Tag.Uint64() != 0xFFFF_FFFF_FFFF_FFF8 {
		t.Errorf("FindByRange() = %+v, found=%v, want wrap-around tag", entry, found)
	}
}

func TestCreateCommitmentIsIdempotentOnceCreated(t *testing.T) {
	p := openTest(t, Config{})

	if err := p.WriteMany([]types.Piece{piece(0x00)}, 0); err != nil {
		t.Fatalf("WriteMany() error = %v", err)
	}

	salt := types.Salt{4, 4, 4, 4, 4, 4, 4, 4}
	if err := p.CreateCommitment(salt); err != nil {
		t.Fatalf("CreateCommitment() error = %v", err)
	}
	if err := p.CreateCommitment(salt); err != nil {
		t.Fatalf("CreateCommitment() (second call) error = %v", err)
	}
}

func TestRemoveCommitmentDuringCreationAborts(t *testing.T) {
	slowTag := func(p types.Piece, _ types.Salt) types.Tag {
		time.Sleep(time.Millisecond)
		return types.TagFromUint64(uint64(p[0]))
	}

	plot := openTest(t, Config{TagFunc: slowTag})

	// Enough pieces to span a couple of BatchSize-sized batches so the
	// driver has a batch boundary at which to observe the abort.
	total := int(types.BatchSize)*2 + 1
	batch := make([]types.Piece, total)
	for i := range batch {
		batch[i] = piece(byte(i))
	}
	if err := plot.WriteMany(batch, 0); err != nil {
		t.Fatalf("WriteMany() error = %v", err)
	}

	salt := types.Salt{5, 5, 5, 5, 5, 5, 5, 5}

	createErr := make(chan error, 1)
	go func() { createErr <- plot.CreateCommitment(salt) }()

	// Give the driver time to start its first batch before removing.
	time.Sleep(5 * time.Millisecond)
	if err := plot.RemoveCommitment(salt); err != nil {
		t.Fatalf("RemoveCommitment() error = %v", err)
	}

	select {
	case err := <-createErr:
		if err != types.ErrAborted {
			t.Errorf("CreateCommitment() error = %v, want ErrAborted", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("CreateCommitment() did not return after abort")
	}

	_, found, err := plot.FindByRange(types.TagFromUint64(0), 0, salt)
	if err != nil {
		t.Fatalf("FindByRange() error = %v", err)
	}
	if found {
		t.Error("FindByRange() found = true for an aborted-and-removed salt, want false")
	}
}

func TestPieceCountAndCommitmentCounts(t *testing.T) {
	p := openTest(t, Config{})

	if err := p.WriteMany([]types.Piece{piece(0x00), piece(0x01)}, 0); err != nil {
		t.Fatalf("WriteMany() error = %v", err)
	}
	if got := p.PieceCount(); got != 2 {
		t.Errorf("PieceCount() = %d, want 2", got)
	}

	salt := types.Salt{6, 6, 6, 6, 6, 6, 6, 6}
	if err := p.CreateCommitment(salt); err != nil {
		t.Fatalf("CreateCommitment() error = %v", err)
	}

	counts := p.CommitmentCounts()
	if counts[types.CommitmentCreated.String()] != 1 {
		t.Errorf("CommitmentCounts() = %+v, want 1 created", counts)
	}
}

func TestRetainCommitmentsRemovesUnlisted(t *testing.T) {
	p := openTest(t, Config{})
	if err := p.WriteMany([]types.Piece{piece(0x00)}, 0); err != nil {
		t.Fatalf("WriteMany() error = %v", err)
	}

	keepSalt := types.Salt{7, 7, 7, 7, 7, 7, 7, 7}
	dropSalt := types.Salt{8, 8, 8, 8, 8, 8, 8, 8}

	if err := p.CreateCommitment(keepSalt); err != nil {
		t.Fatalf("CreateCommitment(keep) error = %v", err)
	}
	if err := p.CreateCommitment(dropSalt); err != nil {
		t.Fatalf("CreateCommitment(drop) error = %v", err)
	}

	if err := p.RetainCommitments([]types.Salt{keepSalt}); err != nil {
		t.Fatalf("RetainCommitments() error = %v", err)
	}

	counts := p.CommitmentCounts()
	if counts[types.CommitmentCreated.String()] != 1 {
		t.Errorf("CommitmentCounts() = %+v, want exactly 1 created after retain", counts)
	}
}

func TestLastRootBlockRoundTrip(t *testing.T) {
	p := openTest(t, Config{})

	block, err := p.LastRootBlock()
	if err != nil {
		t.Fatalf("LastRootBlock() error = %v", err)
	}
	if block != nil {
		t.Errorf("LastRootBlock() = %v, want nil before any set", block)
	}

	want := []byte{0xde, 0xad, 0xbe, 0xef}
	if err := p.SetLastRootBlock(want); err != nil {
		t.Fatalf("SetLastRootBlock() error = %v", err)
	}

	got, err := p.LastRootBlock()
	if err != nil {
		t.Fatalf("LastRootBlock() error = %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("LastRootBlock() = %x, want %x", got, want)
	}
}
