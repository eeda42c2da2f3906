// Package plot provides the public façade over a plot's engine: piece
// storage, the commitment state machine, and last-root-block metadata.
package plot

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cuemby/plotengine/pkg/commitments"
	"github.com/cuemby/plotengine/pkg/engine"
	"github.com/cuemby/plotengine/pkg/events"
	"github.com/cuemby/plotengine/pkg/log"
	"github.com/cuemby/plotengine/pkg/metadb"
	"github.com/cuemby/plotengine/pkg/metrics"
	"github.com/cuemby/plotengine/pkg/pieces"
	"github.com/cuemby/plotengine/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Config configures a Plot.
type Config struct {
	// DataDir is the directory holding the piece file, metadata database,
	// and commitments directory.
	DataDir string

	// TagFunc computes tags during commitment creation. Defaults to
	// DefaultTagFunc when nil.
	TagFunc TagFunc

	// Broker, if non-nil, receives lifecycle events as commitments and
	// writes occur.
	Broker *events.Broker
}

// Plot is the public façade over a plot engine: piece storage, the
// per-salt commitment state machine, and last-root-block metadata.
type Plot struct {
	engine    *engine.Engine
	pieceFile *pieces.File
	metaDB    *metadb.MetaDB
	broker    *events.Broker
	tagFunc   TagFunc
	logger    zerolog.Logger

	mu       sync.Mutex
	statuses map[types.Salt]types.CommitmentStatus
}

// Open opens (creating if necessary) the plot rooted at cfg.DataDir.
func Open(cfg Config) (*Plot, error) {
	pieceFile, err := pieces.Open(filepath.Join(cfg.DataDir, "plot.bin"))
	if err != nil {
		return nil, fmt.Errorf("failed to open plot: %w", err)
	}

	commits, err := commitments.Open(cfg.DataDir)
	if err != nil {
		pieceFile.Close()
		return nil, fmt.Errorf("failed to open plot: %w", err)
	}

	existingSalts, err := commitments.OpenExisting(cfg.DataDir)
	if err != nil {
		pieceFile.Close()
		return nil, fmt.Errorf("failed to open plot: %w", err)
	}

	metaDB, err := metadb.Open(cfg.DataDir)
	if err != nil {
		pieceFile.Close()
		return nil, fmt.Errorf("failed to open plot: %w", err)
	}

	tagFunc := cfg.TagFunc
	if tagFunc == nil {
		tagFunc = DefaultTagFunc
	}

	statuses := make(map[types.Salt]types.CommitmentStatus, len(existingSalts))
	for _, salt := range existingSalts {
		statuses[salt] = types.CommitmentCreated
	}

	eng := engine.Start(pieceFile, commits)

	return &Plot{
		engine:    eng,
		pieceFile: pieceFile,
		metaDB:    metaDB,
		broker:    cfg.Broker,
		tagFunc:   tagFunc,
		logger:    log.WithComponent("plot"),
		statuses:  statuses,
	}, nil
}

// IsEmpty reports whether the plot has ever been extended.
func (p *Plot) IsEmpty() bool {
	return p.pieceFile.PieceCount() == 0
}

// PieceCount returns the number of pieces currently stored, satisfying
// metrics.PlotStats.
func (p *Plot) PieceCount() uint64 {
	return p.pieceFile.PieceCount()
}

// CommitmentCounts returns the number of commitments in each lifecycle
// status, satisfying metrics.PlotStats.
func (p *Plot) CommitmentCounts() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()

	counts := map[string]int{
		types.CommitmentInProgress.String(): 0,
		types.CommitmentCreated.String():    0,
		types.CommitmentAborted.String():    0,
	}
	for _, status := range p.statuses {
		counts[status.String()]++
	}
	return counts
}

// Read returns the piece at index i.
func (p *Plot) Read(i types.PieceIndex) (types.Piece, error) {
	return p.engine.ReadPiece(i)
}

// FindByRange returns the first tag entry within range of target under
// salt's commitment.
func (p *Plot) FindByRange(target types.Tag, rangeVal uint64, salt types.Salt) (types.TagEntry, bool, error) {
	return p.engine.FindByRange(target, rangeVal, salt)
}

// WriteMany appends pieces to the plot starting at first. It is a no-op if
// pieces is empty.
func (p *Plot) WriteMany(pieces []types.Piece, first types.PieceIndex) error {
	if len(pieces) == 0 {
		return nil
	}

	if err := p.engine.WritePieces(first, pieces); err != nil {
		return fmt.Errorf("failed to write pieces: %w", err)
	}

	p.publish(events.EventPlotExtended, "plot extended", map[string]string{
		"piece_count": fmt.Sprintf("%d", p.pieceFile.PieceCount()),
	})

	return nil
}

// LastRootBlock returns the plot's last reported root block, executed on a
// managed goroutine so the caller's blocking I/O never stalls the engine's
// cooperative loop.
func (p *Plot) LastRootBlock() ([]byte, error) {
	var block []byte
	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		var err error
		block, err = p.metaDB.LastRootBlock()
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to read last root block: %w", err)
	}
	return block, nil
}

// SetLastRootBlock persists the plot's last root block.
func (p *Plot) SetLastRootBlock(block []byte) error {
	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return p.metaDB.SetLastRootBlock(block)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to set last root block: %w", err)
	}
	return nil
}

// RetainCommitments removes every commitment whose salt is not in keep.
func (p *Plot) RetainCommitments(keep []types.Salt) error {
	keepSet := make(map[types.Salt]bool, len(keep))
	for _, salt := range keep {
		keepSet[salt] = true
	}

	p.mu.Lock()
	var toRemove []types.Salt
	for salt := range p.statuses {
		if !keepSet[salt] {
			toRemove = append(toRemove, salt)
		}
	}
	p.mu.Unlock()

	for _, salt := range toRemove {
		if err := p.RemoveCommitment(salt); err != nil {
			return err
		}
	}

	return nil
}

// Close shuts down the engine (flushing the piece file) and closes the
// metadata database.
func (p *Plot) Close() error {
	if err := p.engine.Close(); err != nil {
		return fmt.Errorf("failed to close engine: %w", err)
	}
	if err := p.metaDB.Close(); err != nil {
		return fmt.Errorf("failed to close meta database: %w", err)
	}
	p.publish(events.EventPlotClosed, "plot closed", nil)
	return nil
}

func (p *Plot) publish(eventType events.EventType, message string, metadata map[string]string) {
	if p.broker == nil {
		return
	}
	p.broker.Publish(&events.Event{
		Type:     eventType,
		Message:  message,
		Metadata: metadata,
	})
}
