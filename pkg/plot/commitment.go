package plot

import (
	"fmt"
	"runtime"

	"github.com/cuemby/plotengine/pkg/events"
	"github.com/cuemby/plotengine/pkg/metrics"
	"github.com/cuemby/plotengine/pkg/types"
	"golang.org/x/sync/errgroup"
)

// CreateCommitment builds the full tag index for salt, batching reads and
// tag-index writes across the plot's current piece count. If a commitment
// for salt already exists and is Created, it returns immediately. If the
// commitment is concurrently removed (observed as a transition to
// Aborted) at a batch boundary or during the final finish step, the
// partial index is deleted and ErrAborted is returned.
func (p *Plot) CreateCommitment(salt types.Salt) error {
	p.mu.Lock()
	if status, ok := p.statuses[salt]; ok && status == types.CommitmentCreated {
		p.mu.Unlock()
		return nil
	}
	p.statuses[salt] = types.CommitmentInProgress
	p.mu.Unlock()

	p.publish(events.EventCommitmentStarted, "commitment creation started", map[string]string{
		"salt": fmt.Sprintf("%x", salt),
	})

	timer := metrics.NewTimer()
	pieceCount := p.pieceFile.PieceCount()

	for batchStart := types.PieceIndex(0); batchStart < pieceCount; batchStart += types.BatchSize {
		if p.statusOf(salt) == types.CommitmentAborted {
			break
		}

		batchEnd := batchStart + types.BatchSize
		if batchEnd > pieceCount {
			batchEnd = pieceCount
		}
		n := batchEnd - batchStart

		batchTimer := metrics.NewTimer()

		data, err := p.engine.ReadPieces(batchStart, n)
		if err != nil {
			return fmt.Errorf("failed to read piece batch at %d: %w", batchStart, err)
		}

		tags, err := p.computeTags(data, n, salt)
		if err != nil {
			return fmt.Errorf("failed to compute tags for batch at %d: %w", batchStart, err)
		}

		if err := p.engine.WriteTags(batchStart, tags, salt); err != nil {
			return fmt.Errorf("failed to write tag batch at %d: %w", batchStart, err)
		}

		batchTimer.ObserveDuration(metrics.CommitmentBatchDuration)
	}

	if p.statusOf(salt) == types.CommitmentAborted {
		return p.abortCommitment(salt)
	}

	if err := p.engine.FinishCommitment(salt); err != nil {
		return fmt.Errorf("failed to finish commitment for salt %x: %w", salt, err)
	}

	// The commitment may have been aborted while the finish call was in
	// flight; the status map is the rendezvous point for that race.
	if p.statusOf(salt) == types.CommitmentAborted {
		return p.abortCommitment(salt)
	}

	p.mu.Lock()
	p.statuses[salt] = types.CommitmentCreated
	p.mu.Unlock()

	timer.ObserveDuration(metrics.CommitmentCreateDuration)
	p.publish(events.EventCommitmentCreated, "commitment created", map[string]string{
		"salt":        fmt.Sprintf("%x", salt),
		"piece_count": fmt.Sprintf("%d", pieceCount),
	})

	return nil
}

// abortCommitment removes the partial on-disk index for an aborted
// commitment and reports types.ErrAborted.
func (p *Plot) abortCommitment(salt types.Salt) error {
	p.mu.Lock()
	delete(p.statuses, salt)
	p.mu.Unlock()

	if err := p.engine.RemoveCommitment(salt); err != nil {
		return fmt.Errorf("failed to clean up aborted commitment for salt %x: %w", salt, err)
	}

	metrics.CommitmentsAbortedTotal.Inc()
	p.publish(events.EventCommitmentAborted, "commitment creation aborted", map[string]string{
		"salt": fmt.Sprintf("%x", salt),
	})

	return types.ErrAborted
}

func (p *Plot) statusOf(salt types.Salt) types.CommitmentStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statuses[salt]
}

// computeTags computes one tag per piece in data (n contiguous
// types.PieceSize-byte pieces), splitting the work across
// runtime.GOMAXPROCS(0) worker goroutines.
func (p *Plot) computeTags(data []byte, n uint64, salt types.Salt) ([]types.Tag, error) {
	tags := make([]types.Tag, n)
	if n == 0 {
		return tags, nil
	}

	workers := uint64(runtime.GOMAXPROCS(0))
	if workers > n {
		workers = n
	}
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for w := uint64(0); w < workers; w++ {
		start := w * chunk
		if start >= n {
			break
		}
		end := start + chunk
		if end > n {
			end = n
		}

		g.Go(func() error {
			for i := start; i < end; i++ {
				piece := data[i*types.PieceSize : (i+1)*types.PieceSize]
				tags[i] = p.tagFunc(piece, salt)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tags, nil
}

// RemoveCommitment removes salt's commitment. If a build is currently
// in progress, it is marked Aborted and the driver running
// CreateCommitment cleans it up at its next batch boundary; otherwise the
// commitment is removed immediately.
func (p *Plot) RemoveCommitment(salt types.Salt) error {
	p.mu.Lock()
	status, ok := p.statuses[salt]
	if ok && (status == types.CommitmentInProgress || status == types.CommitmentAborted) {
		p.statuses[salt] = types.CommitmentAborted
		p.mu.Unlock()
		return nil
	}
	delete(p.statuses, salt)
	p.mu.Unlock()

	if err := p.engine.RemoveCommitment(salt); err != nil {
		return fmt.Errorf("failed to remove commitment for salt %x: %w", salt, err)
	}

	p.publish(events.EventCommitmentRemoved, "commitment removed", map[string]string{
		"salt": fmt.Sprintf("%x", salt),
	})

	return nil
}
