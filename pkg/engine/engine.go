// Package engine implements the plot's single-writer/single-reader
// background scheduler: one goroutine owns the piece file and the
// commitments directory exclusively, and all access is multiplexed
// through bounded request channels with read-priority scheduling.
package engine

import (
	"sync"

	"github.com/cuemby/plotengine/pkg/commitments"
	"github.com/cuemby/plotengine/pkg/log"
	"github.com/cuemby/plotengine/pkg/metrics"
	"github.com/cuemby/plotengine/pkg/pieces"
	"github.com/cuemby/plotengine/pkg/types"
	"github.com/rs/zerolog"
)

const (
	readChannelCapacity  = 100
	writeChannelCapacity = 100
)

type readRequest interface{ kind() string }
type writeRequest interface{ kind() string }

// ReadPieceRequest asks for one piece.
type ReadPieceRequest struct {
	Index types.PieceIndex
	Reply chan ReadPieceResult
}

func (ReadPieceRequest) kind() string { return "read_piece" }

// ReadPieceResult is the reply to a ReadPieceRequest.
type ReadPieceResult struct {
	Piece types.Piece
	Err   error
}

// ReadPiecesRequest asks for Count contiguous pieces starting at First.
type ReadPiecesRequest struct {
	First types.PieceIndex
	Count uint64
	Reply chan ReadPiecesResult
}

func (ReadPiecesRequest) kind() string { return "read_pieces" }

// ReadPiecesResult is the reply to a ReadPiecesRequest.
type ReadPiecesResult struct {
	Data []byte
	Err  error
}

// FindByRangeRequest asks for the first tag entry within range of target
// under salt's commitment.
type FindByRangeRequest struct {
	Target types.Tag
	Range  uint64
	Salt   types.Salt
	Reply  chan FindByRangeResult
}

func (FindByRangeRequest) kind() string { return "find_by_range" }

// FindByRangeResult is the reply to a FindByRangeRequest.
type FindByRangeResult struct {
	Entry types.TagEntry
	Found bool
	Err   error
}

// WritePiecesRequest appends or overwrites pieces starting at First.
type WritePiecesRequest struct {
	First  types.PieceIndex
	Pieces []types.Piece
	Reply  chan error
}

func (WritePiecesRequest) kind() string { return "write_pieces" }

// WriteTagsRequest appends a batch of tag entries to salt's in-progress
// TagIndex.
type WriteTagsRequest struct {
	First types.PieceIndex
	Tags  []types.Tag
	Salt  types.Salt
	Reply chan error
}

func (WriteTagsRequest) kind() string { return "write_tags" }

// FinishCommitmentRequest finalizes salt's TagIndex, making it durable.
type FinishCommitmentRequest struct {
	Salt  types.Salt
	Reply chan error
}

func (FinishCommitmentRequest) kind() string { return "finish_commitment" }

// RemoveCommitmentRequest deletes salt's TagIndex.
type RemoveCommitmentRequest struct {
	Salt  types.Salt
	Reply chan error
}

func (RemoveCommitmentRequest) kind() string { return "remove_commitment" }

// Engine is the plot's background scheduler goroutine.
type Engine struct {
	pieceFile   *pieces.File
	commitments *commitments.Commitments
	logger      zerolog.Logger

	readCh  chan readRequest
	writeCh chan writeRequest
	wakeCh  chan struct{}

	closeCh   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// Start creates an Engine over pieceFile and commits, and launches its
// background loop.
func Start(pieceFile *pieces.File, commits *commitments.Commitments) *Engine {
	e := &Engine{
		pieceFile:   pieceFile,
		commitments: commits,
		logger:      log.WithComponent("engine"),
		readCh:      make(chan readRequest, readChannelCapacity),
		writeCh:     make(chan writeRequest, writeChannelCapacity),
		wakeCh:      make(chan struct{}, 1),
		closeCh:     make(chan struct{}),
		done:        make(chan struct{}),
	}
	go e.run()
	return e
}

// wake unparks the loop if it is blocked waiting for work.
func (e *Engine) wake() {
	select {
	case e.wakeCh <- struct{}{}:
	default:
	}
}

// run is the read-priority scheduling loop: drain every buffered read
// request, serve at most one write request, and block waiting for the
// wake signal only when a full pass did nothing.
func (e *Engine) run() {
	didNothing := false

outer:
	for {
		if didNothing {
			select {
			case <-e.wakeCh:
			case <-e.closeCh:
				break outer
			}
		}
		didNothing = true

	readDrain:
		for {
			select {
			case req := <-e.readCh:
				e.handleRead(req)
				didNothing = false
			case <-e.closeCh:
				break outer
			default:
				break readDrain
			}
		}

		select {
		case req := <-e.writeCh:
			e.handleWrite(req)
			didNothing = false
		case <-e.closeCh:
			break outer
		default:
		}
	}

	if err := e.pieceFile.Sync(); err != nil {
		e.logger.Error().Err(err).Msg("failed to sync piece file on shutdown")
	}
	close(e.done)
}

func (e *Engine) handleRead(req readRequest) {
	timer := metrics.NewTimer()
	outcome := "ok"
	defer func() {
		timer.ObserveDurationVec(metrics.EngineRequestDuration, req.kind())
		metrics.EngineRequestsTotal.WithLabelValues(req.kind(), outcome).Inc()
	}()

	switch r := req.(type) {
	case ReadPieceRequest:
		p, err := e.pieceFile.ReadPiece(r.Index)
		if err != nil {
			outcome = "error"
		}
		sendReply(r.Reply, ReadPieceResult{Piece: p, Err: err})
	case ReadPiecesRequest:
		data, err := e.pieceFile.ReadPieces(r.First, r.Count)
		if err != nil {
			outcome = "error"
		}
		sendReply(r.Reply, ReadPiecesResult{Data: data, Err: err})
	case FindByRangeRequest:
		idx, err := e.commitments.GetOrCreate(r.Salt)
		if err != nil {
			outcome = "error"
			sendReply(r.Reply, FindByRangeResult{Err: err})
			return
		}
		entry, found, err := idx.FindFirstInRange(r.Target, r.Range)
		if err != nil {
			outcome = "error"
		}
		sendReply(r.Reply, FindByRangeResult{Entry: entry, Found: found, Err: err})
	default:
		e.logger.Error().Msg("unknown read request type")
	}
}

func (e *Engine) handleWrite(req writeRequest) {
	timer := metrics.NewTimer()
	outcome := "ok"
	defer func() {
		timer.ObserveDurationVec(metrics.EngineRequestDuration, req.kind())
		metrics.EngineRequestsTotal.WithLabelValues(req.kind(), outcome).Inc()
	}()

	switch r := req.(type) {
	case WritePiecesRequest:
		err := e.pieceFile.WritePieces(r.First, r.Pieces)
		if err != nil {
			outcome = "error"
		}
		sendReply(r.Reply, err)
	case WriteTagsRequest:
		idx, err := e.commitments.GetOrCreate(r.Salt)
		if err != nil {
			outcome = "error"
			sendReply(r.Reply, err)
			return
		}
		entries := make([]types.TagEntry, len(r.Tags))
		for i, tag := range r.Tags {
			entries[i] = types.TagEntry{Tag: tag, Index: r.First + uint64(i)}
		}
		err = idx.PutMany(entries)
		if err != nil {
			outcome = "error"
		}
		sendReply(r.Reply, err)
	case FinishCommitmentRequest:
		err := e.commitments.Finish(r.Salt)
		if err != nil {
			outcome = "error"
		}
		sendReply(r.Reply, err)
	case RemoveCommitmentRequest:
		err := e.commitments.Remove(r.Salt)
		if err != nil {
			outcome = "error"
		}
		sendReply(r.Reply, err)
	default:
		e.logger.Error().Msg("unknown write request type")
	}
}

func sendReply[T any](reply chan T, value T) {
	select {
	case reply <- value:
	default:
	}
}

// submitRead enqueues a read request, returning ErrEngineClosed if the
// engine has begun shutting down.
func (e *Engine) submitRead(req readRequest) error {
	metrics.EngineQueueDepth.WithLabelValues("read").Set(float64(len(e.readCh)))
	select {
	case e.readCh <- req:
		e.wake()
		return nil
	case <-e.closeCh:
		return types.ErrEngineClosed
	}
}

// submitWrite enqueues a write request, returning ErrEngineClosed if the
// engine has begun shutting down.
func (e *Engine) submitWrite(req writeRequest) error {
	metrics.EngineQueueDepth.WithLabelValues("write").Set(float64(len(e.writeCh)))
	select {
	case e.writeCh <- req:
		e.wake()
		return nil
	case <-e.closeCh:
		return types.ErrEngineClosed
	}
}

// await blocks for a reply, but gives up if the engine finishes shutting
// down before one arrives (a request submitted just before Close may never
// be serviced).
func await[T any](e *Engine, reply chan T, zero T) (T, error) {
	select {
	case v := <-reply:
		return v, nil
	case <-e.done:
		return zero, types.ErrEngineClosed
	}
}

// ReadPiece reads the piece at index i.
func (e *Engine) ReadPiece(i types.PieceIndex) (types.Piece, error) {
	reply := make(chan ReadPieceResult, 1)
	if err := e.submitRead(ReadPieceRequest{Index: i, Reply: reply}); err != nil {
		return nil, err
	}
	res, err := await(e, reply, ReadPieceResult{})
	if err != nil {
		return nil, err
	}
	return res.Piece, res.Err
}

// ReadPieces reads n contiguous pieces starting at first.
func (e *Engine) ReadPieces(first types.PieceIndex, n uint64) ([]byte, error) {
	reply := make(chan ReadPiecesResult, 1)
	if err := e.submitRead(ReadPiecesRequest{First: first, Count: n, Reply: reply}); err != nil {
		return nil, err
	}
	res, err := await(e, reply, ReadPiecesResult{})
	if err != nil {
		return nil, err
	}
	return res.Data, res.Err
}

// FindByRange returns the first tag entry within range of target under
// salt's commitment.
func (e *Engine) FindByRange(target types.Tag, rangeVal uint64, salt types.Salt) (types.TagEntry, bool, error) {
	reply := make(chan FindByRangeResult, 1)
	if err := e.submitRead(FindByRangeRequest{Target: target, Range: rangeVal, Salt: salt, Reply: reply}); err != nil {
		return types.TagEntry{}, false, err
	}
	res, err := await(e, reply, FindByRangeResult{})
	if err != nil {
		return types.TagEntry{}, false, err
	}
	return res.Entry, res.Found, res.Err
}

// WritePieces appends or overwrites pieces starting at first.
func (e *Engine) WritePieces(first types.PieceIndex, ps []types.Piece) error {
	reply := make(chan error, 1)
	if err := e.submitWrite(WritePiecesRequest{First: first, Pieces: ps, Reply: reply}); err != nil {
		return err
	}
	res, err := await(e, reply, error(nil))
	if err != nil {
		return err
	}
	return res
}

// WriteTags appends a batch of tags to salt's in-progress TagIndex,
// assigning piece indices first, first+1, ... in order.
func (e *Engine) WriteTags(first types.PieceIndex, tags []types.Tag, salt types.Salt) error {
	reply := make(chan error, 1)
	if err := e.submitWrite(WriteTagsRequest{First: first, Tags: tags, Salt: salt, Reply: reply}); err != nil {
		return err
	}
	res, err := await(e, reply, error(nil))
	if err != nil {
		return err
	}
	return res
}

// FinishCommitment finalizes salt's TagIndex.
func (e *Engine) FinishCommitment(salt types.Salt) error {
	reply := make(chan error, 1)
	if err := e.submitWrite(FinishCommitmentRequest{Salt: salt, Reply: reply}); err != nil {
		return err
	}
	res, err := await(e, reply, error(nil))
	if err != nil {
		return err
	}
	return res
}

// RemoveCommitment deletes salt's TagIndex.
func (e *Engine) RemoveCommitment(salt types.Salt) error {
	reply := make(chan error, 1)
	if err := e.submitWrite(RemoveCommitmentRequest{Salt: salt, Reply: reply}); err != nil {
		return err
	}
	res, err := await(e, reply, error(nil))
	if err != nil {
		return err
	}
	return res
}

// Close signals the background loop to stop at its next channel check
// (requests still queued at that point are not served), flush the piece
// file, and exit. It blocks until the loop has fully stopped.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() { close(e.closeCh) })
	<-e.done
	return nil
}
