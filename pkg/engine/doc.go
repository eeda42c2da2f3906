/*
Package engine implements the plot's background scheduler: a single
goroutine with exclusive ownership of the piece file and the commitments
directory, multiplexing read and write requests from bounded channels.

# Read Priority

Every pass first drains the read channel completely, then services at most
one write request, then blocks on a one-slot wake channel if the pass did
nothing. This guarantees that a flood of read requests (proof-of-storage
challenges) cannot starve writers indefinitely — at least one write is
serviced between read drains — while still letting reads preempt any
queued writes, since proof queries are latency-sensitive and bulk writes
are not.

# Shutdown

Close signals shutdown via a dedicated close channel rather than closing
the request channels themselves: request channels have many concurrent
senders (every caller of ReadPiece, WriteTags, ...), and only one
goroutine may safely close a channel. Submitters race a channel send
against the close signal and return ErrEngineClosed if shutdown has
already begun; callers already waiting on a reply race that wait against
the engine's done signal for the same reason.

# Usage

	e := engine.Start(pieceFile, commits)
	defer e.Close()

	piece, err := e.ReadPiece(0)
	err = e.WritePieces(0, batch)
*/
package engine
