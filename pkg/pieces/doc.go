/*
Package pieces provides random-access storage for the dense array of
fixed-size pieces that backs a plot.

A piece file is a single flat file of types.PieceSize-byte records, indexed
by position: piece i lives at byte offset i*PieceSize. There is no header,
no free list, and no per-piece metadata — the file's length alone (always a
multiple of PieceSize) tells the reader how many pieces exist, and that
count is cached in an atomic so concurrent readers never need to stat the
file.

# Usage

	f, err := pieces.Open(filepath.Join(dataDir, "plot.bin"))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.WritePieces(0, batch); err != nil {
		return err
	}

	p, err := f.ReadPiece(0)

File does no locking beyond the piece count: the engine that owns a File is
expected to be its only writer, serializing writes itself, while reads may
run concurrently with each other and with the writer (the underlying
ReadAt/WriteAt calls are independently positioned and safe to interleave).
*/
package pieces
