package types

import "errors"

// Sentinel errors forming the error taxonomy from the design: callers use
// errors.Is against these rather than matching on message text. Every layer
// still wraps with fmt.Errorf("...: %w", err) for context so the sentinel
// survives errors.Is checks while the wrapping message records where and why
// it occurred.
var (
	// ErrAborted is returned to callers of CreateCommitment when the status
	// transitioned to Aborted during the batch loop.
	ErrAborted = errors.New("commitment creation was aborted")

	// ErrMaxRecords is returned by read-only record storage variants that
	// never accept writes.
	ErrMaxRecords = errors.New("record store does not accept records")

	// ErrNotFound is a generic "missing key" sentinel. TagIndex, PlotMetaDB
	// and the record store variants do not return it: they report a missing
	// key with a found flag or a nil value.
	ErrNotFound = errors.New("not found")

	// ErrEngineClosed is returned when a request is submitted after the
	// engine's Close has been called, or when the engine stops before a
	// submitted request gets its reply (shutdown in progress or complete).
	ErrEngineClosed = errors.New("plot engine is closed")
)
