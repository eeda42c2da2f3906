/*
Package plot is the public façade over a plot: piece storage, the
per-salt commitment lifecycle, and last-root-block metadata, all
multiplexed through a single background engine.

# Commitment State Machine

Each salt has one of three statuses, tracked in memory and mirrored onto
disk by the commitments package's file naming:

  - InProgress: a batched tag-index build is underway.
  - Created: the tag index is complete and durable.
  - Aborted: a build was asked to stop; the driver removes it at the next
    batch boundary it observes the status at.

CreateCommitment drives a batch loop: read a range of pieces, compute one
tag per piece in parallel across GOMAXPROCS workers, write the batch, check
for an abort request, repeat. RemoveCommitment either marks an in-flight
build Aborted (letting the driver clean up) or removes a finished
commitment immediately.

# Usage

	p, err := plot.Open(plot.Config{DataDir: dataDir, Broker: broker})
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.WriteMany(batch, 0); err != nil {
		return err
	}
	if err := p.CreateCommitment(salt); err != nil {
		return err
	}
*/
package plot
