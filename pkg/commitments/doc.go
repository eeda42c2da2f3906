/*
Package commitments manages the on-disk lifecycle of per-salt tag indexes:
a directory of TagIndex databases, one per salt, named by the salt's hex
encoding.

# Naming and Durability

A salt under construction lives at <hex(salt)>.db.inprogress; once its
batched build completes, Finish renames it to <hex(salt)>.db. The rename is
what makes a salt durable — a crash at any point before Finish leaves only
the .inprogress file behind, which OpenExisting treats as absent rather
than a complete commitment.

# Usage

	c, err := commitments.Open(dataDir)
	if err != nil {
		return err
	}
	defer c.Close()

	existing, err := commitments.OpenExisting(dataDir)

	idx, err := c.GetOrCreate(salt)
	// ... batched writes against idx ...
	if err := c.Finish(salt); err != nil {
		return err
	}
*/
package commitments
