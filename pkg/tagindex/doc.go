/*
Package tagindex provides an ordered, BoltDB-backed map from tag to piece
index, scoped to a single salt's commitment.

A TagIndex is built once per salt, in ascending piece-index batches, and
read many times by FindFirstInRange during proof-of-storage challenges. The
key encoding is asymmetric by design: 8-byte big-endian tags so that
BoltDB's natural byte-sorted key order is tag order, and 8-byte
little-endian piece indices because the value carries no ordering
requirement, only a machine integer to decode back out.

# Range Queries

FindFirstInRange implements a circular range scan over the 64-bit tag
space: the query window is centered on a target tag and may wrap around
the top of the space back to the bottom. When it wraps, the scan covers
two disjoint byte ranges in the underlying bucket rather than one.

# See Also

  - go.etcd.io/bbolt: https://pkg.go.dev/go.etcd.io/bbolt
*/
package tagindex
