/*
Package metadb provides BoltDB-backed persistence for a plot's metadata: today,
the last root block a farmer last reported to the chain.

# Architecture

	┌──────────────────── META DATABASE ───────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │               MetaDB                         │          │
	│  │  - File: <dataDir>/meta.db                   │          │
	│  │  - Format: B+tree with MVCC (bbolt)          │          │
	│  │  - Single bucket: "meta"                     │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Bucket Structure                   │          │
	│  │  ┌────────────────────────────┐             │          │
	│  │  │ last_root_block (fixed key)│             │          │
	│  │  └────────────────────────────┘             │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

MetaDB exposes a generic Get/Put contract over the single bucket, plus
LastRootBlock/SetLastRootBlock convenience wrappers for the one well-known
key the plot engine currently needs. Additional well-known keys can be
added the same way without a schema migration.

# Usage

	db, err := metadb.Open(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	block, err := db.LastRootBlock()
	if err != nil {
		return err
	}
	if block == nil {
		// never set
	}

	if err := db.SetLastRootBlock(newBlock); err != nil {
		return err
	}

# See Also

  - go.etcd.io/bbolt: https://pkg.go.dev/go.etcd.io/bbolt
*/
package metadb
