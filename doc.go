// Package chainsnap captures the storage of a remote chain node at a fixed
// block into an in-memory key-value store, a durable snapshot file, or both.
//
// Online retrieval (whole keyspace or selected modules):
//
//	store, _ := chainsnap.New(
//	    chainsnap.WithMode(chainsnap.Online{
//	        Endpoint: "wss://rpc.polkadot.io",
//	        Modules:  []string{"System", "Balances"},
//	        Snapshot: &chainsnap.SnapshotConfig{Path: "polkadot.snap"},
//	    }),
//	).Build(ctx)
//
// Offline reload of a captured snapshot:
//
//	store, _ := chainsnap.New(
//	    chainsnap.WithMode(chainsnap.Offline{
//	        Snapshot: chainsnap.SnapshotConfig{Path: "polkadot.snap"},
//	    }),
//	).Build(ctx)
//
// Extra pairs can be overlaid on the retrieved state; later pairs win:
//
//	chainsnap.WithInject(chainsnap.Pair{Key: k, Value: v})
//
// A session pins every read to one block: the configured hash, or the latest
// finalized head resolved at connect time. Requests within a session are
// issued strictly sequentially; independent sessions may run in parallel.
// Any failure aborts the whole build, so a returned store is always complete.
package chainsnap
