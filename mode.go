package chainsnap

// Mode selects how state is acquired. The set is closed: Online and Offline
// are the only implementations, so a Builder can never be asked an
// online-only question while offline or vice versa.
type Mode interface {
	mode()
}

// Online retrieves state from a chain node over JSON-RPC.
type Online struct {
	// Endpoint is the node URI (ws://, wss://, http:// or https://).
	// DefaultEndpoint is used when empty.
	Endpoint string

	// At pins the session to a block hash. When empty, the latest finalized
	// head is resolved once at connect time and used for every read in the
	// session.
	At string

	// Modules restricts retrieval to the hashed prefix of each named module,
	// in order. Empty means the whole keyspace.
	Modules []string

	// Snapshot, when set, is written with the retrieved pairs (before any
	// injected pairs) once retrieval completes. A write failure fails the
	// whole build.
	Snapshot *SnapshotConfig
}

// Offline loads state from a previously written snapshot file. No network
// access takes place.
type Offline struct {
	Snapshot SnapshotConfig
}

func (Online) mode()  {}
func (Offline) mode() {}

// SnapshotConfig locates a snapshot file on disk.
type SnapshotConfig struct {
	Path string

	// Compress writes the snapshot zstd-compressed. Reads detect compression
	// from the file contents regardless of this setting.
	Compress bool
}
