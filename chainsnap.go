package chainsnap

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/chainsnap/chainsnap/internal/hashing"
	"github.com/chainsnap/chainsnap/internal/rpc"
)

// DefaultEndpoint is the node queried when no endpoint is configured.
const DefaultEndpoint = "wss://rpc.polkadot.io"

const (
	pageSize      = 512  // keys per state_getKeysPaged request
	progressEvery = 1000 // fetched values between progress events
)

// Pair is a single storage key and its value. Both are opaque byte
// sequences; chainsnap never interprets them.
type Pair struct {
	Key   []byte
	Value []byte
}

// Builder accumulates configuration and produces a populated store. A
// Builder is consumed by Build and cannot be reused.
type Builder struct {
	mode     Mode
	inject   []Pair
	observer Observer

	client   rpc.Client // pre-set in tests; dialed on demand otherwise
	consumed bool
}

// New creates a Builder. With no options it targets DefaultEndpoint online,
// fetches the whole keyspace at the latest finalized block, and writes no
// snapshot.
func New(opts ...Option) *Builder {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &Builder{
		mode:     options.Mode,
		inject:   options.Inject,
		observer: options.Observer,
	}
}

// Build runs the configured acquisition and returns the populated store.
// Any failure aborts the whole build: no store is returned and, online, no
// snapshot is left at the configured path.
func (b *Builder) Build(ctx context.Context) (*MemStore, error) {
	if b.consumed {
		return nil, fmt.Errorf("%w: Build called twice", ErrConsumed)
	}
	b.consumed = true

	pairs, err := b.assemble(ctx)
	if err != nil {
		return nil, err
	}

	store := NewMemStore()
	for _, p := range pairs {
		store.Insert(p.Key, p.Value)
	}
	b.emit(ctx, LevelInfo, EventSinkFilled, map[string]any{"pairs": len(pairs), "keys": store.Len()})
	return store, nil
}

// assemble produces the final ordered pair sequence: base state from the
// configured mode, then injected pairs appended last.
func (b *Builder) assemble(ctx context.Context) ([]Pair, error) {
	var base []Pair
	switch m := b.mode.(type) {
	case Offline:
		var err error
		base, err = b.loadSnapshot(ctx, m.Snapshot)
		if err != nil {
			return nil, err
		}
	case Online:
		var err error
		base, err = b.retrieve(ctx, m)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported mode %T", ErrConfig, b.mode)
	}

	if len(b.inject) > 0 {
		b.emit(ctx, LevelInfo, EventInject, map[string]any{"pairs": len(b.inject)})
		base = append(base, b.inject...)
	}
	return base, nil
}

func (b *Builder) loadSnapshot(ctx context.Context, cfg SnapshotConfig) ([]Pair, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("%w: offline mode requires a snapshot path", ErrConfig)
	}
	pairs, err := ReadSnapshot(cfg.Path)
	if err != nil {
		return nil, err
	}
	b.emit(ctx, LevelInfo, EventSnapshotLoaded, map[string]any{"path": cfg.Path, "pairs": len(pairs)})
	return pairs, nil
}

func (b *Builder) retrieve(ctx context.Context, m Online) ([]Pair, error) {
	sess, err := b.connect(ctx, m)
	if err != nil {
		return nil, err
	}
	defer sess.close()

	pairs, err := sess.run(ctx)
	if err != nil {
		return nil, err
	}

	if m.Snapshot != nil {
		if err := WriteSnapshot(m.Snapshot.Path, pairs, m.Snapshot.Compress); err != nil {
			return nil, err
		}
		b.emit(ctx, LevelInfo, EventSnapshotWritten, map[string]any{"path": m.Snapshot.Path, "pairs": len(pairs)})
	}
	return pairs, nil
}

// connect establishes the transport and fixes the session's reference
// block. Resolution of the finalized head happens here, before any
// enumeration or fetch.
func (b *Builder) connect(ctx context.Context, m Online) (*session, error) {
	endpoint := m.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	client := b.client
	owned := false
	if client == nil {
		var err error
		client, err = rpc.Dial(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("%w: dial %s: %w", ErrTransport, endpoint, err)
		}
		owned = true
	}

	at := m.At
	if at == "" {
		head, err := client.FinalizedHead(ctx)
		if err != nil {
			if owned {
				client.Close()
			}
			return nil, fmt.Errorf("%w: chain_getFinalizedHead: %w", ErrTransport, err)
		}
		at = head
	}

	b.emit(ctx, LevelInfo, EventSessionPinned, map[string]any{"endpoint": endpoint, "at": at})
	return &session{
		client:   client,
		at:       at,
		modules:  m.Modules,
		observer: b.observer,
		owned:    owned,
	}, nil
}

func (b *Builder) emit(ctx context.Context, level Level, typ EventType, data map[string]any) {
	if b.observer == nil {
		return
	}
	b.observer.OnEvent(ctx, Event{Type: typ, Level: level, Timestamp: time.Now(), Data: data})
}

// session is one online retrieval pinned to a single reference block. All
// of its requests are issued sequentially over one connection.
type session struct {
	client   rpc.Client
	at       string
	modules  []string
	observer Observer
	owned    bool // close the client only if this session dialed it
}

func (s *session) close() {
	if s.owned {
		s.client.Close()
	}
}

// run retrieves the configured scope: the ordered union of the hashed
// prefixes of the named modules, or the whole keyspace when none are named.
// Duplicate keys across overlapping prefixes are kept, in scope order.
func (s *session) run(ctx context.Context) ([]Pair, error) {
	if len(s.modules) == 0 {
		return s.fetchPrefix(ctx, nil)
	}

	var all []Pair
	for _, module := range s.modules {
		prefix := hashing.Twox128([]byte(module))
		pairs, err := s.fetchPrefix(ctx, prefix)
		if err != nil {
			return nil, err
		}
		s.emit(ctx, LevelInfo, EventModuleDone, map[string]any{
			"module": module,
			"prefix": hex.EncodeToString(prefix),
			"pairs":  len(pairs),
		})
		all = append(all, pairs...)
	}
	return all, nil
}

// fetchPrefix enumerates every key under prefix, then fetches each value at
// the session block. Enumeration completes before the first value request.
func (s *session) fetchPrefix(ctx context.Context, prefix []byte) ([]Pair, error) {
	keys, err := s.keysPaged(ctx, prefix)
	if err != nil {
		return nil, err
	}

	pairs := make([]Pair, 0, len(keys))
	for _, key := range keys {
		value, err := s.client.GetStorage(ctx, key, s.at)
		if err != nil {
			return nil, fmt.Errorf("%w: state_getStorage: %w", ErrTransport, err)
		}
		// An absent value decodes as empty. The reference block pin should
		// make deletions between the key and value reads unreachable; we do
		// not rely on it.
		pairs = append(pairs, Pair{Key: key, Value: value})
		if len(pairs)%progressEvery == 0 {
			s.emit(ctx, LevelDebug, EventFetchProgress, map[string]any{"fetched": len(pairs), "total": len(keys)})
		}
	}
	return pairs, nil
}

// keysPaged walks the keyspace under prefix in pages of pageSize keys,
// continuing from the last key of each full page. A short page ends the
// walk.
func (s *session) keysPaged(ctx context.Context, prefix []byte) ([][]byte, error) {
	var (
		all     [][]byte
		lastKey []byte
	)
	for {
		page, err := s.client.GetKeysPaged(ctx, prefix, pageSize, lastKey, s.at)
		if err != nil {
			return nil, fmt.Errorf("%w: state_getKeysPaged: %w", ErrTransport, err)
		}
		all = append(all, page...)
		s.emit(ctx, LevelDebug, EventKeysPage, map[string]any{"page": len(page), "total": len(all)})
		if len(page) < pageSize {
			return all, nil
		}
		lastKey = page[len(page)-1]
	}
}

func (s *session) emit(ctx context.Context, level Level, typ EventType, data map[string]any) {
	if s.observer == nil {
		return
	}
	s.observer.OnEvent(ctx, Event{Type: typ, Level: level, Timestamp: time.Now(), Data: data})
}
