package chainsnap

import (
	"iter"
	"sync"
)

// Store receives the final key-value sequence of a build. Implementations
// must apply Insert calls in order: the last value inserted for a key wins.
type Store interface {
	Insert(key, value []byte)
	Get(key []byte) ([]byte, bool)
	Len() int
	Entries() iter.Seq2[[]byte, []byte]
}

// MemStore is an in-memory Store. Iteration follows the first-insertion
// order of each key; re-inserting a key overwrites its value in place.
type MemStore struct {
	mu     sync.RWMutex
	order  []string
	values map[string][]byte
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string][]byte)}
}

func (s *MemStore) Insert(key, value []byte) {
	k := string(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[k]; !ok {
		s.order = append(s.order, k)
	}
	s.values[k] = append([]byte(nil), value...)
}

// Get returns a copy of the value stored under key.
func (s *MemStore) Get(key []byte) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[string(key)]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v...), true
}

func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Entries iterates over the stored pairs in first-insertion key order.
func (s *MemStore) Entries() iter.Seq2[[]byte, []byte] {
	return func(yield func([]byte, []byte) bool) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for _, k := range s.order {
			if !yield([]byte(k), s.values[k]) {
				return
			}
		}
	}
}
