package chainsnap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreLastWriteWins(t *testing.T) {
	s := NewMemStore()
	s.Insert([]byte("k1"), []byte("v1"))
	s.Insert([]byte("k2"), []byte("v2"))
	s.Insert([]byte("k1"), []byte("v1'"))

	require.Equal(t, 2, s.Len())
	v, ok := s.Get([]byte("k1"))
	require.True(t, ok)
	assert.Equal(t, []byte("v1'"), v)
}

func TestMemStoreEntriesOrder(t *testing.T) {
	s := NewMemStore()
	s.Insert([]byte("b"), []byte("1"))
	s.Insert([]byte("a"), []byte("2"))
	s.Insert([]byte("c"), []byte("3"))
	s.Insert([]byte("a"), []byte("4")) // overwrite keeps position

	var keys, values []string
	for k, v := range s.Entries() {
		keys = append(keys, string(k))
		values = append(values, string(v))
	}
	assert.Equal(t, []string{"b", "a", "c"}, keys)
	assert.Equal(t, []string{"1", "4", "3"}, values)
}

func TestMemStoreGetCopies(t *testing.T) {
	s := NewMemStore()
	s.Insert([]byte("k"), []byte("value"))

	v, ok := s.Get([]byte("k"))
	require.True(t, ok)
	v[0] = 'X'

	again, _ := s.Get([]byte("k"))
	assert.Equal(t, []byte("value"), again)
}

func TestMemStoreMissingKey(t *testing.T) {
	s := NewMemStore()
	_, ok := s.Get([]byte("absent"))
	assert.False(t, ok)
}
