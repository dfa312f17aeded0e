// Package hashing provides the non-cryptographic hash used to derive
// storage key prefixes from module names.
package hashing

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
)

// Twox128 returns the 128-bit digest that prefixes a module's storage keys:
// two seeded xxhash64 runs over data, concatenated little-endian with seed 0
// first.
func Twox128(data []byte) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint64(out[:8], xxhash.Checksum64S(data, 0))
	binary.LittleEndian.PutUint64(out[8:], xxhash.Checksum64S(data, 1))
	return out
}
