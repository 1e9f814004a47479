// Package strhash provides content hashing for the atom pool
// Used for the cached per-entry hash and the hash-index key space
package strhash

import (
	"github.com/cespare/xxhash/v2"
)

// Sum64 hashes string content to a 64-bit value.
// Deterministic within one process run; not stable across versions.
func Sum64(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Sum64Bytes hashes byte content to a 64-bit value.
// Equal content hashes equally regardless of string/byte representation.
func Sum64Bytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}
