//go:build !386 && !arm && !mips && !mipsle

package atom

// Hash is the fixed-width content hash. On 64-bit targets it carries
// the full xxhash sum.
type Hash uint64

// foldSum narrows a 64-bit hash sum to the target Hash width.
func foldSum(sum uint64) Hash { return Hash(sum) }

// shardHash maps a hash-index key onto a shard selector for the
// concurrent map backing the hash index.
func shardHash(h Hash) uint32 { return uint32(h) ^ uint32(h>>32) }
