//go:build 386 || arm || mips || mipsle

package atom

// Hash is the fixed-width content hash. On 32-bit targets the 64-bit
// xxhash sum is folded down to 32 bits.
type Hash uint32

// foldSum narrows a 64-bit hash sum to the target Hash width.
func foldSum(sum uint64) Hash { return Hash(sum ^ sum>>32) }

// shardHash maps a hash-index key onto a shard selector for the
// concurrent map backing the hash index.
func shardHash(h Hash) uint32 { return uint32(h) }
