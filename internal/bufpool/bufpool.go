// Package bufpool provides pooled scratch buffers for the atom stream
// codec, reusing encode buffers instead of allocating per record
package bufpool

import (
	"sync"
)

// Pool is a generic, type-safe object pool with an optional reset
// function applied before reuse.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(*T)
}

// NewPool creates a pool backed by the given factory function.
func NewPool[T any](factory func() *T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return factory()
			},
		},
	}
}

// NewPoolWithReset creates a pool whose objects are reset before each
// reuse.
func NewPoolWithReset[T any](factory func() *T, reset func(*T)) *Pool[T] {
	p := NewPool(factory)
	p.reset = reset
	return p
}

// Get retrieves an object from the pool or creates a new one.
func (p *Pool[T]) Get() *T {
	obj := p.pool.Get().(*T)
	if p.reset != nil {
		p.reset(obj)
	}
	return obj
}

// Put returns an object to the pool for reuse.
func (p *Pool[T]) Put(obj *T) {
	if obj == nil {
		return
	}
	p.pool.Put(obj)
}

// BufferPool pools byte slices in capacity buckets. Buffers larger
// than the largest bucket are handed back to the GC rather than kept.
type BufferPool struct {
	pools   map[int]*Pool[[]byte]
	buckets []int
}

// NewBufferPool creates a buffer pool with capacity buckets sized for
// typical interned-string payloads.
func NewBufferPool() *BufferPool {
	buckets := []int{64, 256, 1024, 4096}

	bp := &BufferPool{
		pools:   make(map[int]*Pool[[]byte], len(buckets)),
		buckets: buckets,
	}
	for _, c := range buckets {
		capacity := c
		bp.pools[capacity] = NewPoolWithReset(
			func() *[]byte {
				buf := make([]byte, 0, capacity)
				return &buf
			},
			func(buf *[]byte) {
				*buf = (*buf)[:0]
			},
		)
	}
	return bp
}

// Get retrieves a buffer with at least the requested capacity.
// Requests beyond the largest bucket are allocated directly and will
// not be retained by Put.
func (bp *BufferPool) Get(minCap int) *[]byte {
	bucket := bp.findBucket(minCap)
	if bucket == 0 {
		buf := make([]byte, 0, minCap)
		return &buf
	}
	return bp.pools[bucket].Get()
}

// Put returns a buffer to its bucket. Only buffers whose capacity is
// exactly a bucket size are kept; anything else goes to the GC.
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil {
		return
	}
	if pool, ok := bp.pools[cap(*buf)]; ok {
		pool.Put(buf)
	}
}

// findBucket returns the smallest bucket capacity satisfying minCap,
// or 0 when the request exceeds every bucket.
func (bp *BufferPool) findBucket(minCap int) int {
	for _, bucket := range bp.buckets {
		if bucket >= minCap {
			return bucket
		}
	}
	return 0
}
