package atom

import (
	"strings"
	"sync/atomic"
	"unicode/utf8"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/GaiaWorld/pi-atom/internal/strhash"
)

// Hasher maps string content to a fixed-width hash. Implementations
// must be pure and deterministic within one process run.
type Hasher func(s string) Hash

func defaultHasher(s string) Hash {
	return foldSum(strhash.Sum64(s))
}

// entry is the deduplicated payload shared by every atom for one
// content value. The counter counts live atoms only; the pool map and
// hash index references are not counted.
type entry struct {
	text string
	hash Hash
	pool *Pool
	refs atomic.Int64
}

// tryAcquire increments the counter only if it is still positive.
// An entry whose counter has reached zero is on its way out of the
// pool map and must never be resurrected through this path.
func (e *entry) tryAcquire() bool {
	for {
		n := e.refs.Load()
		if n <= 0 {
			return false
		}
		if e.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// release decrements the counter and, on an observed zero, attempts
// removal from the pool map. The removal callback runs under the
// bucket lock and re-reads the counter: a concurrent Intern or
// GetByHash may have revived the entry between the optimistic
// decrement and the lock acquisition, in which case removal is
// abandoned.
func (e *entry) release() {
	if e.refs.Add(-1) > 0 {
		return
	}
	p := e.pool
	p.atoms.RemoveCb(e.text, func(_ string, cur *entry, exists bool) bool {
		if !exists || cur != e {
			// Already unlinked, or the content was re-interned as a
			// fresh entry after this one died.
			return false
		}
		if e.refs.Load() != 0 {
			return false
		}
		// Confirmed dead: drop the matching hash-index record eagerly.
		// Best effort only; Collect handles anything missed here.
		p.hashes.RemoveCb(e.hash, func(_ Hash, weak *entry, ok bool) bool {
			return ok && weak == e
		})
		return true
	})
}

// Pool is a thread-safe interning pool: every distinct string content
// is stored exactly once and shared by all atoms created for it.
// Mutation is sharded per content bucket, so interning unrelated
// strings never contends on a common lock.
//
// The zero value is not usable; construct pools with NewPool. Most
// callers want the process-wide default pool via the package-level
// functions instead.
type Pool struct {
	atoms      cmap.ConcurrentMap[string, *entry]
	hashes     cmap.ConcurrentMap[Hash, *entry]
	hash       Hasher
	autoLookup bool
}

// PoolOption configures a Pool at construction time.
type PoolOption func(*Pool)

// WithHasher replaces the default xxhash-based content hasher.
func WithHasher(h Hasher) PoolOption {
	return func(p *Pool) {
		p.hash = h
	}
}

// WithHashLookup makes Intern register every newly created entry in
// the hash index, so GetByHash works without an explicit
// StoreWeakByHash call.
func WithHashLookup() PoolOption {
	return func(p *Pool) {
		p.autoLookup = true
	}
}

// NewPool creates an empty interning pool.
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		atoms:  cmap.New[*entry](),
		hashes: cmap.NewWithCustomShardingFunction[Hash, *entry](shardHash),
		hash:   defaultHasher,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Intern returns an atom for s, deduplicated against all previously
// interned content. The returned atom holds one reference and must be
// balanced by a Release (or by Clone/Release pairs for copies).
//
// Insert-or-increment is atomic per content key: concurrent Intern
// calls for equal content converge on a single entry, while calls for
// different content proceed on independent buckets.
func (p *Pool) Intern(s string) Atom {
	// Fast path: the content is already pooled and demonstrably alive.
	if e, ok := p.atoms.Get(s); ok && e.tryAcquire() {
		return Atom{e}
	}

	// Slow path: insert or increment under the bucket lock. The key is
	// cloned so pooled text never pins a larger caller-owned buffer.
	return p.internOwned(strings.Clone(s))
}

// internOwned runs the insert-or-increment protocol with a key the
// pool may keep: callers pass freshly copied strings only.
func (p *Pool) internOwned(key string) Atom {
	var (
		out      *entry
		inserted bool
	)
	p.atoms.Upsert(key, nil, func(exist bool, cur, _ *entry) *entry {
		if exist {
			// The counter may legitimately be zero here: a releasing
			// atom observed zero and is waiting on this bucket lock to
			// confirm removal. Incrementing now is safe because the
			// removal callback re-reads the counter and aborts.
			cur.refs.Add(1)
			out = cur
			return cur
		}
		e := &entry{text: key, hash: p.hash(key), pool: p}
		e.refs.Store(1)
		out = e
		inserted = true
		return e
	})
	if inserted && p.autoLookup {
		p.hashes.Set(out.hash, out)
	}
	return Atom{out}
}

// InternBytes interns byte content as an atom. Content not already in
// the pool must be valid UTF-8; otherwise ErrInvalidUTF8 is returned
// and no atom is created. The hit path performs no allocation.
func (p *Pool) InternBytes(b []byte) (Atom, error) {
	s := bytesToString(b)
	// Zero-copy lookup first; validation can wait until the content
	// actually has to enter the pool.
	if e, ok := p.atoms.Get(s); ok && e.tryAcquire() {
		return Atom{e}, nil
	}
	if !utf8.Valid(b) {
		return Atom{}, ErrInvalidUTF8
	}
	return p.internOwned(string(b)), nil
}

// Len returns the number of distinct live entries in the pool.
func (p *Pool) Len() int {
	return p.atoms.Count()
}
