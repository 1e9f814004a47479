package atom

// The hash index is a secondary map from content hash to a non-owning
// entry reference. It lets callers recover a live atom from a
// precomputed hash without re-supplying the text. Index records never
// keep an entry alive: resolution goes through tryAcquire, which
// refuses entries whose counter already reached zero. Dead records
// linger until Collect runs (or until the eager removal on entry death
// happens to catch them); that is the intended trade-off for keeping
// registration and the release hot path O(1).

// StoreWeakByHash registers a non-owning record from a's hash to its
// entry. A prior record for the same hash value is overwritten, even
// when it belongs to different content (hash collision). Collisions
// are not chained; callers relying on hash-only identification must
// verify the returned content themselves.
func (p *Pool) StoreWeakByHash(a Atom) {
	if a.e == nil {
		return
	}
	p.hashes.Set(a.e.hash, a.e)
}

// GetByHash resolves h to a live atom. It returns false if no record
// exists for h or the recorded entry has already been destroyed. A
// returned atom holds a fresh reference and must be released like any
// other.
func (p *Pool) GetByHash(h Hash) (Atom, bool) {
	e, ok := p.hashes.Get(h)
	if !ok || !e.tryAcquire() {
		return Atom{}, false
	}
	return Atom{e}, true
}

// Collect sweeps the hash index and removes every record whose entry
// is no longer live. Not automatic: callers invoke it periodically.
// Each removal re-validates under the bucket lock, so a record revived
// by a concurrent Intern between the scan and the removal survives.
func (p *Pool) Collect() {
	type record struct {
		h Hash
		e *entry
	}
	var dead []record
	p.hashes.IterCb(func(h Hash, e *entry) {
		if e.refs.Load() == 0 {
			dead = append(dead, record{h, e})
		}
	})
	for _, r := range dead {
		p.hashes.RemoveCb(r.h, func(_ Hash, cur *entry, ok bool) bool {
			return ok && cur == r.e && cur.refs.Load() == 0
		})
	}
}

// StoreWeakByHash registers a in the process-wide pool's hash index.
func StoreWeakByHash(a Atom) {
	defaultPool.StoreWeakByHash(a)
}

// GetByHash resolves h against the process-wide pool's hash index.
func GetByHash(h Hash) (Atom, bool) {
	return defaultPool.GetByHash(h)
}

// Collect purges dangling records from the process-wide pool's hash
// index.
func Collect() {
	defaultPool.Collect()
}
