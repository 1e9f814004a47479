// Package atom provides process-wide interning of immutable strings.
// Every distinct content is pooled exactly once; callers hold
// lightweight Atom handles that compare, hash, and copy in constant
// time regardless of string length. An entry lives for as long as any
// atom references it and is removed from the pool when the last
// reference is released.
//
// High-frequency, short-lived interning of the same content causes
// create/destroy churn in the pool; applications with that access
// pattern should keep a small cache of atoms above this layer.
package atom

import (
	"strings"
	"unsafe"
)

// Atom is a reference-counted handle to one pooled string. Atoms are
// one word wide and cheap to pass by value, but a plain struct copy
// does not add a reference: every atom obtained from Intern, Clone,
// GetByHash, or a decoder owns exactly one reference and must be
// balanced by exactly one Release.
//
// The zero Atom references nothing; it reads as the empty string and
// Release on it is a no-op.
type Atom struct {
	e *entry
}

// String returns the pooled content. The result is the shared interned
// string, not a copy; Go string immutability makes the borrowed view
// and the owned copy the same thing.
func (a Atom) String() string {
	if a.e == nil {
		return ""
	}
	return a.e.text
}

// emptyHash is what the zero atom reports, keeping equality and
// hashing consistent between the zero atom and interned empty content.
var emptyHash = defaultHasher("")

// Hash returns the precomputed content hash. Computed once when the
// entry was created, so hashing long atoms costs nothing per call.
// The zero atom hashes as empty content under the default hasher,
// matching Empty.
func (a Atom) Hash() Hash {
	if a.e == nil {
		return emptyHash
	}
	return a.e.hash
}

// Len returns the content length in bytes.
func (a Atom) Len() int {
	if a.e == nil {
		return 0
	}
	return len(a.e.text)
}

// IsZero reports whether the atom references no pooled entry.
func (a Atom) IsZero() bool {
	return a.e == nil
}

// Clone returns a new atom aliasing the same entry and adds one
// reference. It never allocates and never fails: the caller already
// holds a live reference, so the counter cannot be zero.
func (a Atom) Clone() Atom {
	if a.e != nil {
		a.e.refs.Add(1)
	}
	return a
}

// Release drops this atom's reference. When the last reference for a
// content value is released, the entry is removed from the pool under
// the double-checked protocol in entry.release. The atom is cleared,
// so Release on the same *Atom twice is a no-op; releasing two plain
// copies of one atom is a misuse and corrupts the count.
func (a *Atom) Release() {
	e := a.e
	if e == nil {
		return
	}
	a.e = nil
	e.release()
}

// Equal reports content equality. At steady state equal content means
// identical entries, so the hash and pointer checks almost always
// settle it without touching the text.
func (a Atom) Equal(b Atom) bool {
	if a.e == b.e {
		return true
	}
	if a.e == nil || b.e == nil {
		return a.String() == b.String()
	}
	return a.e.hash == b.e.hash && a.e.text == b.e.text
}

// Compare orders atoms lexicographically by content, following
// strings.Compare conventions.
func (a Atom) Compare(b Atom) int {
	return strings.Compare(a.String(), b.String())
}

// defaultPool is the process-wide pool behind the package-level
// functions. It is created at package load with hash lookup enabled
// and lives for the duration of the process; there is no teardown.
var defaultPool = NewPool(WithHashLookup())

// Empty is the interned empty string. It is never released.
var Empty = New("")

// Default returns the process-wide pool.
func Default() *Pool {
	return defaultPool
}

// New interns s in the process-wide pool.
func New(s string) Atom {
	return defaultPool.Intern(s)
}

// FromBytes interns byte content in the process-wide pool. It fails
// with ErrInvalidUTF8 for content that is not valid UTF-8.
func FromBytes(b []byte) (Atom, error) {
	return defaultPool.InternBytes(b)
}

// HashString computes the hash an atom for s would carry, without
// interning anything.
func HashString(s string) Hash {
	return defaultPool.hash(s)
}

// bytesToString reinterprets a byte slice as a string without copying.
// Lookup-only: the result must not be stored or outlive b.
func bytesToString(b []byte) string {
	return *(*string)(unsafe.Pointer(&b))
}
