package hashseq

import (
	"bytes"
	"encoding/hex"
	"sort"

	"golang.org/x/crypto/sha3"
)

// IDSize is the width of an Id: the digest size of the hash function this
// package commits to (SHA3-256). The wire format produced by Encode
// (hashnode.go) is bit-exact against this width.
const IDSize = 32

// ID is a content-addressed, fixed-width identifier for a HashNode. Two
// distinct HashNodes produce distinct Ids with overwhelming probability;
// Ids are totally ordered by lexicographic byte comparison, which is the
// only tie-break this package ever uses.
type ID [IDSize]byte

// Zero is the zero Id. No real HashNode ever hashes to it in practice, but
// it is used as a sentinel for "no anchor".
var Zero ID

// Compare returns -1, 0 or 1 as id is less than, equal to, or greater than
// other, by lexicographic byte order.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

// Less reports whether id sorts strictly before other.
func (id ID) Less(other ID) bool {
	return id.Compare(other) < 0
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id == Zero
}

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Hash computes the Id of a byte slice. It is the sole place this package
// commits to a concrete hash function; everywhere else treats Id as an
// opaque, totally-ordered, collision-resistant token.
func Hash(data []byte) ID {
	var id ID
	sum := sha3.Sum256(data)
	copy(id[:], sum[:])
	return id
}

// IDSet is a sorted, deduplicated set of Ids, used throughout this package
// for extra_dependencies, Remove targets, roots, and sibling lists.
type IDSet []ID

// NewIDSet builds a sorted, deduplicated IDSet from ids in any order.
func NewIDSet(ids ...ID) IDSet {
	s := append(IDSet(nil), ids...)
	sort.Slice(s, func(i, j int) bool { return s[i].Less(s[j]) })
	s = dedupSorted(s)
	return s
}

func dedupSorted(s IDSet) IDSet {
	if len(s) < 2 {
		return s
	}
	out := s[:1]
	for _, id := range s[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}

// Contains reports whether id is a member of the set.
func (s IDSet) Contains(id ID) bool {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Less(id) })
	return i < len(s) && s[i] == id
}

// Insert returns a new IDSet with id inserted in sorted position. It is a
// no-op (returns s unchanged) if id is already present.
func (s IDSet) Insert(id ID) IDSet {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Less(id) })
	if i < len(s) && s[i] == id {
		return s
	}
	out := make(IDSet, len(s)+1)
	copy(out, s[:i])
	out[i] = id
	copy(out[i+1:], s[i:])
	return out
}

// Remove returns a new IDSet with id removed, if present.
func (s IDSet) Remove(id ID) IDSet {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Less(id) })
	if i >= len(s) || s[i] != id {
		return s
	}
	out := make(IDSet, len(s)-1)
	copy(out, s[:i])
	copy(out[i:], s[i+1:])
	return out
}

// Slice returns the underlying sorted slice, ascending.
func (s IDSet) Slice() []ID {
	return []ID(s)
}

// Clone returns an independent copy of s.
func (s IDSet) Clone() IDSet {
	return append(IDSet(nil), s...)
}
