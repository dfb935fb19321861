package opt

import (
	"bytes"
	"fmt"
	"math/bits"
)

// ColSet is a set of ColumnIDs, stored as a bitmap of words. It is modeled
// on the teacher's util.FastIntSet (referenced throughout pkg/sql/opt as the
// backing type for column sets), re-implemented locally since FastIntSet
// itself lives in the teacher's internal pkg/util and is not a standalone
// dependency. ColSet is a value type: the zero value is the empty set, and
// copies are independent.
type ColSet struct {
	words []uint64
}

const wordBits = 64

// MakeColSet returns a ColSet containing the given columns.
func MakeColSet(cols ...ColumnID) ColSet {
	var s ColSet
	for _, c := range cols {
		s.Add(c)
	}
	return s
}

func wordIndex(c ColumnID) (word int, bit uint) {
	return int(c) / wordBits, uint(c) % wordBits
}

// Add inserts col into the set.
func (s *ColSet) Add(col ColumnID) {
	w, b := wordIndex(col)
	if w >= len(s.words) {
		grown := make([]uint64, w+1)
		copy(grown, s.words)
		s.words = grown
	}
	s.words[w] |= 1 << b
}

// Remove deletes col from the set, if present.
func (s *ColSet) Remove(col ColumnID) {
	w, b := wordIndex(col)
	if w < len(s.words) {
		s.words[w] &^= 1 << b
	}
}

// Contains returns true if col is in the set.
func (s ColSet) Contains(col ColumnID) bool {
	w, b := wordIndex(col)
	if w >= len(s.words) {
		return false
	}
	return s.words[w]&(1<<b) != 0
}

// Empty returns true if the set has no members.
func (s ColSet) Empty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Len returns the number of members in the set.
func (s ColSet) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Copy returns an independent copy of the set.
func (s ColSet) Copy() ColSet {
	out := ColSet{words: make([]uint64, len(s.words))}
	copy(out.words, s.words)
	return out
}

// Union returns the union of s and other, without mutating either.
func (s ColSet) Union(other ColSet) ColSet {
	n := len(s.words)
	if len(other.words) > n {
		n = len(other.words)
	}
	out := ColSet{words: make([]uint64, n)}
	for i := range out.words {
		var a, b uint64
		if i < len(s.words) {
			a = s.words[i]
		}
		if i < len(other.words) {
			b = other.words[i]
		}
		out.words[i] = a | b
	}
	return out
}

// Intersection returns the intersection of s and other.
func (s ColSet) Intersection(other ColSet) ColSet {
	n := len(s.words)
	if len(other.words) < n {
		n = len(other.words)
	}
	out := ColSet{words: make([]uint64, n)}
	for i := 0; i < n; i++ {
		out.words[i] = s.words[i] & other.words[i]
	}
	return out
}

// Difference returns the set of members of s that are not in other.
func (s ColSet) Difference(other ColSet) ColSet {
	out := ColSet{words: make([]uint64, len(s.words))}
	for i := range out.words {
		w := s.words[i]
		if i < len(other.words) {
			w &^= other.words[i]
		}
		out.words[i] = w
	}
	return out
}

// Intersects returns true if s and other share at least one member.
func (s ColSet) Intersects(other ColSet) bool {
	n := len(s.words)
	if len(other.words) < n {
		n = len(other.words)
	}
	for i := 0; i < n; i++ {
		if s.words[i]&other.words[i] != 0 {
			return true
		}
	}
	return false
}

// SubsetOf returns true if every member of s is also a member of other.
func (s ColSet) SubsetOf(other ColSet) bool {
	for i, w := range s.words {
		var ow uint64
		if i < len(other.words) {
			ow = other.words[i]
		}
		if w&^ow != 0 {
			return false
		}
	}
	return true
}

// Equals returns true if s and other contain exactly the same members.
func (s ColSet) Equals(other ColSet) bool {
	return s.SubsetOf(other) && other.SubsetOf(s)
}

// ForEach calls f for every member of the set, in increasing order.
func (s ColSet) ForEach(f func(col ColumnID)) {
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			f(ColumnID(i*wordBits + b))
			w &^= 1 << uint(b)
		}
	}
}

// ToList returns the members of the set as a sorted slice.
func (s ColSet) ToList() []ColumnID {
	out := make([]ColumnID, 0, s.Len())
	s.ForEach(func(c ColumnID) { out = append(out, c) })
	return out
}

// String renders the set as "(1,2,3)", matching the teacher's ColSet/
// FastIntSet debug format used throughout memo_format.go-style printers.
func (s ColSet) String() string {
	var buf bytes.Buffer
	buf.WriteByte('(')
	first := true
	s.ForEach(func(c ColumnID) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&buf, "%d", c)
	})
	buf.WriteByte(')')
	return buf.String()
}
