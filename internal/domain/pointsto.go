package domain

import "hash/fnv"

// Hash returns the object's structural hash, derived from its canonical
// string form so that it is stable across runs (I2) regardless of
// interning order.
func (o *AbstractObject) Hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(objectCanonical(o.Site, o.Ctx, o.Fingerprint)))
	return h.Sum64()
}

// PointsToSet is a finite, immutable set of abstract objects (spec.md §3).
// Every mutation (Join) returns a new set; the receiver is never modified.
//
// A set may also be the designated universal set ⊤ (spec.md §4.8), used
// as the most conservative built-in summary for unrecognized primitives:
// joining anything into ⊤, or ⊤ into anything, yields ⊤.
type PointsToSet struct {
	members map[int]*AbstractObject // keyed by AbstractObject.Seq
	top     bool
}

// Empty is the canonical empty points-to set. It is safe to share since
// PointsToSet is immutable.
var Empty = &PointsToSet{}

// Top is the universal points-to set ⊤.
var Top = &PointsToSet{top: true}

// IsTop reports whether this is the universal set ⊤.
func (s *PointsToSet) IsTop() bool { return s != nil && s.top }

// Singleton builds a one-element points-to set.
func Singleton(o *AbstractObject) *PointsToSet {
	return &PointsToSet{members: map[int]*AbstractObject{o.Seq: o}}
}

// Len reports the number of members. ⊤ reports 0 since it has no
// enumerable membership; callers must check IsTop separately.
func (s *PointsToSet) Len() int {
	if s == nil || s.top {
		return 0
	}
	return len(s.members)
}

// Contains reports whether o is a member. ⊤ contains everything.
func (s *PointsToSet) Contains(o *AbstractObject) bool {
	if s == nil || o == nil {
		return false
	}
	if s.top {
		return true
	}
	_, ok := s.members[o.Seq]
	return ok
}

// Sorted returns the members ordered by Seq, ascending — the deterministic
// iteration order spec.md §4.2 and §4.4 require.
func (s *PointsToSet) Sorted() []*AbstractObject {
	if s == nil || len(s.members) == 0 {
		return nil
	}
	out := make([]*AbstractObject, 0, len(s.members))
	for _, o := range s.members {
		out = append(out, o)
	}
	sortObjects(out)
	return out
}

// Hash is the XOR/commutative combination of member hashes, so that it
// does not depend on insertion order (spec.md §4.1).
func (s *PointsToSet) Hash() uint64 {
	if s == nil {
		return 0
	}
	var h uint64
	for _, o := range s.members {
		h ^= o.Hash()
	}
	return h
}

// WithObject returns a set containing the receiver's members plus o, and
// whether o was newly added.
func (s *PointsToSet) WithObject(o *AbstractObject) (*PointsToSet, bool) {
	if s.Contains(o) {
		return s, false
	}
	n := s.Len() + 1
	members := make(map[int]*AbstractObject, n)
	if s != nil {
		for k, v := range s.members {
			members[k] = v
		}
	}
	members[o.Seq] = o
	return &PointsToSet{members: members}, true
}

// Join returns the union of the receiver and other, and whether the union
// added at least one member not already present in the receiver (the
// "changed?" flag the solver uses to decide whether to re-enqueue
// dependents; spec.md §4.4).
func (s *PointsToSet) Join(other *PointsToSet) (*PointsToSet, bool) {
	if s.IsTop() {
		return s, false
	}
	if other.IsTop() {
		return Top, true
	}
	if other.Len() == 0 {
		return s, false
	}
	grew := false
	for _, o := range other.members {
		if !s.Contains(o) {
			grew = true
			break
		}
	}
	if !grew {
		return s, false
	}
	members := make(map[int]*AbstractObject, s.Len()+other.Len())
	for k, v := range s.members {
		members[k] = v
	}
	for k, v := range other.members {
		members[k] = v
	}
	return &PointsToSet{members: members}, true
}

// Union builds the union of several points-to sets without tracking
// growth; useful when constructing a constraint's right-hand side.
func Union(sets ...*PointsToSet) *PointsToSet {
	out := Empty
	for _, s := range sets {
		out, _ = out.Join(s)
	}
	return out
}
