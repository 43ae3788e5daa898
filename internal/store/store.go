// Package store implements the monotone (variable,context) -> points-to
// and (object,field) -> points-to maps of spec.md §3/§4.4: E and H are
// both instantiations of the same generic, only-grows map.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lkgv/PythonStAn-sub002/internal/domain"
)

// HashFunc computes a deterministic hash for a store key, used only to
// order iteration (spec.md §4.4: "iteration ... in deterministic order by
// key-hash"). It must not depend on memory identity.
type HashFunc[K comparable] func(K) uint64

// Store is a monotone map from K to a points-to set. Unknown keys behave
// as the empty set; values only grow (I1).
type Store[K comparable] struct {
	mu   sync.Mutex
	m    map[K]*domain.PointsToSet
	hash HashFunc[K]
}

// New creates an empty store. hash must be a pure function of its
// argument's canonical form.
func New[K comparable](hash HashFunc[K]) *Store[K] {
	return &Store[K]{m: make(map[K]*domain.PointsToSet), hash: hash}
}

// Get returns the points-to set at k, or the empty set if absent.
func (s *Store[K]) Get(k K) *domain.PointsToSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.m[k]; ok {
		return v
	}
	return domain.Empty
}

// Join unions pts into the cell at k and returns the resulting set and
// whether it grew. A growth is the signal the solver uses to re-enqueue
// constraints depending on this cell (spec.md §4.6.2).
func (s *Store[K]) Join(k K, pts *domain.PointsToSet) (*domain.PointsToSet, bool) {
	if pts.Len() == 0 && !pts.IsTop() {
		return s.Get(k), false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.m[k]
	if !ok {
		cur = domain.Empty
	}
	next, changed := cur.Join(pts)
	if changed {
		s.m[k] = next
	}
	return next, changed
}

// Size reports the number of populated keys.
func (s *Store[K]) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// Keys returns the populated keys in deterministic order: ascending by
// hash, with a string-form tie-break for the (astronomically unlikely)
// case of a hash collision, so that iteration is reproducible (P6) even
// though Go map iteration is not.
func (s *Store[K]) Keys() []K {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]K, 0, len(s.m))
	for k := range s.m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		hi, hj := s.hash(out[i]), s.hash(out[j])
		if hi != hj {
			return hi < hj
		}
		return fmt.Sprint(out[i]) < fmt.Sprint(out[j])
	})
	return out
}

// Each calls f for every populated key in deterministic order.
func (s *Store[K]) Each(f func(k K, pts *domain.PointsToSet)) {
	for _, k := range s.Keys() {
		f(k, s.Get(k))
	}
}
