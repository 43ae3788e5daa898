// Package heap implements allocation of abstract objects under
// object-sensitivity (spec.md §4.2): turning (allocation site, current
// context, optional receiver points-to set) into the unique, interned
// abstract object for that allocation.
package heap

import (
	"sync"

	"github.com/lkgv/PythonStAn-sub002/internal/domain"
)

// Model constructs abstract objects for allocation sites, honoring the
// configured object-sensitivity depth.
type Model struct {
	Depth       int
	objects     *domain.ObjectTable
	fingerprint *domain.FingerprintTable
	ctxTable    *domain.ContextTable

	mu      sync.Mutex
	widened map[domain.AllocKind]bool
}

// NewModel creates a heap model at the given object-sensitivity depth,
// backed by the given interning tables.
func NewModel(depth int, objects *domain.ObjectTable, fingerprints *domain.FingerprintTable, contexts *domain.ContextTable) *Model {
	if depth < 0 {
		panic("heap: obj_depth must be >= 0")
	}
	return &Model{
		Depth:       depth,
		objects:     objects,
		fingerprint: fingerprints,
		ctxTable:    contexts,
		widened:     make(map[domain.AllocKind]bool),
	}
}

// Allocate returns the unique abstract object for allocating site at ctx
// with the given receiver points-to set (nil or empty for allocations with
// no receiver, e.g. module-level code). Per spec.md §4.2:
//   - at depth 0 the fingerprint is always ⊥;
//   - at depth d >= 1 it is built from the receiver set's objects, each
//     truncated to depth d-1;
//   - an empty/unresolved receiver set also yields ⊥, a sound
//     conservative merge across receivers.
//
// Once Widen has collapsed site.Kind, every allocation of that kind is
// folded onto the single (site, root, ⊥) representative regardless of the
// caller's ctx/receivers, per the heap-widening trigger of spec.md §4.6.2.
func (m *Model) Allocate(site *domain.AllocSite, ctx *domain.Context, receivers *domain.PointsToSet) *domain.AbstractObject {
	if m.isWidened(site.Kind) {
		return m.objects.Intern(site, m.ctxTable.Root(), m.fingerprint.Bottom())
	}
	fp := m.fingerprint.Build(receivers, m.Depth)
	return m.objects.Intern(site, ctx, fp)
}

// AllocateContextOnly allocates an object with no object-sensitivity
// contribution at all (⊥ fingerprint), used for allocations that have no
// notion of receiver (module objects, top-level literals).
func (m *Model) AllocateContextOnly(site *domain.AllocSite, ctx *domain.Context) *domain.AbstractObject {
	if m.isWidened(site.Kind) {
		ctx = m.ctxTable.Root()
	}
	return m.objects.Intern(site, ctx, m.fingerprint.Bottom())
}

// Widen permanently collapses every future allocation of kind onto one
// representative object per allocation site, trading precision for
// termination when the heap store has grown past the configured threshold.
// Objects allocated before the call stay distinct.
func (m *Model) Widen(kind domain.AllocKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.widened[kind] = true
}

func (m *Model) isWidened(kind domain.AllocKind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.widened[kind]
}

// WidenedKinds reports which allocation kinds have been widened, for
// diagnostics.
func (m *Model) WidenedKinds() []domain.AllocKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AllocKind, 0, len(m.widened))
	for k, v := range m.widened {
		if v {
			out = append(out, k)
		}
	}
	return out
}
