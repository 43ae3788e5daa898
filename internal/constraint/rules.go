package constraint

import (
	"github.com/lkgv/PythonStAn-sub002/internal/domain"
	"github.com/lkgv/PythonStAn-sub002/internal/store"
)

// CopyConstraint implements R-copy: pt(Target) ⊇ pt(Source). It is also
// reused, unmodified, for R-phi (one instance per phi source), R-ret's
// caller-side join (return_var@calleeCtx -> target@callerCtx), and for
// the raise/catch routing of spec.md §4.5's RaiseEvent (source ->
// every reachable catch target).
type CopyConstraint struct {
	Target store.VarKey
	Source store.VarKey
}

func (c *CopyConstraint) Deps() []Cell { return []Cell{VarCell(c.Source)} }

func (c *CopyConstraint) Apply(w *World, _ Scheduler) (bool, []Cell) {
	_, changed := w.Env.Join(c.Target, w.Env.Get(c.Source))
	if !changed {
		return false, nil
	}
	return true, []Cell{VarCell(c.Target)}
}

// AllocConstraint implements R-alloc: pt(Target) ⊇ {new_object(Site, Ctx,
// recv)}, where recv is pt(Self, Ctx) for allocations inside a method body
// (HasSelf) or the empty set otherwise. It stays reactive on Self so
// that a growing receiver set (spec.md §4.2 object-sensitivity) keeps
// refining the allocated object's fingerprint.
type AllocConstraint struct {
	Target  store.VarKey
	Site    *domain.AllocSite
	Ctx     *domain.Context
	Self    store.VarKey
	HasSelf bool
}

func (c *AllocConstraint) Deps() []Cell {
	if !c.HasSelf {
		return nil
	}
	return []Cell{VarCell(c.Self)}
}

func (c *AllocConstraint) Apply(w *World, _ Scheduler) (bool, []Cell) {
	recv := domain.Empty
	if c.HasSelf {
		recv = w.Env.Get(c.Self)
	}
	obj := w.HeapModl.Allocate(c.Site, c.Ctx, recv)
	_, changed := w.Env.Join(c.Target, domain.Singleton(obj))
	if !changed {
		return false, nil
	}
	return true, []Cell{VarCell(c.Target)}
}

// LoadAttrConstraint implements R-ldA: pt(Target) ⊇ ⋃_{o∈pt(Base)}
// H[o,Field]. When Field is FieldUnknown (Rule I5), a single fixed field
// is not enough: a dynamically-named read's result is the union of every
// attr(*) cell populated on each base object, plus that object's own
// FieldUnknown cell (P7) — so it enumerates every heap cell currently on
// record for each base object rather than reading one cell.
type LoadAttrConstraint struct {
	Target store.VarKey
	Base   store.VarKey
	Field  *domain.FieldKey

	// watched holds every heap cell this constraint has read so far, so
	// Deps can report them in addition to Base: growth of any of THOSE
	// cells must also re-trigger this constraint even though Base itself
	// stopped growing. In FieldUnknown mode a base object can contribute
	// more than one watched cell (every attr(*) it has plus unknown); in
	// named-field mode it contributes exactly one.
	watched map[store.HeapKey]bool
}

// NewLoadAttrConstraint creates a load-attribute constraint ready to
// register with a Scheduler.
func NewLoadAttrConstraint(target, base store.VarKey, field *domain.FieldKey) *LoadAttrConstraint {
	return &LoadAttrConstraint{Target: target, Base: base, Field: field, watched: make(map[store.HeapKey]bool)}
}

func (c *LoadAttrConstraint) Deps() []Cell {
	deps := make([]Cell, 0, len(c.watched)+1)
	deps = append(deps, VarCell(c.Base))
	for k := range c.watched {
		deps = append(deps, HeapCell(k))
	}
	return deps
}

func (c *LoadAttrConstraint) Apply(w *World, _ Scheduler) (bool, []Cell) {
	base := w.Env.Get(c.Base)
	changed := false
	unknown := c.Field.Tag == domain.FieldUnknown
	for _, o := range base.Sorted() {
		if !unknown {
			key := store.HeapKey{Obj: o, Field: c.Field}
			c.watched[key] = true
			if _, grew := w.Env.Join(c.Target, w.Heap.Get(key)); grew {
				changed = true
			}
			continue
		}
		for _, hk := range w.Heap.Keys() {
			if hk.Obj != o || (hk.Field.Tag != domain.FieldAttr && hk.Field.Tag != domain.FieldUnknown) {
				continue
			}
			c.watched[hk] = true
			if _, grew := w.Env.Join(c.Target, w.Heap.Get(hk)); grew {
				changed = true
			}
		}
	}
	if base.IsTop() {
		// An unresolved base under ⊤ soundly forces the target to ⊤ too:
		// there is no enumerable object set to read fields from.
		if _, grew := w.Env.Join(c.Target, domain.Top); grew {
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	return true, []Cell{VarCell(c.Target)}
}

// StoreAttrConstraint implements R-stA: for every o∈pt(Base),
// H[o,Field] ⊇ pt(Source).
type StoreAttrConstraint struct {
	Base   store.VarKey
	Field  *domain.FieldKey
	Source store.VarKey
}

func (c *StoreAttrConstraint) Deps() []Cell {
	return []Cell{VarCell(c.Base), VarCell(c.Source)}
}

func (c *StoreAttrConstraint) Apply(w *World, _ Scheduler) (bool, []Cell) {
	base := w.Env.Get(c.Base)
	src := w.Env.Get(c.Source)
	if src.Len() == 0 && !src.IsTop() {
		return false, nil
	}
	changed := false
	var written []Cell
	for _, o := range base.Sorted() {
		key := store.HeapKey{Obj: o, Field: c.Field}
		_, grew := w.Heap.Join(key, src)
		if grew {
			changed = true
			written = append(written, HeapCell(key))
		}
	}
	return changed, written
}

// LoadSubscrConstraint implements R-ldS: pt(Target) ⊇ ⋃_{o∈pt(Base)}
// H[o, elem-or-value].
type LoadSubscrConstraint struct {
	Target store.VarKey
	Base   store.VarKey
	Field  *domain.FieldKey

	// watched holds every heap cell this constraint has read so far, so
	// Deps reports them in addition to Base.
	watched map[store.HeapKey]bool
}

func (c *LoadSubscrConstraint) Deps() []Cell {
	deps := make([]Cell, 0, len(c.watched)+1)
	deps = append(deps, VarCell(c.Base))
	for k := range c.watched {
		deps = append(deps, HeapCell(k))
	}
	return deps
}

func (c *LoadSubscrConstraint) Apply(w *World, _ Scheduler) (bool, []Cell) {
	if c.watched == nil {
		c.watched = make(map[store.HeapKey]bool)
	}
	base := w.Env.Get(c.Base)
	changed := false
	for _, o := range base.Sorted() {
		key := store.HeapKey{Obj: o, Field: c.Field}
		c.watched[key] = true
		if _, grew := w.Env.Join(c.Target, w.Heap.Get(key)); grew {
			changed = true
		}
	}
	if base.IsTop() {
		if _, grew := w.Env.Join(c.Target, domain.Top); grew {
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	return true, []Cell{VarCell(c.Target)}
}

// StoreSubscrConstraint implements R-stS: for every o∈pt(Base),
// H[o, elem-or-value] ⊇ pt(Source).
type StoreSubscrConstraint struct {
	Base   store.VarKey
	Field  *domain.FieldKey
	Source store.VarKey
}

func (c *StoreSubscrConstraint) Deps() []Cell {
	return []Cell{VarCell(c.Base), VarCell(c.Source)}
}

func (c *StoreSubscrConstraint) Apply(w *World, _ Scheduler) (bool, []Cell) {
	base := w.Env.Get(c.Base)
	src := w.Env.Get(c.Source)
	if src.Len() == 0 && !src.IsTop() {
		return false, nil
	}
	changed := false
	var written []Cell
	for _, o := range base.Sorted() {
		key := store.HeapKey{Obj: o, Field: c.Field}
		if _, grew := w.Heap.Join(key, src); grew {
			changed = true
			written = append(written, HeapCell(key))
		}
	}
	return changed, written
}
