package domain

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Fingerprint is the ordered, depth-limited digest of a receiver's
// points-to set used by object-sensitivity (spec.md §3). FingerprintTable.Bottom
// returns the unique ⊥ fingerprint used at object-sensitivity depth 0, or when
// a receiver is unresolved.
type Fingerprint struct {
	bottom bool
	// members is sorted by the referenced object's Seq, ascending, so
	// that two fingerprints built from the same underlying point-to set
	// are canonically identical regardless of iteration order.
	members []fingerprintMember
}

type fingerprintMember struct {
	obj *AbstractObject
	sub *Fingerprint
}

// IsBottom reports whether this is the ⊥ fingerprint.
func (f *Fingerprint) IsBottom() bool { return f == nil || f.bottom }

func (f *Fingerprint) canonical() string {
	if f.IsBottom() {
		return "_"
	}
	parts := make([]string, len(f.members))
	for i, m := range f.members {
		parts[i] = fmt.Sprintf("%d/%s", m.obj.Seq, m.sub.canonical())
	}
	return "<" + strings.Join(parts, ",") + ">"
}

func (f *Fingerprint) String() string { return f.canonical() }

// FingerprintTable interns fingerprints for one engine run.
type FingerprintTable struct {
	in     *Interner[Fingerprint]
	bottom *Fingerprint
}

// NewFingerprintTable creates an engine-owned fingerprint table with the
// canonical ⊥ fingerprint pre-interned.
func NewFingerprintTable() *FingerprintTable {
	t := &FingerprintTable{in: NewInterner[Fingerprint]()}
	t.bottom = t.in.Intern("_", func() *Fingerprint { return &Fingerprint{bottom: true} })
	return t
}

// Bottom returns the canonical ⊥ fingerprint.
func (t *FingerprintTable) Bottom() *Fingerprint { return t.bottom }

// Build constructs the fingerprint for a receiver points-to set at the
// given object-sensitivity depth, per spec.md §4.2's algorithm:
//   - depth 0, or an empty receiver set, yields ⊥ (conservative merge).
//   - depth d >= 1 yields the ordered tuple of receiver object ids
//     (sorted by Seq), each paired with its own fingerprint truncated to
//     depth d-1.
func (t *FingerprintTable) Build(receivers *PointsToSet, depth int) *Fingerprint {
	if depth <= 0 || receivers == nil || receivers.Len() == 0 {
		return t.bottom
	}
	var truncate func(fp *Fingerprint, d int) *Fingerprint
	truncate = func(fp *Fingerprint, d int) *Fingerprint {
		if d <= 0 || fp.IsBottom() {
			return t.bottom
		}
		ms := make([]fingerprintMember, len(fp.members))
		for i, m := range fp.members {
			ms[i] = fingerprintMember{obj: m.obj, sub: truncate(m.sub, d-1)}
		}
		f := &Fingerprint{members: ms}
		return t.in.Intern(f.canonical(), func() *Fingerprint { return f })
	}
	objs := receivers.Sorted()
	members := make([]fingerprintMember, len(objs))
	for i, o := range objs {
		members[i] = fingerprintMember{obj: o, sub: truncate(o.Fingerprint, depth-1)}
	}
	// members is already sorted by Seq because Sorted() is.
	canon := func() string {
		parts := make([]string, len(members))
		for i, m := range members {
			parts[i] = fmt.Sprintf("%d/%s", m.obj.Seq, m.sub.canonical())
		}
		return "<" + strings.Join(parts, ",") + ">"
	}()
	return t.in.Intern(canon, func() *Fingerprint { return &Fingerprint{members: members} })
}

// AbstractObject is the interned triple (alloc_site, alloc_context,
// receiver_fingerprint) of spec.md §3. Seq is assigned in first-intern
// order and is the canonical basis for deterministic iteration and for
// sorting receiver object ids when building fingerprints.
type AbstractObject struct {
	Site        *AllocSite
	Ctx         *Context
	Fingerprint *Fingerprint
	Seq         int
}

func (o *AbstractObject) String() string {
	return fmt.Sprintf("(%s, %s, %s)", o.Site, o.Ctx, o.Fingerprint)
}

func objectCanonical(site *AllocSite, ctx *Context, fp *Fingerprint) string {
	return site.Canonical + "|" + ctx.String() + "|" + fp.canonical()
}

// ObjectTable interns abstract objects for one engine run.
type ObjectTable struct {
	mu   sync.Mutex
	in   *Interner[AbstractObject]
	next int
}

// NewObjectTable creates an empty, engine-owned object table.
func NewObjectTable() *ObjectTable {
	return &ObjectTable{in: NewInterner[AbstractObject]()}
}

// Intern returns the canonical abstract object for (site, ctx, fp).
func (t *ObjectTable) Intern(site *AllocSite, ctx *Context, fp *Fingerprint) *AbstractObject {
	canon := objectCanonical(site, ctx, fp)
	return t.in.Intern(canon, func() *AbstractObject {
		t.mu.Lock()
		seq := t.next
		t.next++
		t.mu.Unlock()
		return &AbstractObject{Site: site, Ctx: ctx, Fingerprint: fp, Seq: seq}
	})
}

// Len reports the number of distinct interned abstract objects (I3).
func (t *ObjectTable) Len() int { return t.in.Len() }

// sortObjects sorts abstract objects by Seq, ascending, for deterministic
// iteration (P6).
func sortObjects(objs []*AbstractObject) {
	sort.Slice(objs, func(i, j int) bool { return objs[i].Seq < objs[j].Seq })
}
