package constraint

import (
	"testing"

	"github.com/lkgv/PythonStAn-sub002/internal/domain"
	"github.com/lkgv/PythonStAn-sub002/internal/heap"
	"github.com/lkgv/PythonStAn-sub002/internal/store"
)

type ruleFixture struct {
	sites   *domain.SiteTable
	fields  *domain.FieldKeyTable
	fingers *domain.FingerprintTable
	ctxTbl  *domain.ContextTable
	objects *domain.ObjectTable
	heapMdl *heap.Model
	env     *store.Store[store.VarKey]
	heapSt  *store.Store[store.HeapKey]
}

func newRuleFixture(objDepth int) *ruleFixture {
	fields := domain.NewFieldKeyTable()
	fingers := domain.NewFingerprintTable()
	ctxTbl := domain.NewContextTable(fingers.Bottom())
	objects := domain.NewObjectTable()
	return &ruleFixture{
		sites:   domain.NewSiteTable(),
		fields:  fields,
		fingers: fingers,
		ctxTbl:  ctxTbl,
		objects: objects,
		heapMdl: heap.NewModel(objDepth, objects, fingers, ctxTbl),
		env:     store.NewEnvStore(),
		heapSt:  store.NewHeapStore(),
	}
}

func (f *ruleFixture) varKey(name string) store.VarKey {
	return store.VarKey{Var: store.VarID(name), Ctx: f.ctxTbl.Root()}
}

func (f *ruleFixture) allocObj(line int, kind domain.AllocKind, recv *domain.PointsToSet) *domain.AbstractObject {
	site := f.sites.AllocAt(domain.Pos{File: "m.py", Line: line, Col: 1}, kind)
	return f.heapMdl.Allocate(site, f.ctxTbl.Root(), recv)
}

func TestCopyConstraintJoinsSourceOnce(t *testing.T) {
	f := newRuleFixture(0)
	src, tgt := f.varKey("x"), f.varKey("y")
	obj := f.allocObj(2, domain.KindObj, domain.Empty)
	f.env.Join(src, domain.Singleton(obj))

	c := &CopyConstraint{Target: tgt, Source: src}
	changed, written := c.Apply(&World{Env: f.env}, nil)
	if !changed || len(written) != 1 {
		t.Fatalf("expected the first Apply to grow the target, got changed=%v written=%v", changed, written)
	}
	if !f.env.Get(tgt).Contains(obj) {
		t.Fatalf("expected pt(y) to contain the source's object")
	}

	changed, _ = c.Apply(&World{Env: f.env}, nil)
	if changed {
		t.Fatalf("expected a second Apply with no new source growth to report no change")
	}
}

func TestAllocConstraintWithoutSelfIsBottomFingerprint(t *testing.T) {
	f := newRuleFixture(1)
	site := f.sites.AllocAt(domain.Pos{File: "m.py", Line: 3, Col: 1}, domain.KindObj)
	tgt := f.varKey("x")
	c := &AllocConstraint{Target: tgt, Site: site, Ctx: f.ctxTbl.Root()}

	w := &World{Env: f.env, HeapModl: f.heapMdl}
	changed, _ := c.Apply(w, nil)
	if !changed {
		t.Fatalf("expected the allocation to grow the target")
	}
	pts := f.env.Get(tgt)
	if pts.Len() != 1 {
		t.Fatalf("expected exactly one allocated object, got %d", pts.Len())
	}
}

func TestAllocConstraintWithSelfTracksReceiverGrowth(t *testing.T) {
	f := newRuleFixture(1)
	site := f.sites.AllocAt(domain.Pos{File: "m.py", Line: 3, Col: 1}, domain.KindObj)
	tgt, self := f.varKey("x"), f.varKey("self")
	c := &AllocConstraint{Target: tgt, Site: site, Ctx: f.ctxTbl.Root(), Self: self, HasSelf: true}

	w := &World{Env: f.env, HeapModl: f.heapMdl}
	changed, _ := c.Apply(w, nil)
	if !changed {
		t.Fatalf("expected a ⊥-fingerprint allocation while the receiver is unresolved")
	}
	if f.env.Get(tgt).Len() != 1 {
		t.Fatalf("expected pt(x) to hold one ⊥-fingerprint object with an unresolved receiver, got %v", f.env.Get(tgt))
	}

	recvObj := f.allocObj(1, domain.KindObj, domain.Empty)
	f.env.Join(self, domain.Singleton(recvObj))

	changed, _ = c.Apply(w, nil)
	if !changed {
		t.Fatalf("expected a refined allocation once the receiver resolves")
	}
	if f.env.Get(tgt).Len() != 2 {
		t.Fatalf("expected the ⊥-fingerprint object plus one receiver-fingerprinted object once the receiver resolves")
	}
}

func TestLoadAttrConstraintGrowsReactivelyAsBaseGrows(t *testing.T) {
	f := newRuleFixture(0)
	base, tgt := f.varKey("b"), f.varKey("t")
	attr := f.fields.Attr("value")

	o1 := f.allocObj(1, domain.KindObj, domain.Empty)
	o2 := f.allocObj(2, domain.KindObj, domain.Empty)
	payload := f.allocObj(3, domain.KindObj, domain.Empty)

	f.env.Join(base, domain.Singleton(o1))
	f.heapSt.Join(store.HeapKey{Obj: o1, Field: attr}, domain.Singleton(payload))

	c := NewLoadAttrConstraint(tgt, base, attr)
	w := &World{Env: f.env, Heap: f.heapSt}
	changed, _ := c.Apply(w, nil)
	if !changed || !f.env.Get(tgt).Contains(payload) {
		t.Fatalf("expected the first Apply to read o1's attribute")
	}
	deps := c.Deps()
	if len(deps) != 2 {
		t.Fatalf("expected Deps to watch base plus one discovered heap cell, got %d", len(deps))
	}

	// o2 joins the base set later; a reactive LoadAttrConstraint must pick
	// it up on the next Apply even though nothing was ever written at
	// o2's attribute cell, and Deps must grow to watch it too.
	f.env.Join(base, domain.Singleton(o2))
	c.Apply(w, nil)
	deps = c.Deps()
	if len(deps) != 3 {
		t.Fatalf("expected Deps to grow to watch o2's heap cell too, got %d", len(deps))
	}
}

func TestStoreAttrConstraintWritesEveryBaseObject(t *testing.T) {
	f := newRuleFixture(0)
	base, src := f.varKey("b"), f.varKey("s")
	attr := f.fields.Attr("value")

	o1 := f.allocObj(1, domain.KindObj, domain.Empty)
	o2 := f.allocObj(2, domain.KindObj, domain.Empty)
	payload := f.allocObj(3, domain.KindObj, domain.Empty)

	f.env.Join(base, domain.Singleton(o1))
	f.env.Join(base, domain.Singleton(o2))
	f.env.Join(src, domain.Singleton(payload))

	c := &StoreAttrConstraint{Base: base, Field: attr, Source: src}
	w := &World{Env: f.env, Heap: f.heapSt}
	changed, written := c.Apply(w, nil)
	if !changed || len(written) != 2 {
		t.Fatalf("expected both base objects' heap cells to be written, got changed=%v written=%v", changed, written)
	}
	if !f.heapSt.Get(store.HeapKey{Obj: o1, Field: attr}).Contains(payload) {
		t.Fatalf("expected o1's attribute to contain the stored payload")
	}
	if !f.heapSt.Get(store.HeapKey{Obj: o2, Field: attr}).Contains(payload) {
		t.Fatalf("expected o2's attribute to contain the stored payload")
	}
}

func TestLoadAttrConstraintUnknownFieldUnionsEveryKnownAttr(t *testing.T) {
	f := newRuleFixture(0)
	base, tgt := f.varKey("o"), f.varKey("r")
	attrX := f.fields.Attr("x")
	attrY := f.fields.Attr("y")
	unknown := f.fields.Unknown()

	o := f.allocObj(1, domain.KindObj, domain.Empty)
	cx := f.allocObj(2, domain.KindObj, domain.Empty)
	cy := f.allocObj(3, domain.KindObj, domain.Empty)

	f.env.Join(base, domain.Singleton(o))
	f.heapSt.Join(store.HeapKey{Obj: o, Field: attrX}, domain.Singleton(cx))
	f.heapSt.Join(store.HeapKey{Obj: o, Field: attrY}, domain.Singleton(cy))

	// A dynamically-named read (getattr(o, n)) must see both statically
	// named stores, not just whatever landed in the unknown cell.
	c := NewLoadAttrConstraint(tgt, base, unknown)
	w := &World{Env: f.env, Heap: f.heapSt}
	changed, _ := c.Apply(w, nil)
	if !changed {
		t.Fatalf("expected the unknown-field read to grow the target")
	}
	pts := f.env.Get(tgt)
	if !pts.Contains(cx) || !pts.Contains(cy) {
		t.Fatalf("expected pt(r) to union every known attr of o, got %v", pts)
	}
}

func TestLoadAndStoreSubscrConstraintsRoundTrip(t *testing.T) {
	f := newRuleFixture(0)
	base, src, tgt := f.varKey("l"), f.varKey("s"), f.varKey("e")
	elem := f.fields.Elem()

	listObj := f.allocObj(1, domain.KindList, domain.Empty)
	item := f.allocObj(2, domain.KindObj, domain.Empty)

	f.env.Join(base, domain.Singleton(listObj))
	f.env.Join(src, domain.Singleton(item))

	w := &World{Env: f.env, Heap: f.heapSt}
	storeC := &StoreSubscrConstraint{Base: base, Field: elem, Source: src}
	if changed, _ := storeC.Apply(w, nil); !changed {
		t.Fatalf("expected the store-subscript to grow the list's element cell")
	}

	load := &LoadSubscrConstraint{Target: tgt, Base: base, Field: elem}
	if changed, _ := load.Apply(w, nil); !changed {
		t.Fatalf("expected the load-subscript to grow the target")
	}
	if !f.env.Get(tgt).Contains(item) {
		t.Fatalf("expected pt(e) to contain the stored element")
	}
}
