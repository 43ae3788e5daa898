package heap

import (
	"testing"

	"github.com/lkgv/PythonStAn-sub002/internal/domain"
)

func newTestModel(depth int) (*Model, *domain.SiteTable, *domain.ContextTable, *domain.FingerprintTable, *domain.ObjectTable) {
	sites := domain.NewSiteTable()
	fp := domain.NewFingerprintTable()
	ctxTable := domain.NewContextTable(fp.Bottom())
	objs := domain.NewObjectTable()
	return NewModel(depth, objs, fp, ctxTable), sites, ctxTable, fp, objs
}

func TestAllocateDepthZeroMergesReceivers(t *testing.T) {
	m, sites, ctxTable, fp, objs := newTestModel(0)
	site := sites.AllocAt(domain.Pos{File: "m.py", Line: 1, Col: 1}, domain.KindObj)
	recvSite := sites.AllocAt(domain.Pos{File: "m.py", Line: 2, Col: 1}, domain.KindObj)
	recvA := domain.Singleton(objs.Intern(recvSite, ctxTable.Root(), fp.Bottom()))

	o1 := m.Allocate(site, ctxTable.Root(), recvA)
	o2 := m.Allocate(site, ctxTable.Root(), domain.Empty)
	if o1 != o2 {
		t.Fatalf("expected depth-0 allocation to merge across receivers")
	}
}

func TestAllocateDepthOneSeparatesReceivers(t *testing.T) {
	m, sites, ctxTable, fp, objs := newTestModel(1)
	site := sites.AllocAt(domain.Pos{File: "m.py", Line: 1, Col: 1}, domain.KindObj)
	recvSiteA := sites.AllocAt(domain.Pos{File: "m.py", Line: 2, Col: 1}, domain.KindObj)
	recvSiteB := sites.AllocAt(domain.Pos{File: "m.py", Line: 3, Col: 1}, domain.KindObj)
	recvA := domain.Singleton(objs.Intern(recvSiteA, ctxTable.Root(), fp.Bottom()))
	recvB := domain.Singleton(objs.Intern(recvSiteB, ctxTable.Root(), fp.Bottom()))

	o1 := m.Allocate(site, ctxTable.Root(), recvA)
	o2 := m.Allocate(site, ctxTable.Root(), recvB)
	if o1 == o2 {
		t.Fatalf("expected depth-1 allocation to separate distinct receivers")
	}
}

func TestWidenCollapsesFutureAllocations(t *testing.T) {
	m, sites, ctxTable, fp, objs := newTestModel(1)
	site := sites.AllocAt(domain.Pos{File: "m.py", Line: 1, Col: 1}, domain.KindObj)
	recvSiteA := sites.AllocAt(domain.Pos{File: "m.py", Line: 2, Col: 1}, domain.KindObj)
	recvSiteB := sites.AllocAt(domain.Pos{File: "m.py", Line: 3, Col: 1}, domain.KindObj)
	recvA := domain.Singleton(objs.Intern(recvSiteA, ctxTable.Root(), fp.Bottom()))
	recvB := domain.Singleton(objs.Intern(recvSiteB, ctxTable.Root(), fp.Bottom()))

	pre := m.Allocate(site, ctxTable.Root(), recvA)
	m.Widen(domain.KindObj)
	post1 := m.Allocate(site, ctxTable.Root(), recvA)
	post2 := m.Allocate(site, ctxTable.Root(), recvB)

	if post1 != post2 {
		t.Fatalf("expected widened allocations of the same site to collapse to one representative regardless of receiver")
	}
	if pre == post1 {
		t.Fatalf("a pre-widening allocation should remain distinct from the post-widening representative")
	}

	found := false
	for _, k := range m.WidenedKinds() {
		if k == domain.KindObj {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected KindObj to be reported as widened")
	}
}
