package domain

import "testing"

func TestInternerReturnsCanonicalPointer(t *testing.T) {
	in := NewInterner[AllocSite]()
	a := in.Intern("x", func() *AllocSite { return &AllocSite{Canonical: "x", Kind: KindObj} })
	b := in.Intern("x", func() *AllocSite { return &AllocSite{Canonical: "x", Kind: KindObj} })
	if a != b {
		t.Fatalf("expected the same pointer for the same key, got %p and %p", a, b)
	}
	if in.Len() != 1 {
		t.Fatalf("expected 1 interned value, got %d", in.Len())
	}
}

func TestInternerPanicsOnNilConstructor(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic when the constructor returns nil")
		}
	}()
	in := NewInterner[AllocSite]()
	in.Intern("x", func() *AllocSite { return nil })
}

func TestSiteTableAllocAtIsStableByPosition(t *testing.T) {
	st := NewSiteTable()
	pos := Pos{File: "m.py", Line: 3, Col: 1}
	a := st.AllocAt(pos, KindObj)
	b := st.AllocAt(pos, KindObj)
	if a != b {
		t.Fatalf("expected the same alloc site for the same position, got distinct sites")
	}
	c := st.AllocAt(Pos{File: "m.py", Line: 4, Col: 1}, KindObj)
	if a == c {
		t.Fatalf("expected distinct alloc sites for distinct positions")
	}
}

func TestSiteTableAllocFallbackIsDeterministic(t *testing.T) {
	st1 := NewSiteTable()
	st2 := NewSiteTable()
	a := st1.AllocFallback("m.py", "alloc", "v1", KindObj)
	b := st2.AllocFallback("m.py", "alloc", "v1", KindObj)
	if a.Canonical != b.Canonical {
		t.Fatalf("expected deterministic fallback canonical form across tables, got %q vs %q", a.Canonical, b.Canonical)
	}
}

func TestPointsToSetJoinGrowthSignal(t *testing.T) {
	st := NewSiteTable()
	ft := NewFingerprintTable()
	ctxTable := NewContextTable(ft.Bottom())
	ot := NewObjectTable()
	site := st.AllocAt(Pos{File: "m.py", Line: 1, Col: 1}, KindObj)
	o1 := ot.Intern(site, ctxTable.Root(), ft.Bottom())

	s1 := Singleton(o1)
	s2, grew := s1.Join(s1)
	if grew {
		t.Fatalf("joining a set into itself must not report growth")
	}
	if s2 != s1 {
		t.Fatalf("joining a set into itself should be a no-op returning the same set")
	}

	site2 := st.AllocAt(Pos{File: "m.py", Line: 2, Col: 1}, KindObj)
	o2 := ot.Intern(site2, ctxTable.Root(), ft.Bottom())
	s3, grew := s1.Join(Singleton(o2))
	if !grew {
		t.Fatalf("expected growth when joining a new member")
	}
	if s3.Len() != 2 {
		t.Fatalf("expected 2 members after join, got %d", s3.Len())
	}
	if s1.Len() != 1 {
		t.Fatalf("original set must remain unmodified (immutability), got len %d", s1.Len())
	}
}

func TestPointsToSetTopAbsorbs(t *testing.T) {
	st := NewSiteTable()
	ft := NewFingerprintTable()
	ctxTable := NewContextTable(ft.Bottom())
	ot := NewObjectTable()
	site := st.AllocAt(Pos{File: "m.py", Line: 1, Col: 1}, KindObj)
	o := ot.Intern(site, ctxTable.Root(), ft.Bottom())

	joined, grew := Singleton(o).Join(Top)
	if !joined.IsTop() || !grew {
		t.Fatalf("joining Top into any set must yield Top and report growth")
	}
	joined2, grew2 := Top.Join(Singleton(o))
	if !joined2.IsTop() || grew2 {
		t.Fatalf("joining into Top must remain Top without reporting growth")
	}
}

func TestFingerprintBottomAtDepthZero(t *testing.T) {
	st := NewSiteTable()
	ft := NewFingerprintTable()
	ctxTable := NewContextTable(ft.Bottom())
	ot := NewObjectTable()
	site := st.AllocAt(Pos{File: "m.py", Line: 1, Col: 1}, KindObj)
	recv := Singleton(ot.Intern(site, ctxTable.Root(), ft.Bottom()))

	fp := ft.Build(recv, 0)
	if !fp.IsBottom() {
		t.Fatalf("expected bottom fingerprint at depth 0")
	}
}

func TestFingerprintDistinguishesReceiversAtDepthOne(t *testing.T) {
	st := NewSiteTable()
	ft := NewFingerprintTable()
	ctxTable := NewContextTable(ft.Bottom())
	ot := NewObjectTable()
	siteA := st.AllocAt(Pos{File: "m.py", Line: 1, Col: 1}, KindObj)
	siteB := st.AllocAt(Pos{File: "m.py", Line: 2, Col: 1}, KindObj)
	recvA := Singleton(ot.Intern(siteA, ctxTable.Root(), ft.Bottom()))
	recvB := Singleton(ot.Intern(siteB, ctxTable.Root(), ft.Bottom()))

	fpA := ft.Build(recvA, 1)
	fpB := ft.Build(recvB, 1)
	if fpA == fpB {
		t.Fatalf("expected distinct fingerprints for distinct receiver objects at depth 1")
	}
	if fpA.IsBottom() || fpB.IsBottom() {
		t.Fatalf("expected non-bottom fingerprints at depth 1 with a non-empty receiver")
	}
}

func TestContextCompositeFoldsReceiverAndCallString(t *testing.T) {
	st := NewSiteTable()
	ft := NewFingerprintTable()
	ct := NewContextTable(ft.Bottom())
	ot := NewObjectTable()

	site := st.AllocAt(Pos{File: "m.py", Line: 1, Col: 1}, KindObj)
	recv := Singleton(ot.Intern(site, ct.Root(), ft.Bottom()))
	fp := ft.Build(recv, 1)

	cs := st.CallAt(Pos{File: "m.py", Line: 5, Col: 1})

	c1 := ct.Intern([]*CallSite{cs}, ft.Bottom())
	c2 := ct.Intern([]*CallSite{cs}, fp)
	if c1 == c2 {
		t.Fatalf("contexts with the same call-string but different receiver fingerprints must be distinct")
	}
	if c1.IsRoot() {
		t.Fatalf("a non-empty call-string context must not report IsRoot")
	}
	if ct.Root().Len() != 0 || !ct.Root().Receiver().IsBottom() {
		t.Fatalf("root context must have an empty call-string and bottom receiver")
	}
}
