package results

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/lkgv/PythonStAn-sub002/internal/callgraph"
	"github.com/lkgv/PythonStAn-sub002/internal/diag"
	"github.com/lkgv/PythonStAn-sub002/internal/domain"
	"github.com/lkgv/PythonStAn-sub002/internal/ir"
	"github.com/lkgv/PythonStAn-sub002/internal/store"
)

func buildFixture(t *testing.T) (Results, *domain.AbstractObject) {
	t.Helper()
	ft := domain.NewFingerprintTable()
	ct := domain.NewContextTable(ft.Bottom())
	objs := domain.NewObjectTable()
	sites := domain.NewSiteTable()

	site := sites.AllocAt(domain.Pos{File: "m.py", Line: 1, Col: 1}, domain.KindObj)
	obj := objs.Intern(site, ct.Root(), ft.Bottom())

	env := store.NewEnvStore()
	xKey := store.VarKey{Var: "x", Ctx: ct.Root()}
	env.Join(xKey, domain.Singleton(obj))

	cs := sites.CallAt(domain.Pos{File: "m.py", Line: 2, Col: 1})
	graph := callgraph.NewGraph()
	graph.AddEdge(ct.Root(), cs, ct.Root(), ir.FuncID("f"))

	sink := diag.NewSink()
	sink.Notice("parked call at %s", cs)
	sink.Report(&diag.Diagnostic{Class: diag.ClassAdapter, Message: "bad event"})

	stats := Stats{ConstraintCount: 3, AppliedCount: 2, ActivationCount: 1, AllocSites: 1, CallSites: 1, Objects: 1, ContextsInterned: 1}
	return Build(env, graph, sink, stats, false, []store.VarKey{xKey}), obj
}

func TestBuildPopulatesPointsToAndCallGraph(t *testing.T) {
	res, obj := buildFixture(t)
	if len(res.PointsTo) != 1 {
		t.Fatalf("expected exactly one points-to entry, got %d", len(res.PointsTo))
	}
	entry := res.PointsTo[0]
	if entry.Var != "x" || len(entry.Objects) != 1 || entry.Objects[0] != obj.String() {
		t.Fatalf("unexpected points-to entry: %+v", entry)
	}
	if len(res.CallGraph) != 1 || res.CallGraph[0].Callee != "f" {
		t.Fatalf("unexpected call graph: %+v", res.CallGraph)
	}
	if len(res.Notices) != 1 || len(res.Errors) != 1 {
		t.Fatalf("expected one notice and one error, got notices=%v errors=%v", res.Notices, res.Errors)
	}
}

func TestToJSONRoundTrips(t *testing.T) {
	res, _ := buildFixture(t)
	raw, err := res.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	var back Results
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshaling rendered JSON failed: %v", err)
	}
	if len(back.PointsTo) != len(res.PointsTo) || len(back.CallGraph) != len(res.CallGraph) {
		t.Fatalf("round-tripped results lost entries: got %+v", back)
	}
}

func TestSummaryIncludesCountersAndNotices(t *testing.T) {
	res, _ := buildFixture(t)
	out := res.Summary()
	if !strings.Contains(out, "constraints:         3") {
		t.Fatalf("expected the summary to report the constraint count, got %q", out)
	}
	if !strings.Contains(out, "1 notice(s):") || !strings.Contains(out, "1 error(s):") {
		t.Fatalf("expected the summary to report notices and errors, got %q", out)
	}
}

func TestSummaryWarnsOnPartialRun(t *testing.T) {
	res, _ := buildFixture(t)
	res.Partial = true
	out := res.Summary()
	if !strings.Contains(out, "did not reach a fixpoint") {
		t.Fatalf("expected a partial-run warning, got %q", out)
	}
}

func TestPointsToForAndCallersOfFilter(t *testing.T) {
	res, _ := buildFixture(t)
	if len(res.PointsToFor("x")) != 1 {
		t.Fatalf("expected PointsToFor(\"x\") to find the entry")
	}
	if len(res.PointsToFor("nonexistent")) != 0 {
		t.Fatalf("expected PointsToFor on an unknown variable to return nothing")
	}
	if len(res.CallersOf("f")) != 1 {
		t.Fatalf("expected CallersOf(\"f\") to find the edge")
	}
	if len(res.CallersOf("g")) != 0 {
		t.Fatalf("expected CallersOf on an unresolved callee to return nothing")
	}
}
