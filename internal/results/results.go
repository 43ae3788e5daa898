// Package results assembles the engine's output record: the points-to
// assignment, the resolved call graph, and the run's diagnostics and
// bookkeeping counters, in the shape spec.md §4.8 describes as "what the
// analysis returns".
package results

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lkgv/PythonStAn-sub002/internal/callgraph"
	"github.com/lkgv/PythonStAn-sub002/internal/diag"
	"github.com/lkgv/PythonStAn-sub002/internal/ir"
	"github.com/lkgv/PythonStAn-sub002/internal/store"
)

// PointsToEntry is one populated (variable, context) cell, expanded for
// reporting: either a finite, sorted list of object descriptions, or Top
// when the cell collapsed to the universal set.
type PointsToEntry struct {
	Var     string   `json:"var"`
	Context string   `json:"context"`
	Objects []string `json:"objects,omitempty"`
	Top     bool     `json:"top,omitempty"`
}

// CallEdge is one resolved call-graph edge, expanded for reporting.
type CallEdge struct {
	CallerContext string `json:"caller_context"`
	Site          string `json:"site"`
	CalleeContext string `json:"callee_context"`
	Callee        string `json:"callee"`
}

// Stats carries the run's bookkeeping counters, surfaced so callers can
// judge how much of the program was actually explored (spec.md §4.6.2's
// finiteness guarantees, made concrete).
type Stats struct {
	ConstraintCount  int `json:"constraint_count"`
	AppliedCount     int `json:"applied_count"`
	ActivationCount  int `json:"activation_count"`
	AllocSites       int `json:"alloc_sites"`
	CallSites        int `json:"call_sites"`
	Objects          int `json:"objects"`
	ContextsInterned int `json:"contexts_interned"`
}

// Results is the complete output of one engine run.
type Results struct {
	PointsTo    []PointsToEntry `json:"points_to"`
	CallGraph   []CallEdge      `json:"call_graph"`
	Stats       Stats           `json:"stats"`
	Partial     bool            `json:"partial"`
	Notices     []string        `json:"notices,omitempty"`
	Errors      []string        `json:"errors,omitempty"`
}

// Build collects the solver's final environment store, call graph, and
// diagnostics sink into a Results record. keys restricts the reported
// points-to cells to the given keys (typically every (var,ctx) pair the
// engine actually produced events for); passing nil reports every key the
// store holds.
func Build(env *store.Store[store.VarKey], graph *callgraph.Graph, sink *diag.Sink, stats Stats, partial bool, keys []store.VarKey) Results {
	if keys == nil {
		keys = env.Keys()
	}
	entries := make([]PointsToEntry, 0, len(keys))
	for _, k := range keys {
		pts := env.Get(k)
		e := PointsToEntry{Var: string(k.Var), Context: k.Ctx.String()}
		if pts.IsTop() {
			e.Top = true
		} else {
			for _, o := range pts.Sorted() {
				e.Objects = append(e.Objects, o.String())
			}
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Var != entries[j].Var {
			return entries[i].Var < entries[j].Var
		}
		return entries[i].Context < entries[j].Context
	})

	edges := make([]CallEdge, 0)
	for fn := range collectCalleeFuncs(graph) {
		for _, k := range graph.Callers(fn) {
			for _, e := range graph.EdgesAt(k.CallerCtx, k.Site) {
				edges = append(edges, CallEdge{
					CallerContext: k.CallerCtx.String(),
					Site:          k.Site.Canonical,
					CalleeContext: e.CalleeCtx.String(),
					Callee:        string(e.Callee),
				})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].CallerContext != edges[j].CallerContext {
			return edges[i].CallerContext < edges[j].CallerContext
		}
		if edges[i].Site != edges[j].Site {
			return edges[i].Site < edges[j].Site
		}
		return edges[i].Callee < edges[j].Callee
	})
	edges = dedupEdges(edges)

	var notices, errs []string
	if sink != nil {
		notices = sink.Notices()
		for _, d := range sink.Errors() {
			errs = append(errs, d.Error())
		}
	}

	return Results{
		PointsTo:  entries,
		CallGraph: edges,
		Stats:     stats,
		Partial:   partial,
		Notices:   notices,
		Errors:    errs,
	}
}

// collectCalleeFuncs walks every edge currently in graph to recover the
// set of callee function ids it mentions. Graph only exposes lookups keyed
// by callee or by (caller,site), so a results build needs to enumerate the
// callees to drive Callers(); this recovers them from the edges returned
// by ranging Callees() would need a caller context, so instead we lean on
// PolymorphismCounts' key set, which already enumerates every (context,
// site) the graph recorded, and pull the callees out of its edges.
func collectCalleeFuncs(graph *callgraph.Graph) map[ir.FuncID]struct{} {
	out := make(map[ir.FuncID]struct{})
	for k := range graph.PolymorphismCounts() {
		for _, e := range graph.EdgesAt(k.CallerCtx, k.Site) {
			out[e.Callee] = struct{}{}
		}
	}
	return out
}

func dedupEdges(edges []CallEdge) []CallEdge {
	out := edges[:0]
	var prev *CallEdge
	for i := range edges {
		e := edges[i]
		if prev != nil && *prev == e {
			continue
		}
		out = append(out, e)
		prev = &edges[i]
	}
	return out
}

// ToJSON renders the results as indented JSON, the machine-readable report
// format spec.md §4.8 names alongside the human summary.
func (r Results) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Summary renders a short human-readable report: counters, a partial-run
// warning if applicable, and the recorded errors and notices, in the
// plain Printf-table style the front end uses for its own compiler
// diagnostics.
func (r Results) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "points-to cells:     %d\n", len(r.PointsTo))
	fmt.Fprintf(&sb, "call edges:          %d\n", len(r.CallGraph))
	fmt.Fprintf(&sb, "constraints:         %d\n", r.Stats.ConstraintCount)
	fmt.Fprintf(&sb, "constraint applies:  %d\n", r.Stats.AppliedCount)
	fmt.Fprintf(&sb, "activations:         %d\n", r.Stats.ActivationCount)
	fmt.Fprintf(&sb, "alloc sites:         %d\n", r.Stats.AllocSites)
	fmt.Fprintf(&sb, "call sites:          %d\n", r.Stats.CallSites)
	fmt.Fprintf(&sb, "objects:             %d\n", r.Stats.Objects)
	fmt.Fprintf(&sb, "contexts interned:   %d\n", r.Stats.ContextsInterned)
	if r.Partial {
		sb.WriteString("\nWARNING: run did not reach a fixpoint (timeout or cancellation); results are a sound under-approximation\n")
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&sb, "\n%d error(s):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "  %s\n", e)
		}
	}
	if len(r.Notices) > 0 {
		fmt.Fprintf(&sb, "\n%d notice(s):\n", len(r.Notices))
		for _, n := range r.Notices {
			fmt.Fprintf(&sb, "  %s\n", n)
		}
	}
	return sb.String()
}

// PointsToFor filters entries down to a single variable name, across all
// contexts it was resolved in — the shape a "where can x point" query
// wants.
func (r Results) PointsToFor(varName string) []PointsToEntry {
	var out []PointsToEntry
	for _, e := range r.PointsTo {
		if e.Var == varName {
			out = append(out, e)
		}
	}
	return out
}

// CallersOf filters the call graph down to edges targeting callee.
func (r Results) CallersOf(callee string) []CallEdge {
	var out []CallEdge
	for _, e := range r.CallGraph {
		if e.Callee == callee {
			out = append(out, e)
		}
	}
	return out
}
