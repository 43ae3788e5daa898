// Package callgraph wraps the context-sensitive call-graph store G of
// spec.md §3/§4.7: edges are produced only by the solver, and external
// code may only query them.
package callgraph

import (
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"github.com/lkgv/PythonStAn-sub002/internal/domain"
	"github.com/lkgv/PythonStAn-sub002/internal/ir"
)

// Key identifies one call site as executed from one caller context.
type Key struct {
	CallerCtx *domain.Context
	Site      *domain.CallSite
}

func (k Key) hash() uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(k.CallerCtx.String()))
	_, _ = h.Write([]byte("@"))
	_, _ = h.Write([]byte(k.Site.Canonical))
	return h.Sum64()
}

// Edge is one resolved callee: the callee's context and function id.
type Edge struct {
	CalleeCtx *domain.Context
	Callee    ir.FuncID
}

func (e Edge) String() string { return fmt.Sprintf("%s@%s", e.Callee, e.CalleeCtx) }

// Graph is the monotone call-graph store G. It only grows (I1).
type Graph struct {
	mu      sync.Mutex
	edges   map[Key]map[Edge]struct{}
	byFunc  map[ir.FuncID]map[Key]struct{} // reverse index: callee func -> call sites that reach it
	total   int
}

// NewGraph creates an empty call graph.
func NewGraph() *Graph {
	return &Graph{
		edges:  make(map[Key]map[Edge]struct{}),
		byFunc: make(map[ir.FuncID]map[Key]struct{}),
	}
}

// AddEdge records that, from callerCtx at site, the resolved callee is
// (calleeCtx, fn). Returns whether this edge is new (I1's monotone-growth
// signal).
func (g *Graph) AddEdge(callerCtx *domain.Context, site *domain.CallSite, calleeCtx *domain.Context, fn ir.FuncID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := Key{CallerCtx: callerCtx, Site: site}
	set, ok := g.edges[k]
	if !ok {
		set = make(map[Edge]struct{})
		g.edges[k] = set
	}
	e := Edge{CalleeCtx: calleeCtx, Callee: fn}
	if _, exists := set[e]; exists {
		return false
	}
	set[e] = struct{}{}
	g.total++

	byFn, ok := g.byFunc[fn]
	if !ok {
		byFn = make(map[Key]struct{})
		g.byFunc[fn] = byFn
	}
	byFn[k] = struct{}{}
	return true
}

// EdgesAt returns the edges recorded at (callerCtx, site), in deterministic
// order (sorted by callee function id, then callee context string).
func (g *Graph) EdgesAt(callerCtx *domain.Context, site *domain.CallSite) []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	set := g.edges[Key{CallerCtx: callerCtx, Site: site}]
	out := make([]Edge, 0, len(set))
	for e := range set {
		out = append(out, e)
	}
	sortEdges(out)
	return out
}

// Callees returns every edge originating from callerCtx, across all call
// sites executed in that context.
func (g *Graph) Callees(callerCtx *domain.Context) []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Edge
	for k, set := range g.edges {
		if k.CallerCtx != callerCtx {
			continue
		}
		for e := range set {
			out = append(out, e)
		}
	}
	sortEdges(out)
	return out
}

// Callers returns every call site (across contexts) with an edge into fn.
func (g *Graph) Callers(fn ir.FuncID) []Key {
	g.mu.Lock()
	defer g.mu.Unlock()
	set := g.byFunc[fn]
	out := make([]Key, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		hi, hj := out[i].hash(), out[j].hash()
		if hi != hj {
			return hi < hj
		}
		return out[i].Site.Canonical < out[j].Site.Canonical
	})
	return out
}

// TotalEdges reports the total edge count across all call sites. The
// solver invariant Q2 names is that this always equals the sum of
// per-site edge counts — trivially true here since both are derived from
// the same underlying map, but exposed so tests can assert it against an
// independently recomputed sum.
func (g *Graph) TotalEdges() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.total
}

// PolymorphismCounts reports, for every recorded call site, the number of
// distinct callees resolved there — the call-site polymorphism degree
// used by reporting tools.
func (g *Graph) PolymorphismCounts() map[Key]int {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[Key]int, len(g.edges))
	for k, set := range g.edges {
		out[k] = len(set)
	}
	return out
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Callee != edges[j].Callee {
			return edges[i].Callee < edges[j].Callee
		}
		return edges[i].CalleeCtx.String() < edges[j].CalleeCtx.String()
	})
}
