// Package constraint implements the constraint-generation rules of
// spec.md §4.6 (R-alloc, R-copy, R-ldA/R-stA, R-ldS/R-stS, R-call, R-ret,
// R-phi, R-import), the call-site resolution sub-protocol of spec.md
// §4.6.1, and the two-worklist monotone fixpoint solver of spec.md
// §4.6.2.
package constraint

import "github.com/lkgv/PythonStAn-sub002/internal/store"

// CellKind discriminates the two store families a constraint can depend
// on or write to.
type CellKind byte

const (
	CellVar CellKind = iota
	CellHeap
)

// Cell identifies one store location: either an environment cell
// (variable, context) or a heap cell (object, field). It is comparable,
// so it can key the solver's cell->constraint-index adjacency list.
type Cell struct {
	Kind CellKind
	Var  store.VarKey
	Heap store.HeapKey
}

// VarCell builds an environment-store cell reference.
func VarCell(k store.VarKey) Cell { return Cell{Kind: CellVar, Var: k} }

// HeapCell builds a heap-store cell reference.
func HeapCell(k store.HeapKey) Cell { return Cell{Kind: CellHeap, Heap: k} }
