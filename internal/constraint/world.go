package constraint

import (
	"github.com/lkgv/PythonStAn-sub002/internal/callgraph"
	ctxpkg "github.com/lkgv/PythonStAn-sub002/internal/context"
	"github.com/lkgv/PythonStAn-sub002/internal/diag"
	"github.com/lkgv/PythonStAn-sub002/internal/domain"
	"github.com/lkgv/PythonStAn-sub002/internal/heap"
	"github.com/lkgv/PythonStAn-sub002/internal/ir"
	"github.com/lkgv/PythonStAn-sub002/internal/store"
	"github.com/lkgv/PythonStAn-sub002/internal/summary"
)

// World bundles the shared, solver-wide state every constraint reads or
// writes: the two monotone stores E and H, the interning tables, the
// object and context constructors, the call graph, and the lookup tables
// that turn a resolved callee object back into IR to analyze.
type World struct {
	Env  *store.Store[store.VarKey]
	Heap *store.Store[store.HeapKey]

	Sites    *domain.SiteTable
	Fields   *domain.FieldKeyTable
	Fingers  *domain.FingerprintTable
	HeapModl *heap.Model
	CtxMgr   *ctxpkg.Manager
	Graph    *callgraph.Graph

	Adapter   ir.Adapter
	Functions map[ir.FuncID]*ir.Function

	// CallableIndex maps an allocation site's canonical form, for sites of
	// kind func/method/class, to the FuncID whose body should be analyzed
	// when a callee object at that site is resolved (spec.md §4.6.1). A
	// class-kind site maps to its constructor's FuncID.
	CallableIndex map[string]ir.FuncID

	Builtins *summary.Table
	Diag     *diag.Sink

	ObjDepth int

	// FieldInsensitive, when true, routes every attribute access through
	// FieldUnknown regardless of attribute name (spec.md §6's
	// field_sensitivity = field-insensitive mode).
	FieldInsensitive bool

	// ContainerField maps each container kind to the field key its
	// elements live under (spec.md §6's containers map), overridable from
	// the default list/tuple/set -> elem, dict -> value.
	ContainerField map[ir.ContainerKind]*domain.FieldKey
}

// ReceiverVar returns fn's implicit receiver parameter variable, if fn is
// a method; ok is false for plain functions.
func (w *World) ReceiverVar(fn *ir.Function) (store.VarID, bool) {
	if !fn.IsMethod || len(fn.Params.Positional) == 0 {
		return "", false
	}
	return fn.Params.Positional[0], true
}
