// Package engine drives the four-phase lifecycle of one analysis run
// (spec.md §4.9): plan the functions to analyze, initialize the shared
// World, run the solver to a fixpoint (or until cancelled), and collect
// the results.
package engine

import (
	gocontext "context"
	"fmt"
	"sort"

	"github.com/lkgv/PythonStAn-sub002/internal/callgraph"
	"github.com/lkgv/PythonStAn-sub002/internal/config"
	"github.com/lkgv/PythonStAn-sub002/internal/constraint"
	ctxpkg "github.com/lkgv/PythonStAn-sub002/internal/context"
	"github.com/lkgv/PythonStAn-sub002/internal/diag"
	"github.com/lkgv/PythonStAn-sub002/internal/domain"
	"github.com/lkgv/PythonStAn-sub002/internal/heap"
	"github.com/lkgv/PythonStAn-sub002/internal/ir"
	"github.com/lkgv/PythonStAn-sub002/internal/results"
	"github.com/lkgv/PythonStAn-sub002/internal/store"
	"github.com/lkgv/PythonStAn-sub002/internal/summary"
)

// Engine owns one analysis run's tables and world. It is not safe to run
// twice; build a fresh Engine per invocation.
type Engine struct {
	cfg     config.Config
	adapter ir.Adapter

	sites    *domain.SiteTable
	fields   *domain.FieldKeyTable
	fingers  *domain.FingerprintTable
	ctxTable *domain.ContextTable
	objects  *domain.ObjectTable

	world  *constraint.World
	solver *constraint.Solver

	entry   []ir.FuncID
	partial bool
}

// New constructs an engine over the given event-stream adapter and
// configuration. sites must be the same SiteTable the adapter used to
// build the allocation/call sites referenced by its events (e.g. the
// table passed to ir.NewJSONAdapter) — sharing it is what makes
// Results.Stats' site counts, and every AllocSite/CallSite the solver
// creates for constructor calls and module imports, consistent with the
// IR's own sites. It does not yet touch the adapter's functions; call
// Plan next.
func New(adapter ir.Adapter, cfg config.Config, sites *domain.SiteTable) *Engine {
	fields := domain.NewFieldKeyTable()
	fingers := domain.NewFingerprintTable()
	ctxTable := domain.NewContextTable(fingers.Bottom())
	objects := domain.NewObjectTable()

	e := &Engine{
		cfg:      cfg,
		adapter:  adapter,
		sites:    sites,
		fields:   fields,
		fingers:  fingers,
		ctxTable: ctxTable,
		objects:  objects,
	}
	return e
}

// Plan is the engine's first lifecycle phase (spec.md §4.9): it resolves
// which functions to treat as entry points. The flow-insensitive analysis
// has no notion of "the" main function, so entry points are every function
// the adapter lists that is not a method and whose allocation site is of
// kind module (module top-level code), falling back to every function at
// all when none qualifies.
func (e *Engine) Plan() error {
	ids := e.adapter.Functions()
	if len(ids) == 0 {
		return &diag.Diagnostic{Class: diag.ClassConfiguration, Message: "no functions to analyze"}
	}
	var entry []ir.FuncID
	for _, id := range ids {
		info, ok := e.adapter.FunctionInfo(id)
		if !ok {
			return &diag.Diagnostic{Class: diag.ClassAdapter, Message: fmt.Sprintf("function %s listed but has no metadata", id)}
		}
		if !info.IsMethod && info.Site != nil && info.Site.Kind == domain.KindModule {
			entry = append(entry, id)
		}
	}
	if len(entry) == 0 {
		entry = append(entry, ids...)
	}
	sort.Slice(entry, func(i, j int) bool { return entry[i] < entry[j] })
	e.entry = entry
	return nil
}

// EntryPoints returns the function ids Plan selected as entry points.
// Valid only after a successful Plan call.
func (e *Engine) EntryPoints() []ir.FuncID { return e.entry }

// Initialize is the engine's second lifecycle phase: it builds the
// callable index (allocation site -> analyzable function body, spec.md
// §4.6.1) and assembles the shared World every constraint reads and
// writes.
func (e *Engine) Initialize() error {
	functions := make(map[ir.FuncID]*ir.Function, len(e.adapter.Functions()))
	callable := make(map[string]ir.FuncID)
	for _, id := range e.adapter.Functions() {
		info, ok := e.adapter.FunctionInfo(id)
		if !ok {
			return &diag.Diagnostic{Class: diag.ClassAdapter, Message: fmt.Sprintf("function %s listed but has no metadata", id)}
		}
		functions[id] = info
		if info.Site != nil {
			callable[info.Site.Canonical] = id
		}
	}

	containerField := make(map[ir.ContainerKind]*domain.FieldKey, len(e.cfg.Containers))
	for kindName, fieldName := range e.cfg.Containers {
		var fk *domain.FieldKey
		switch fieldName {
		case "elem":
			fk = e.fields.Elem()
		case "value":
			fk = e.fields.Value()
		default:
			return &diag.Diagnostic{Class: diag.ClassConfiguration, Message: fmt.Sprintf("container %q maps to unknown field %q", kindName, fieldName)}
		}
		containerField[ir.ContainerKind(kindName)] = fk
	}

	heapModel := heap.NewModel(e.cfg.ObjDepth, e.objects, e.fingers, e.ctxTable)
	ctxMgr := ctxpkg.NewManager(e.cfg.K, e.ctxTable)

	e.world = &constraint.World{
		Env:              store.NewEnvStore(),
		Heap:             store.NewHeapStore(),
		Sites:            e.sites,
		Fields:           e.fields,
		Fingers:          e.fingers,
		HeapModl:         heapModel,
		CtxMgr:           ctxMgr,
		Graph:            callgraph.NewGraph(),
		Adapter:          e.adapter,
		Functions:        functions,
		CallableIndex:    callable,
		Builtins:         summary.NewTable(),
		Diag:             diag.NewSink(),
		ObjDepth:         e.cfg.ObjDepth,
		FieldInsensitive: e.cfg.FieldSensitivity == config.FieldInsensitive,
		ContainerField:   containerField,
	}
	e.solver = constraint.NewSolver(e.world, e.cfg.MaxHeapWidening)
	return nil
}

// Run is the engine's third lifecycle phase: it drives the solver to a
// fixpoint, honoring the configured timeout (spec.md §7's Resource error
// class). It returns the engine's diagnostics sink's Resource state via
// the returned Results.Partial flag once Results is built.
func (e *Engine) Run(ctx gocontext.Context) error {
	if e.world == nil {
		return &diag.Diagnostic{Class: diag.ClassInternal, Message: "Run called before Initialize"}
	}
	runCtx := ctx
	if d := e.cfg.Timeout(); d > 0 {
		var cancel gocontext.CancelFunc
		runCtx, cancel = gocontext.WithTimeout(ctx, d)
		defer cancel()
	}
	partial := e.solver.Run(runCtx, e.entry, e.world.CtxMgr.Root())
	if partial {
		e.world.Diag.Report(&diag.Diagnostic{Class: diag.ClassResource, Message: "analysis did not reach a fixpoint before the configured timeout"})
	}
	e.partial = partial
	return nil
}

// Results is the engine's fourth lifecycle phase: it assembles the final
// results.Results record from the solver's accumulated state.
func (e *Engine) Results() results.Results {
	stats := e.solver.Stats()
	rs := results.Stats{
		ConstraintCount:  stats.ConstraintCount,
		AppliedCount:     stats.AppliedCount,
		ActivationCount:  stats.ActivationCount,
		AllocSites:       e.sites.NumAllocSites(),
		CallSites:        e.sites.NumCallSites(),
		Objects:          e.objects.Len(),
		ContextsInterned: e.ctxTable.Len(),
	}
	return results.Build(e.world.Env, e.world.Graph, e.world.Diag, rs, e.partial, nil)
}

// Analyze drives all four lifecycle phases in order and returns the final
// results, the convenience path callers with no need to inspect
// intermediate state (e.g. the CLI) should use.
func Analyze(ctx gocontext.Context, adapter ir.Adapter, cfg config.Config, sites *domain.SiteTable) (results.Results, error) {
	e := New(adapter, cfg, sites)
	if err := e.Plan(); err != nil {
		return results.Results{}, err
	}
	if err := e.Initialize(); err != nil {
		return results.Results{}, err
	}
	if err := e.Run(ctx); err != nil {
		return results.Results{}, err
	}
	return e.Results(), nil
}
