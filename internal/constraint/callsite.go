package constraint

import (
	"github.com/lkgv/PythonStAn-sub002/internal/domain"
	"github.com/lkgv/PythonStAn-sub002/internal/ir"
	"github.com/lkgv/PythonStAn-sub002/internal/store"
	"github.com/lkgv/PythonStAn-sub002/internal/summary"
)

// KeywordArg is one bound keyword actual, already keyed at the caller's
// context.
type KeywordArg struct {
	Name string
	Var  store.VarKey
}

// CallConstraint implements the call-site resolution sub-protocol of
// spec.md §4.6.1: it classifies every object reaching the callee
// expression into function/class/method/builtin/unresolved, binds
// parameters under the policy of spec.md §6, records the call-graph edge,
// and schedules the callee's own constraint generation. It remains
// reactive on the callee and receiver cells so that later-discovered
// callees or receivers (polymorphism resolved mid-fixpoint) are still
// picked up.
type CallConstraint struct {
	CallerFn  ir.FuncID
	CallerCtx *domain.Context
	Site      *domain.CallSite

	CalleeVar   store.VarKey
	HasRecv     bool
	ReceiverVar store.VarKey
	Positional  []store.VarKey
	Keyword     []KeywordArg
	HasTarget   bool
	TargetVar   store.VarKey

	// AmbientSelf is the enclosing function's own receiver variable
	// (if CallerFn is itself a method), used as the object-sensitivity
	// receiver for any instance this call constructs (spec.md §4.2: a
	// `new`-like operation's receiver is the receiver of the method it
	// occurs in, not the call's own receiver).
	AmbientSelf    store.VarKey
	HasAmbientSelf bool

	bound          map[string]bool
	builtinFound   bool
	parkedNotified bool
}

// NewCallConstraint creates a call constraint ready to register with a
// Scheduler.
func NewCallConstraint(callerFn ir.FuncID, callerCtx *domain.Context, site *domain.CallSite) *CallConstraint {
	return &CallConstraint{CallerFn: callerFn, CallerCtx: callerCtx, Site: site, bound: make(map[string]bool)}
}

func (c *CallConstraint) Deps() []Cell {
	deps := make([]Cell, 0, 2+len(c.Positional)+len(c.Keyword))
	deps = append(deps, VarCell(c.CalleeVar))
	if c.HasRecv {
		deps = append(deps, VarCell(c.ReceiverVar))
	}
	if c.builtinFound {
		for _, p := range c.Positional {
			deps = append(deps, VarCell(p))
		}
		for _, k := range c.Keyword {
			deps = append(deps, VarCell(k.Var))
		}
	}
	return deps
}

// classify reports which FuncID object o resolves to as a callee, and
// whether the call is a constructor invocation (o is a class object).
func classify(w *World, o *domain.AbstractObject) (fn ir.FuncID, ok bool, isCtor bool) {
	fn, ok = w.CallableIndex[o.Site.Canonical]
	return fn, ok, ok && o.Site.Kind == domain.KindClass
}

func (c *CallConstraint) bindBuiltinArgs(w *World) summary.Args {
	a := summary.Args{Positional: make([]*domain.PointsToSet, len(c.Positional))}
	if c.HasRecv {
		a.Receiver = w.Env.Get(c.ReceiverVar)
	} else {
		a.Receiver = domain.Empty
	}
	for i, p := range c.Positional {
		a.Positional[i] = w.Env.Get(p)
	}
	if len(c.Keyword) > 0 {
		a.Keyword = make(map[string]*domain.PointsToSet, len(c.Keyword))
		for _, kw := range c.Keyword {
			a.Keyword[kw.Name] = w.Env.Get(kw.Var)
		}
	}
	return a
}

func (c *CallConstraint) applyEffect(w *World, eff summary.Effect) bool {
	changed := false
	if eff.Allocates != nil {
		site := w.Sites.AllocForCall(c.Site, *eff.Allocates)
		obj := w.HeapModl.AllocateContextOnly(site, c.CallerCtx)
		if c.HasTarget {
			if _, grew := w.Env.Join(c.TargetVar, domain.Singleton(obj)); grew {
				changed = true
			}
		}
	}
	if eff.Result != nil && c.HasTarget {
		if _, grew := w.Env.Join(c.TargetVar, eff.Result); grew {
			changed = true
		}
	}
	switch eff.Access {
	case summary.AccessGetUnknown:
		if c.HasTarget {
			// Rule I5/P7: a dynamically-named read (getattr) approximates
			// an object's whole attribute surface, not just its unknown
			// cell — union every attr(*) heap key recorded for the object
			// plus its FieldUnknown cell.
			for _, o := range eff.AccessBase.Sorted() {
				for _, hk := range w.Heap.Keys() {
					if hk.Obj != o || (hk.Field.Tag != domain.FieldAttr && hk.Field.Tag != domain.FieldUnknown) {
						continue
					}
					if _, grew := w.Env.Join(c.TargetVar, w.Heap.Get(hk)); grew {
						changed = true
					}
				}
			}
		}
	case summary.AccessSetUnknown:
		for _, o := range eff.AccessBase.Sorted() {
			key := store.HeapKey{Obj: o, Field: w.Fields.Unknown()}
			if _, grew := w.Heap.Join(key, eff.AccessValue); grew {
				changed = true
			}
		}
	}
	return changed
}

func (c *CallConstraint) Apply(w *World, sched Scheduler) (bool, []Cell) {
	calleePts := w.Env.Get(c.CalleeVar)
	changed := false
	var written []Cell

	if calleePts.Len() == 0 && !calleePts.IsTop() {
		if b, ok := w.Builtins.Lookup(string(c.CalleeVar.Var)); ok {
			c.builtinFound = true
			if c.applyEffect(w, b(c.bindBuiltinArgs(w))) {
				changed = true
				if c.HasTarget {
					written = append(written, VarCell(c.TargetVar))
				}
			}
		} else if !c.parkedNotified {
			sched.NoticeParked(c.Site, c.CallerCtx)
			c.parkedNotified = true
		}
	}

	if calleePts.IsTop() {
		if c.HasTarget {
			if _, grew := w.Env.Join(c.TargetVar, domain.Top); grew {
				changed = true
				written = append(written, VarCell(c.TargetVar))
			}
		}
		return changed, written
	}

	recvFP := w.Fingers.Bottom()
	if c.HasRecv {
		recvFP = w.Fingers.Build(w.Env.Get(c.ReceiverVar), w.ObjDepth)
	}
	calleeCtx := w.CtxMgr.Select(c.CallerCtx, c.Site, recvFP)

	for _, o := range calleePts.Sorted() {
		fn, ok, isCtor := classify(w, o)
		if !ok {
			continue
		}
		info, ok := w.Functions[fn]
		if !ok {
			continue
		}

		w.Graph.AddEdge(c.CallerCtx, c.Site, calleeCtx, fn)

		key := calleeCtx.String() + "|" + string(fn)
		if c.bound[key] {
			continue
		}
		c.bound[key] = true
		changed = true
		sched.EnqueueCall(fn, calleeCtx)

		if isCtor {
			instSite := w.Sites.AllocForCall(c.Site, domain.KindObj)
			ambient := domain.Empty
			if c.HasAmbientSelf {
				ambient = w.Env.Get(c.AmbientSelf)
			}
			instObj := w.HeapModl.Allocate(instSite, calleeCtx, ambient)
			if recvVar, ok := w.ReceiverVar(info); ok {
				selfKey := store.VarKey{Var: recvVar, Ctx: calleeCtx}
				w.Env.Join(selfKey, domain.Singleton(instObj))
			}
			if c.HasTarget {
				if _, grew := w.Env.Join(c.TargetVar, domain.Singleton(instObj)); grew {
					written = append(written, VarCell(c.TargetVar))
				}
			}
		} else if c.HasRecv {
			if recvVar, ok := w.ReceiverVar(info); ok {
				selfKey := store.VarKey{Var: recvVar, Ctx: calleeCtx}
				sched.AddConstraint(&CopyConstraint{Target: selfKey, Source: c.ReceiverVar})
			}
		}

		bindParams(w, sched, info, c.Site, calleeCtx, c.Positional, c.Keyword, isCtor || c.HasRecv)

		if c.HasTarget && info.HasReturn {
			retKey := store.VarKey{Var: info.ReturnVar, Ctx: calleeCtx}
			sched.AddConstraint(&CopyConstraint{Target: c.TargetVar, Source: retKey})
		}
	}

	if !changed {
		return false, nil
	}
	return true, written
}

// bindParams distributes actual arguments to fn's formal parameters under
// the positional/varargs/kwargs/keyword-only policy of spec.md §6.
// skipReceiver is set for method and constructor calls, where formals[0]
// is the implicit receiver already bound separately.
//
// Per spec.md §4.6.1, the *args/**kwargs formals don't receive the
// overflow actuals directly: each binds to a synthetic tuple/dict object,
// one per (call site, callee context), whose elem/value field
// accumulates the excess actuals, so a callee that subscripts *args or
// **kwargs (load_subscr -> elem/value) observes them.
func bindParams(w *World, sched Scheduler, info *ir.Function, site *domain.CallSite, calleeCtx *domain.Context, positional []store.VarKey, keyword []KeywordArg, skipReceiver bool) {
	formals := info.Params.Positional
	if skipReceiver && len(formals) > 0 {
		formals = formals[1:]
	}

	nameIndex := make(map[string]store.VarID, len(formals))
	bound := 0
	for i, f := range formals {
		nameIndex[string(f)] = f
		if i < len(positional) {
			sched.AddConstraint(&CopyConstraint{
				Target: store.VarKey{Var: f, Ctx: calleeCtx},
				Source: positional[i],
			})
			bound++
		}
	}

	if len(positional) > bound {
		extra := positional[bound:]
		if info.Params.HasVarArgs {
			target := store.VarKey{Var: info.Params.VarArgs, Ctx: calleeCtx}
			argsSite := w.Sites.AllocForCall(site, domain.KindTuple)
			argsObj := w.HeapModl.AllocateContextOnly(argsSite, calleeCtx)
			w.Env.Join(target, domain.Singleton(argsObj))
			for _, p := range extra {
				sched.AddConstraint(&StoreAttrConstraint{Base: target, Field: w.Fields.Elem(), Source: p})
			}
		} else {
			sched.Notice("call to %s: %d extra positional argument(s) ignored", info.ID, len(extra))
		}
	} else if len(positional) < len(formals) {
		sched.Notice("call to %s: %d positional argument(s) missing", info.ID, len(formals)-len(positional))
	}

	var kwTarget store.VarKey
	var kwBound bool
	for _, kw := range keyword {
		if f, ok := nameIndex[kw.Name]; ok {
			sched.AddConstraint(&CopyConstraint{Target: store.VarKey{Var: f, Ctx: calleeCtx}, Source: kw.Var})
			continue
		}
		if info.Params.KeywordOnly != nil {
			if f, ok := info.Params.KeywordOnly[kw.Name]; ok {
				sched.AddConstraint(&CopyConstraint{Target: store.VarKey{Var: f, Ctx: calleeCtx}, Source: kw.Var})
				continue
			}
		}
		if info.Params.HasKwArgs {
			if !kwBound {
				kwTarget = store.VarKey{Var: info.Params.KwArgs, Ctx: calleeCtx}
				kwSite := w.Sites.AllocForCall(site, domain.KindDict)
				kwObj := w.HeapModl.AllocateContextOnly(kwSite, calleeCtx)
				w.Env.Join(kwTarget, domain.Singleton(kwObj))
				kwBound = true
			}
			sched.AddConstraint(&StoreAttrConstraint{Base: kwTarget, Field: w.Fields.Value(), Source: kw.Var})
			continue
		}
		sched.Notice("call to %s: unexpected keyword argument %q ignored", info.ID, kw.Name)
	}
}
