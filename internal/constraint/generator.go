package constraint

import (
	"github.com/lkgv/PythonStAn-sub002/internal/domain"
	"github.com/lkgv/PythonStAn-sub002/internal/ir"
	"github.com/lkgv/PythonStAn-sub002/internal/store"
)

func fieldForContainer(w *World, k ir.ContainerKind) *domain.FieldKey {
	if f, ok := w.ContainerField[k]; ok {
		return f
	}
	if k == ir.ContainerDict {
		return w.Fields.Value()
	}
	return w.Fields.Elem()
}

func attrField(w *World, name string, unknown bool) *domain.FieldKey {
	if unknown || w.FieldInsensitive {
		return w.Fields.Unknown()
	}
	return w.Fields.Attr(name)
}

// Generate walks fn's event stream once under ctx, turning every event
// into either a one-shot store join (R-import) or a registered, reactive
// Constraint (everything else), per the rules of spec.md §4.6. It is
// invoked exactly once per (fn, ctx) pair the solver's call worklist
// produces.
func Generate(fn ir.FuncID, ctx *domain.Context, w *World, sched Scheduler) {
	info, ok := w.Functions[fn]
	if !ok {
		return
	}
	selfVar, hasSelf := w.ReceiverVar(info)
	var selfKey store.VarKey
	if hasSelf {
		selfKey = store.VarKey{Var: selfVar, Ctx: ctx}
	}
	vk := func(id store.VarID) store.VarKey { return store.VarKey{Var: id, Ctx: ctx} }

	var events []ir.Event
	for e := range w.Adapter.Events(fn) {
		events = append(events, e)
	}

	// Flow-insensitively, a raised object reaches every handler reachable
	// in the same function body (spec.md §4.5): collect catch targets
	// first so raise events can join into all of them regardless of
	// textual order.
	var catchTargets []store.VarKey
	for _, e := range events {
		if ce, ok := e.(ir.CatchEvent); ok {
			catchTargets = append(catchTargets, vk(ce.Target))
		}
	}

	for _, e := range events {
		switch ev := e.(type) {
		case ir.AllocEvent:
			ac := &AllocConstraint{Target: vk(ev.Target), Site: ev.Site, Ctx: ctx}
			if hasSelf {
				ac.Self, ac.HasSelf = selfKey, true
			}
			sched.AddConstraint(ac)

		case ir.CopyEvent:
			sched.AddConstraint(&CopyConstraint{Target: vk(ev.Target), Source: vk(ev.Source)})

		case ir.LoadAttrEvent:
			field := attrField(w, ev.AttrName, ev.Unknown)
			sched.AddConstraint(NewLoadAttrConstraint(vk(ev.Target), vk(ev.Base), field))

		case ir.StoreAttrEvent:
			field := attrField(w, ev.AttrName, ev.Unknown)
			sched.AddConstraint(&StoreAttrConstraint{Base: vk(ev.Base), Field: field, Source: vk(ev.Source)})

		case ir.LoadSubscrEvent:
			sched.AddConstraint(&LoadSubscrConstraint{Target: vk(ev.Target), Base: vk(ev.Base), Field: fieldForContainer(w, ev.Container)})

		case ir.StoreSubscrEvent:
			sched.AddConstraint(&StoreSubscrConstraint{Base: vk(ev.Base), Field: fieldForContainer(w, ev.Container), Source: vk(ev.Source)})

		case ir.CallEvent:
			cc := NewCallConstraint(fn, ctx, ev.Site)
			cc.CalleeVar = vk(ev.Callee)
			if ev.HasRecv {
				cc.HasRecv, cc.ReceiverVar = true, vk(ev.Receiver)
			}
			for _, p := range ev.Positional {
				cc.Positional = append(cc.Positional, vk(p))
			}
			for _, k := range ev.Keyword {
				cc.Keyword = append(cc.Keyword, KeywordArg{Name: k.Name, Var: vk(k.Var)})
			}
			if ev.HasTarget {
				cc.HasTarget, cc.TargetVar = true, vk(ev.Target)
			}
			if hasSelf {
				cc.AmbientSelf, cc.HasAmbientSelf = selfKey, true
			}
			sched.AddConstraint(cc)

		case ir.ReturnEvent:
			// Flow-insensitively, every return statement joins the same
			// per-function return cell; the caller's CallConstraint reads
			// that one cell regardless of which return fired.
			if ev.HasSource && info.HasReturn {
				sched.AddConstraint(&CopyConstraint{Target: vk(info.ReturnVar), Source: vk(ev.Source)})
			}

		case ir.RaiseEvent:
			for _, t := range catchTargets {
				sched.AddConstraint(&CopyConstraint{Target: t, Source: vk(ev.Source)})
			}

		case ir.CatchEvent:
			// Already folded into every RaiseEvent above.

		case ir.ImportEvent:
			site := w.Sites.AllocFallback("<module>", "import", ev.ModuleName, domain.KindModule)
			obj := w.HeapModl.AllocateContextOnly(site, w.CtxMgr.Root())
			w.Env.Join(vk(ev.Target), domain.Singleton(obj))

		case ir.PhiEvent:
			for _, s := range ev.Sources {
				sched.AddConstraint(&CopyConstraint{Target: vk(ev.Target), Source: vk(s)})
			}
		}
	}
}
