package ir

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/lkgv/PythonStAn-sub002/internal/domain"
	"github.com/lkgv/PythonStAn-sub002/internal/store"
)

// JSONAdapter implements Adapter over the event-stream wire format
// documented in SPEC_FULL.md §4.11: a JSON document with a "functions"
// array, each function carrying its id, name, parameter policy, and an
// ordered "events" array of tagged, heterogeneously-shaped objects.
//
// Because each event's shape depends on its "kind" discriminator — much
// like the dynamically-typed source language this IR was lowered from —
// fields are pulled out with gjson rather than unmarshalled into one
// struct covering every optional field.
type JSONAdapter struct {
	order []FuncID
	funcs map[FuncID]*Function
	evts  map[FuncID][]Event
	sites *domain.SiteTable
}

// NewJSONAdapter parses an IR event-stream document. A malformed function
// or event is reported as an *AdapterError naming the offending function
// and event index; parsing stops at the first such error.
func NewJSONAdapter(data []byte, sites *domain.SiteTable) (*JSONAdapter, error) {
	if !gjson.ValidBytes(data) {
		return nil, &AdapterError{Message: "invalid JSON document"}
	}
	root := gjson.ParseBytes(data)
	a := &JSONAdapter{
		funcs: make(map[FuncID]*Function),
		evts:  make(map[FuncID][]Event),
		sites: sites,
	}

	var parseErr error
	root.Get("functions").ForEach(func(_, fn gjson.Result) bool {
		id := FuncID(fn.Get("id").String())
		if id == "" {
			parseErr = &AdapterError{Message: "function missing \"id\""}
			return false
		}
		info := &Function{ID: id, Name: fn.Get("name").String()}
		params := fn.Get("params")
		params.Get("positional").ForEach(func(_, v gjson.Result) bool {
			info.Params.Positional = append(info.Params.Positional, store.VarID(v.String()))
			return true
		})
		if v := params.Get("var_args"); v.Exists() {
			info.Params.VarArgs = store.VarID(v.String())
			info.Params.HasVarArgs = true
		}
		if v := params.Get("kwargs"); v.Exists() {
			info.Params.KwArgs = store.VarID(v.String())
			info.Params.HasKwArgs = true
		}
		if ko := params.Get("keyword_only"); ko.Exists() {
			info.Params.KeywordOnly = make(map[string]store.VarID)
			ko.ForEach(func(k, v gjson.Result) bool {
				info.Params.KeywordOnly[k.String()] = store.VarID(v.String())
				return true
			})
		}
		if v := fn.Get("return_var"); v.Exists() {
			info.ReturnVar = store.VarID(v.String())
			info.HasReturn = true
		}
		info.IsMethod = fn.Get("is_method").Bool()
		if site := fn.Get("site"); site.Exists() {
			kind := domain.AllocKind(site.Get("kind").String())
			pos := domain.Pos{
				File: site.Get("pos").Get("file").String(),
				Line: int(site.Get("pos").Get("line").Int()),
				Col:  int(site.Get("pos").Get("col").Int()),
			}
			if pos.Line > 0 {
				info.Site = a.sites.AllocAt(pos, kind)
			} else {
				info.Site = a.sites.AllocFallback(pos.File, "alloc", string(id), kind)
			}
		}

		events := make([]Event, 0, fn.Get("events").Get("#").Int())
		var evErr error
		idx := 0
		fn.Get("events").ForEach(func(_, ev gjson.Result) bool {
			e, err := a.parseEvent(id, idx, ev)
			if err != nil {
				evErr = err
				return false
			}
			events = append(events, e)
			idx++
			return true
		})
		if evErr != nil {
			parseErr = evErr
			return false
		}

		a.order = append(a.order, id)
		a.funcs[id] = info
		a.evts[id] = events
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return a, nil
}

func (a *JSONAdapter) parsePos(ev gjson.Result) domain.Pos {
	p := ev.Get("pos")
	return domain.Pos{
		File: p.Get("file").String(),
		Line: int(p.Get("line").Int()),
		Col:  int(p.Get("col").Int()),
	}
}

func (a *JSONAdapter) resolveSite(fn FuncID, idx int, ev gjson.Result, pos domain.Pos, kind domain.AllocKind) *domain.AllocSite {
	if pos.Line > 0 {
		return a.sites.AllocAt(pos, kind)
	}
	uid := ev.Get("uid").String()
	if uid == "" {
		uid = fmt.Sprintf("%s#%d", fn, idx)
	}
	return a.sites.AllocFallback(pos.File, "alloc", uid, kind)
}

func (a *JSONAdapter) resolveCallSite(fn FuncID, idx int, ev gjson.Result, pos domain.Pos) *domain.CallSite {
	if pos.Line > 0 {
		return a.sites.CallAt(pos)
	}
	uid := ev.Get("uid").String()
	if uid == "" {
		uid = fmt.Sprintf("%s#%d", fn, idx)
	}
	return a.sites.CallFallback(pos.File, uid)
}

func varSlice(ev gjson.Result, key string) []store.VarID {
	var out []store.VarID
	ev.Get(key).ForEach(func(_, v gjson.Result) bool {
		out = append(out, store.VarID(v.String()))
		return true
	})
	return out
}

func (a *JSONAdapter) parseEvent(fn FuncID, idx int, ev gjson.Result) (Event, error) {
	kind := EventKind(ev.Get("kind").String())
	pos := a.parsePos(ev)
	b := base{Pos: pos}

	switch kind {
	case EventAlloc:
		allocKind := domain.AllocKind(ev.Get("alloc_kind").String())
		if allocKind == "" {
			return nil, &AdapterError{Function: fn, Index: idx, Message: "alloc event missing alloc_kind"}
		}
		return AllocEvent{
			base:   b,
			Target: store.VarID(ev.Get("target").String()),
			AllocK: allocKind,
			Site:   a.resolveSite(fn, idx, ev, pos, allocKind),
		}, nil

	case EventCopy:
		return CopyEvent{
			base:   b,
			Target: store.VarID(ev.Get("target").String()),
			Source: store.VarID(ev.Get("source").String()),
		}, nil

	case EventLoadAttr:
		name := ev.Get("attr")
		return LoadAttrEvent{
			base:     b,
			Target:   store.VarID(ev.Get("target").String()),
			Base:     store.VarID(ev.Get("base").String()),
			AttrName: name.String(),
			Unknown:  !name.Exists() || name.String() == "",
		}, nil

	case EventStoreAttr:
		name := ev.Get("attr")
		return StoreAttrEvent{
			base:     b,
			Base:     store.VarID(ev.Get("base").String()),
			AttrName: name.String(),
			Unknown:  !name.Exists() || name.String() == "",
			Source:   store.VarID(ev.Get("source").String()),
		}, nil

	case EventLoadSubscr:
		return LoadSubscrEvent{
			base:      b,
			Target:    store.VarID(ev.Get("target").String()),
			Base:      store.VarID(ev.Get("base").String()),
			Container: ContainerKind(ev.Get("container").String()),
		}, nil

	case EventStoreSubscr:
		return StoreSubscrEvent{
			base:      b,
			Base:      store.VarID(ev.Get("base").String()),
			Container: ContainerKind(ev.Get("container").String()),
			Source:    store.VarID(ev.Get("source").String()),
		}, nil

	case EventCall:
		call := CallEvent{
			base:       b,
			Site:       a.resolveCallSite(fn, idx, ev, pos),
			Callee:     store.VarID(ev.Get("callee").String()),
			Positional: varSlice(ev, "positional"),
		}
		if r := ev.Get("receiver"); r.Exists() && r.String() != "" {
			call.Receiver = store.VarID(r.String())
			call.HasRecv = true
		}
		if t := ev.Get("target"); t.Exists() && t.String() != "" {
			call.Target = store.VarID(t.String())
			call.HasTarget = true
		}
		if kw := ev.Get("keyword"); kw.Exists() {
			kw.ForEach(func(k, v gjson.Result) bool {
				call.Keyword = append(call.Keyword, Arg{Name: k.String(), Var: store.VarID(v.String())})
				return true
			})
		}
		return call, nil

	case EventReturn:
		r := ReturnEvent{base: b}
		if s := ev.Get("source"); s.Exists() && s.String() != "" {
			r.Source = store.VarID(s.String())
			r.HasSource = true
		}
		return r, nil

	case EventRaise:
		return RaiseEvent{base: b, Source: store.VarID(ev.Get("source").String())}, nil

	case EventCatch:
		return CatchEvent{base: b, Target: store.VarID(ev.Get("target").String())}, nil

	case EventImport:
		return ImportEvent{
			base:       b,
			Target:     store.VarID(ev.Get("target").String()),
			ModuleName: ev.Get("module").String(),
		}, nil

	case EventPhi:
		return PhiEvent{
			base:    b,
			Target:  store.VarID(ev.Get("target").String()),
			Sources: varSlice(ev, "sources"),
		}, nil

	default:
		return nil, &AdapterError{Function: fn, Index: idx, Message: fmt.Sprintf("unknown event kind %q", kind)}
	}
}

// Functions implements Adapter.
func (a *JSONAdapter) Functions() []FuncID { return a.order }

// FunctionInfo implements Adapter.
func (a *JSONAdapter) FunctionInfo(id FuncID) (*Function, bool) {
	f, ok := a.funcs[id]
	return f, ok
}

// Events implements Adapter.
func (a *JSONAdapter) Events(id FuncID) func(yield func(Event) bool) {
	events := a.evts[id]
	return func(yield func(Event) bool) {
		for _, e := range events {
			if !yield(e) {
				return
			}
		}
	}
}
