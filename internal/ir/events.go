// Package ir defines the event-stream contract between the front end (out
// of scope, spec.md §1) and the constraint generator: the tagged event
// table of spec.md §4.5, the per-function parameter policy of spec.md §6,
// and the Adapter interface the solver drives.
package ir

import (
	"github.com/lkgv/PythonStAn-sub002/internal/domain"
	"github.com/lkgv/PythonStAn-sub002/internal/store"
)

// FuncID is the stable identifier of an IR function, used as the function
// component of a call-graph node and of the call/constraint worklists.
type FuncID string

// EventKind discriminates the tagged event union of spec.md §4.5.
type EventKind string

const (
	EventAlloc       EventKind = "alloc"
	EventCopy        EventKind = "copy"
	EventLoadAttr    EventKind = "load_attr"
	EventStoreAttr   EventKind = "store_attr"
	EventLoadSubscr  EventKind = "load_subscr"
	EventStoreSubscr EventKind = "store_subscr"
	EventCall        EventKind = "call"
	EventReturn      EventKind = "return"
	EventRaise       EventKind = "raise"
	EventCatch       EventKind = "catch"
	EventImport      EventKind = "import"
	EventPhi         EventKind = "phi"
)

// ContainerKind distinguishes list/tuple/set (element-keyed) from mapping
// (value-keyed) subscript access, per spec.md §4.6 R-ldS/R-stS.
type ContainerKind string

const (
	ContainerList  ContainerKind = "list"
	ContainerTuple ContainerKind = "tuple"
	ContainerSet   ContainerKind = "set"
	ContainerDict  ContainerKind = "dict"
)

// Event is the common interface of every IR event. Position is carried on
// every event for diagnostics even though the flow-insensitive analysis
// ignores control order.
type Event interface {
	Kind() EventKind
	Position() domain.Pos
}

type base struct {
	Pos domain.Pos
}

func (b base) Position() domain.Pos { return b.Pos }

// AllocEvent: target <- new abstract object of Kind at Site.
type AllocEvent struct {
	base
	Target store.VarID
	AllocK domain.AllocKind
	Site   *domain.AllocSite
}

func (AllocEvent) Kind() EventKind { return EventAlloc }

// CopyEvent: target <- source.
type CopyEvent struct {
	base
	Target store.VarID
	Source store.VarID
}

func (CopyEvent) Kind() EventKind { return EventCopy }

// LoadAttrEvent: target <- base.attr. AttrName == "" with Unknown == true
// means the attribute name is dynamically computed (Rule I5).
type LoadAttrEvent struct {
	base
	Target   store.VarID
	Base     store.VarID
	AttrName string
	Unknown  bool
}

func (LoadAttrEvent) Kind() EventKind { return EventLoadAttr }

// StoreAttrEvent: base.attr <- source.
type StoreAttrEvent struct {
	base
	Base     store.VarID
	AttrName string
	Unknown  bool
	Source   store.VarID
}

func (StoreAttrEvent) Kind() EventKind { return EventStoreAttr }

// LoadSubscrEvent: target <- one element of base.
type LoadSubscrEvent struct {
	base
	Target    store.VarID
	Base      store.VarID
	Container ContainerKind
}

func (LoadSubscrEvent) Kind() EventKind { return EventLoadSubscr }

// StoreSubscrEvent: one element of base <- source.
type StoreSubscrEvent struct {
	base
	Base      store.VarID
	Container ContainerKind
	Source    store.VarID
}

func (StoreSubscrEvent) Kind() EventKind { return EventStoreSubscr }

// Arg is one actual argument of a call: either positional (Name=="") or
// keyword (Name!="").
type Arg struct {
	Name string
	Var  store.VarID
}

// CallEvent: invoke callee with the given receiver/args; Target receives
// the call's result, if any (Target=="" for a discarded result).
type CallEvent struct {
	base
	Site       *domain.CallSite
	Callee     store.VarID
	Receiver   store.VarID // "" if this is not a method/bound call
	HasRecv    bool
	Positional []store.VarID
	Keyword    []Arg
	Target     store.VarID
	HasTarget  bool
}

func (CallEvent) Kind() EventKind { return EventCall }

// ReturnEvent: caller's target at this call site joins Source (caller-side
// half of R-ret lives in the constraint generator; this event marks the
// callee-side return variable). Source=="" models a bare `return` with no
// value.
type ReturnEvent struct {
	base
	Source    store.VarID
	HasSource bool
}

func (ReturnEvent) Kind() EventKind { return EventReturn }

// RaiseEvent: the raised object is routed to the enclosing handler's
// capture variable (modelled by the solver joining Source into every
// reachable CatchEvent's Target within the same function).
type RaiseEvent struct {
	base
	Source store.VarID
}

func (RaiseEvent) Kind() EventKind { return EventRaise }

// CatchEvent: target <- points-to set of currently-raised objects
// propagated into this handler.
type CatchEvent struct {
	base
	Target store.VarID
}

func (CatchEvent) Kind() EventKind { return EventCatch }

// ImportEvent: target <- module object for ModuleName.
type ImportEvent struct {
	base
	Target     store.VarID
	ModuleName string
}

func (ImportEvent) Kind() EventKind { return EventImport }

// PhiEvent: target joins all sources (CFG-merge points).
type PhiEvent struct {
	base
	Target  store.VarID
	Sources []store.VarID
}

func (PhiEvent) Kind() EventKind { return EventPhi }
