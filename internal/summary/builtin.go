// Package summary provides built-in effect summaries for callees that have
// no IR body to analyze (spec.md §4.8): the language's primitive
// functions, container constructors, reflective attribute accessors, and
// names like eval/exec whose effect can't be approximated any tighter
// than the universal ⊤ summary (Fallback), the conservative default that
// never makes the analysis unsound at the cost of precision. A callee
// name that isn't registered here at all is left parked rather than
// routed to Fallback: most unresolved names are forward references still
// awaiting a real binding, and ⊤-ing them eagerly would lose precision
// for no soundness gain.
package summary

import (
	"sort"

	"github.com/lkgv/PythonStAn-sub002/internal/domain"
)

// Args is the argument points-to sets bound at a call resolved to a
// built-in, already separated from the binding policy (spec.md §4.6.1) the
// caller applied: Receiver is the bound-method receiver (nil or empty if
// none),
// Positional is the ordered positional arguments after *args expansion,
// Keyword holds keyword/the **kwargs remainder.
type Args struct {
	Receiver   *domain.PointsToSet
	Positional []*domain.PointsToSet
	Keyword    map[string]*domain.PointsToSet
}

func (a Args) arg(i int) *domain.PointsToSet {
	if i < 0 || i >= len(a.Positional) {
		return domain.Empty
	}
	return a.Positional[i]
}

// AccessKind names a reflective heap operation a summary requests in
// addition to (or instead of) a direct result, since "getattr"/"setattr"
// must route through the unknown field key (Rule I5) on a specific
// object, not just compute a value in isolation.
type AccessKind int

const (
	// AccessNone performs no heap access; Effect.Result (if any) is the
	// whole of the call's contribution.
	AccessNone AccessKind = iota
	// AccessGetUnknown reads, for each object in AccessBase, every
	// attr(*) cell and its FieldUnknown cell, and joins them into the
	// call's target.
	AccessGetUnknown
	// AccessSetUnknown writes AccessValue into FieldUnknown off
	// AccessBase.
	AccessSetUnknown
)

// Effect is what applying a built-in summary to one call contributes:
// a value flowing to the call's target, optionally by way of a fresh
// allocation or a reflective field access the caller must carry out
// against the live heap store (summary itself is pure and store-free).
type Effect struct {
	// Result, when non-nil, joins directly into the call's target cell.
	Result *domain.PointsToSet

	// Allocates, when non-nil, asks the caller to allocate one fresh
	// abstract object of this kind at the call site (via heap.Model) and
	// join it into the target, in addition to Result.
	Allocates *domain.AllocKind

	Access     AccessKind
	AccessBase *domain.PointsToSet // object(s) the reflective access targets
	AccessValue *domain.PointsToSet // value written, for AccessSetUnknown
}

// Builtin computes the effect of one call to a built-in, given its bound
// arguments.
type Builtin func(Args) Effect

func kindPtr(k domain.AllocKind) *domain.AllocKind { return &k }

func identity(a Args) Effect {
	r := a.Receiver
	if r.Len() == 0 && !r.IsTop() {
		r = a.arg(0)
	}
	return Effect{Result: r}
}

func noResult(Args) Effect { return Effect{Result: domain.Empty} }

func constructor(k domain.AllocKind) Builtin {
	return func(Args) Effect { return Effect{Allocates: kindPtr(k)} }
}

func getAttrUnknown(a Args) Effect {
	base := a.Receiver
	if base.Len() == 0 && !base.IsTop() {
		base = a.arg(0)
	}
	return Effect{Access: AccessGetUnknown, AccessBase: base}
}

func setAttrUnknown(a Args) Effect {
	base := a.Receiver
	if base.Len() == 0 && !base.IsTop() {
		base = a.arg(0)
	}
	value := a.arg(len(a.Positional) - 1)
	return Effect{Result: domain.Empty, Access: AccessSetUnknown, AccessBase: base, AccessValue: value}
}

// Table is the canonical primitive-name table, built once per engine run.
type Table struct {
	byName map[string]Builtin
}

// NewTable builds the canonical built-in summary table of spec.md §4.8.
func NewTable() *Table {
	t := &Table{byName: make(map[string]Builtin)}

	// Identity-returning primitives: the iterator protocol and decorator
	// wrappers are assumed to alias the value they wrap, rather than
	// introducing an unmodelled object that would sever the points-to
	// chain.
	for _, name := range []string{"iter", "next", "staticmethod", "classmethod", "super"} {
		t.byName[name] = identity
	}

	// Container constructors: each produces a fresh abstract object of
	// the matching allocation kind.
	t.byName["list"] = constructor(domain.KindList)
	t.byName["tuple"] = constructor(domain.KindTuple)
	t.byName["dict"] = constructor(domain.KindDict)
	t.byName["set"] = constructor(domain.KindSet)
	t.byName["frozenset"] = constructor(domain.KindSet)

	// Reflective attribute accessors: dynamically named, so they must
	// route through the unknown field key rather than a literal attr().
	t.byName["getattr"] = getAttrUnknown
	t.byName["setattr"] = setAttrUnknown

	// eval/exec can construct and run arbitrary code at runtime: their
	// result (and, soundly, anything reachable through it) is approximated
	// by the universal ⊤ summary rather than left to park forever.
	t.byName["eval"] = Fallback
	t.byName["exec"] = Fallback

	// Predicates and primitives whose result carries no trackable
	// identity in this abstract domain: they still consume a call slot
	// so that unresolved lookups don't park, but contribute nothing to
	// any points-to set.
	for _, name := range []string{"len", "isinstance", "issubclass", "callable", "hasattr", "print", "id", "hash", "repr", "str"} {
		t.byName[name] = noResult
	}

	return t
}

// Lookup returns the registered summary for name, if any.
func (t *Table) Lookup(name string) (Builtin, bool) {
	b, ok := t.byName[name]
	return b, ok
}

// Fallback is the universal ⊤ summary, registered for eval/exec: sound,
// maximally conservative, and the only summary that can make
// Effect.Result the universal set. Names not registered in the table are
// not routed to it.
func Fallback(Args) Effect { return Effect{Result: domain.Top} }

// Names returns the registered built-in names in deterministic order, for
// diagnostics and tests.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.byName))
	for n := range t.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
