package constraint

import (
	"github.com/lkgv/PythonStAn-sub002/internal/domain"
	"github.com/lkgv/PythonStAn-sub002/internal/ir"
)

// Constraint is one live rule instance. Deps reports the cells this
// constraint currently reads; the set may grow across calls as the
// constraint discovers new relevant cells (e.g. a field read discovers a
// new base object and starts watching that object's heap cell too) — the
// solver re-registers dependency edges after every Apply, so a constraint
// never needs to pre-declare its full eventual dependency set.
type Constraint interface {
	Deps() []Cell
	// Apply executes the constraint once against the live stores and call
	// graph. changed reports whether any store cell grew; written lists
	// exactly which cells did, so the solver knows which dependents to
	// re-enqueue.
	Apply(w *World, sched Scheduler) (changed bool, written []Cell)
}

// Scheduler is the callback surface a Constraint uses to extend the
// analysis: registering fresh constraints (e.g. a newly bound parameter's
// copy edge), enqueueing a new (function, context) activation, and
// reporting call-site resolution notices.
type Scheduler interface {
	// AddConstraint registers c, schedules it for its first application on
	// the constraint worklist, and returns its arena index.
	AddConstraint(c Constraint) int

	// EnqueueCall schedules constraint generation for fn under ctx, if it
	// has not already run.
	EnqueueCall(fn ir.FuncID, ctx *domain.Context)

	// NoticeParked records that a call site currently has no resolvable
	// callee.
	NoticeParked(site *domain.CallSite, ctx *domain.Context)

	// Notice records a free-form advisory notice.
	Notice(format string, args ...any)

	// MaybeWiden checks the heap store size against the configured
	// threshold and widens the offending kind(s) if exceeded.
	MaybeWiden()
}
