package constraint

import (
	gocontext "context"

	"github.com/lkgv/PythonStAn-sub002/internal/domain"
	"github.com/lkgv/PythonStAn-sub002/internal/ir"
)

type callKey struct {
	Fn  ir.FuncID
	Ctx *domain.Context
}

// Solver drives the two-worklist monotone fixpoint of spec.md §4.6.2: a
// call worklist CW of (function, context) activations still needing
// constraint generation, and a constraint worklist XW of already
// registered constraints still needing (re-)application. Both are FIFO
// with duplicate suppression; the solver terminates when both are empty,
// which spec.md's finiteness argument (P3: bounded contexts, I3: bounded
// interning) guarantees happens.
type Solver struct {
	w               *World
	maxHeapWidening int

	arena      []Constraint
	registered []map[Cell]bool
	depsOf     map[Cell][]int

	launched map[callKey]bool
	cw       []callKey

	xw       []int
	xwQueued map[int]bool

	appliedCount int
	widenedKinds map[domain.AllocKind]bool
}

// NewSolver creates a solver over the given shared World. maxHeapWidening
// <= 0 disables widening entirely (an unbounded heap is then a property
// violation the caller should catch via a wall-clock timeout instead).
func NewSolver(w *World, maxHeapWidening int) *Solver {
	return &Solver{
		w:               w,
		maxHeapWidening: maxHeapWidening,
		depsOf:          make(map[Cell][]int),
		launched:        make(map[callKey]bool),
		xwQueued:        make(map[int]bool),
		widenedKinds:    make(map[domain.AllocKind]bool),
	}
}

// AddConstraint implements Scheduler.
func (s *Solver) AddConstraint(c Constraint) int {
	idx := len(s.arena)
	s.arena = append(s.arena, c)
	s.registered = append(s.registered, make(map[Cell]bool))
	s.registerDeps(idx)
	s.enqueueXW(idx)
	return idx
}

func (s *Solver) registerDeps(idx int) {
	for _, cell := range s.arena[idx].Deps() {
		if !s.registered[idx][cell] {
			s.registered[idx][cell] = true
			s.depsOf[cell] = append(s.depsOf[cell], idx)
		}
	}
}

func (s *Solver) enqueueXW(idx int) {
	if s.xwQueued[idx] {
		return
	}
	s.xwQueued[idx] = true
	s.xw = append(s.xw, idx)
}

// EnqueueCall implements Scheduler.
func (s *Solver) EnqueueCall(fn ir.FuncID, ctx *domain.Context) {
	k := callKey{Fn: fn, Ctx: ctx}
	if s.launched[k] {
		return
	}
	s.launched[k] = true
	s.cw = append(s.cw, k)
}

// NoticeParked implements Scheduler.
func (s *Solver) NoticeParked(site *domain.CallSite, ctx *domain.Context) {
	s.w.Diag.Notice("call at %s under %s has no resolvable callee yet", site, ctx)
}

// Notice implements Scheduler.
func (s *Solver) Notice(format string, args ...any) { s.w.Diag.Notice(format, args...) }

// MaybeWiden implements Scheduler: it checks the heap store size against
// the configured threshold and, once exceeded, permanently widens every
// allocation kind currently present that has not already been widened
// (spec.md §4.6.2's widening trigger).
func (s *Solver) MaybeWiden() {
	if s.maxHeapWidening <= 0 || s.w.Heap.Size() <= s.maxHeapWidening {
		return
	}
	seen := make(map[domain.AllocKind]bool)
	for _, k := range s.w.Heap.Keys() {
		kind := k.Obj.Site.Kind
		if seen[kind] || s.widenedKinds[kind] {
			continue
		}
		seen[kind] = true
		s.widenedKinds[kind] = true
		s.w.HeapModl.Widen(kind)
		s.w.Diag.Notice("heap store exceeded %d entries: widened allocation kind %q", s.maxHeapWidening, kind)
	}
}

// Run drains CW and XW to a fixpoint, starting from entry running under
// root. It returns true if gocontext's deadline/cancellation cut the run
// short (spec.md §7's Resource error class, surfaced by the caller as
// results.Partial).
func (s *Solver) Run(cctx gocontext.Context, entry []ir.FuncID, root *domain.Context) bool {
	for _, fn := range entry {
		s.EnqueueCall(fn, root)
	}
	for len(s.cw) > 0 || len(s.xw) > 0 {
		select {
		case <-cctx.Done():
			return true
		default:
		}

		if len(s.cw) > 0 {
			k := s.cw[0]
			s.cw = s.cw[1:]
			Generate(k.Fn, k.Ctx, s.w, s)
			continue
		}

		idx := s.xw[0]
		s.xw = s.xw[1:]
		delete(s.xwQueued, idx)

		changed, written := s.arena[idx].Apply(s.w, s)
		s.appliedCount++
		s.registerDeps(idx)
		if changed {
			for _, cell := range written {
				for _, dep := range s.depsOf[cell] {
					s.enqueueXW(dep)
				}
			}
			s.MaybeWiden()
		}
	}
	return false
}

// Stats reports solver bookkeeping counters used by the results summary.
type Stats struct {
	ConstraintCount int
	AppliedCount    int
	ActivationCount int
}

// Stats returns the current solver bookkeeping counters.
func (s *Solver) Stats() Stats {
	return Stats{
		ConstraintCount: len(s.arena),
		AppliedCount:    s.appliedCount,
		ActivationCount: len(s.launched),
	}
}
