package domain

import (
	"fmt"
	"hash/fnv"
	"path/filepath"
	"strings"
)

// AllocKind tags the syntactic construct that produced an allocation site,
// per spec.md §3 ("Allocation site").
type AllocKind string

const (
	KindObj      AllocKind = "obj"
	KindList     AllocKind = "list"
	KindTuple    AllocKind = "tuple"
	KindDict     AllocKind = "dict"
	KindSet      AllocKind = "set"
	KindFunc     AllocKind = "func"
	KindClass    AllocKind = "class"
	KindExc      AllocKind = "exc"
	KindMethod   AllocKind = "method"
	KindGenFrame AllocKind = "genframe"
	KindModule   AllocKind = "module"
)

// Pos is a source position as reported by the IR. A zero Line means "no
// stable position available", triggering the fallback id form.
type Pos struct {
	File string
	Line int
	Col  int
}

// stableHash computes the deterministic 32-bit digest spec.md §3 calls for
// in the fallback allocation/call-site id form. It must depend only on the
// given string, never on memory addresses or map iteration order.
func stableHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

func fileStem(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// AllocSite is the immutable, interned identifier for a creation point in
// the IR (spec.md §3). Two sites are equal iff their Canonical strings are
// equal.
type AllocSite struct {
	Canonical string
	Kind      AllocKind
}

func (s *AllocSite) String() string { return s.Canonical }

// SiteTable interns allocation sites and call sites for one engine run.
type SiteTable struct {
	allocs *Interner[AllocSite]
	calls  *Interner[CallSite]
}

// NewSiteTable creates an empty, engine-owned site table.
func NewSiteTable() *SiteTable {
	return &SiteTable{
		allocs: NewInterner[AllocSite](),
		calls:  NewInterner[CallSite](),
	}
}

// AllocAt interns the allocation site at pos with the given kind, using
// the preferred "<file>:<line>:<col>:<kind>" form.
func (t *SiteTable) AllocAt(pos Pos, kind AllocKind) *AllocSite {
	canon := fmt.Sprintf("%s:%d:%d:%s", pos.File, pos.Line, pos.Col, kind)
	return t.allocs.Intern(canon, func() *AllocSite {
		return &AllocSite{Canonical: canon, Kind: kind}
	})
}

// AllocFallback interns an allocation site using the fallback form when no
// stable position is available: "<file-stem>:<op>:<stable-hash>", the hash
// computed over uniqueIRID.
func (t *SiteTable) AllocFallback(file, op, uniqueIRID string, kind AllocKind) *AllocSite {
	canon := fmt.Sprintf("%s:%s:%d", fileStem(file), op, stableHash(uniqueIRID))
	return t.allocs.Intern(canon, func() *AllocSite {
		return &AllocSite{Canonical: canon, Kind: kind}
	})
}

// CallSite is the immutable, interned identifier for a call expression in
// the IR (spec.md §3).
type CallSite struct {
	Canonical string
}

func (s *CallSite) String() string { return s.Canonical }

// CallAt interns the call site at pos, using "<file>:<line>:<col>:call".
func (t *SiteTable) CallAt(pos Pos) *CallSite {
	canon := fmt.Sprintf("%s:%d:%d:call", pos.File, pos.Line, pos.Col)
	return t.calls.Intern(canon, func() *CallSite {
		return &CallSite{Canonical: canon}
	})
}

// CallFallback interns a call site using the fallback form.
func (t *SiteTable) CallFallback(file, uniqueIRID string) *CallSite {
	canon := fmt.Sprintf("%s:call:%d", fileStem(file), stableHash(uniqueIRID))
	return t.calls.Intern(canon, func() *CallSite {
		return &CallSite{Canonical: canon}
	})
}

// AllocForCall interns the instance-allocation site implied by a
// constructor call `Class(...)`: the call site itself, tagged with kind
// (normally KindObj), since the IR's event table has no distinct
// "construct" event — constructing an instance is modelled as a call
// whose callee resolves to a class object (spec.md §4.6.1).
func (t *SiteTable) AllocForCall(cs *CallSite, kind AllocKind) *AllocSite {
	canon := cs.Canonical + ":" + string(kind)
	return t.allocs.Intern(canon, func() *AllocSite {
		return &AllocSite{Canonical: canon, Kind: kind}
	})
}

// NumAllocSites reports the number of distinct interned allocation sites.
func (t *SiteTable) NumAllocSites() int { return t.allocs.Len() }

// NumCallSites reports the number of distinct interned call sites.
func (t *SiteTable) NumCallSites() int { return t.calls.Len() }
