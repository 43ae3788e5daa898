package domain

import "strings"

// Context is the analysis context attached to a call-string position: the
// k-limited call-string of spec.md §3/§4.3, paired with the receiver
// fingerprint contributed by object-sensitivity (spec.md §4.2).
//
// spec.md describes the call-string (§4.3) and the receiver fingerprint
// (§4.2/§3) as two independent axes — "method/receiver influence goes
// through object-sensitivity, not through the call string" — but a
// context-sensitive analysis has exactly one place to record "which
// activation of this function are we generating constraints for": the
// context. A method invoked through the same call-string but with two
// different receivers (spec.md §8 scenario S3: f1.make() vs f2.make())
// must still run as two separate activations so that allocations inside
// the method body don't merge across receivers. This implementation
// therefore folds the receiver fingerprint into the Context value itself,
// as a second component alongside the call-string; a non-method call
// always carries the bottom fingerprint, so call-string-only contexts are
// unaffected and spec.md's context-manager algorithm (truncate_right) is
// applied to the call-string component exactly as written. See DESIGN.md
// for the worked justification against S1-S3.
type Context struct {
	sites []*CallSite // call-string, oldest call first
	recv  *Fingerprint
}

// Sites returns the call-string, oldest call first.
func (c *Context) Sites() []*CallSite { return c.sites }

// Len reports the length of the call-string.
func (c *Context) Len() int { return len(c.sites) }

// IsRoot reports whether this is the empty (root) context with no
// object-sensitivity contribution.
func (c *Context) IsRoot() bool { return len(c.sites) == 0 && c.recv.IsBottom() }

// Receiver returns the object-sensitivity fingerprint folded into this
// context.
func (c *Context) Receiver() *Fingerprint { return c.recv }

// String renders the call-string, and appends the receiver fingerprint
// only when it is non-bottom, so that plain k-CFA contexts (spec.md
// scenarios S1/S2) print exactly as their call-string.
func (c *Context) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, s := range c.sites {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s.Canonical)
	}
	sb.WriteByte(']')
	if !c.recv.IsBottom() {
		sb.WriteString("@recv")
		sb.WriteString(c.recv.canonical())
	}
	return sb.String()
}

func contextCanonical(sites []*CallSite, recv *Fingerprint) string {
	var sb strings.Builder
	for i, s := range sites {
		if i > 0 {
			sb.WriteByte('\x1f') // unit separator: call sites never contain it
		}
		sb.WriteString(s.Canonical)
	}
	sb.WriteByte('\x1e') // record separator before the receiver component
	sb.WriteString(recv.canonical())
	return sb.String()
}

// ContextTable interns contexts for one engine run.
type ContextTable struct {
	in   *Interner[Context]
	root *Context
}

// NewContextTable creates an engine-owned context table with the
// canonical root context (empty call-string, bottom receiver)
// pre-interned. bottom must be the engine's FingerprintTable.Bottom().
func NewContextTable(bottom *Fingerprint) *ContextTable {
	t := &ContextTable{in: NewInterner[Context]()}
	t.root = t.Intern(nil, bottom)
	return t
}

// Root returns the canonical empty-call-string, bottom-receiver context.
func (t *ContextTable) Root() *Context { return t.root }

// Intern returns the canonical Context for the given call-string and
// receiver fingerprint. The slice is copied; callers may reuse their
// backing array.
func (t *ContextTable) Intern(sites []*CallSite, recv *Fingerprint) *Context {
	canon := contextCanonical(sites, recv)
	return t.in.Intern(canon, func() *Context {
		cp := make([]*CallSite, len(sites))
		copy(cp, sites)
		return &Context{sites: cp, recv: recv}
	})
}

// Len reports the number of distinct interned contexts (I3, P3).
func (t *ContextTable) Len() int { return t.in.Len() }
