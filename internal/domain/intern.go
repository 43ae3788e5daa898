// Package domain implements the abstract domain of the pointer analysis:
// allocation sites, call sites, field keys, contexts, abstract objects, and
// points-to sets. All compound values are interned so that structural
// equality implies pointer equality at runtime (P4).
package domain

import "sync"

// Interner hands out one canonical *T per distinct key string. It is
// engine-owned, never process-global, so that two engine instances never
// share state (see SPEC_FULL.md §9, "Global mutable state").
type Interner[T any] struct {
	mu    sync.Mutex
	table map[string]*T
}

// NewInterner creates an empty interner.
func NewInterner[T any]() *Interner[T] {
	return &Interner[T]{table: make(map[string]*T)}
}

// Intern returns the canonical value for key, constructing it with make on
// first demand. Insertion into a nil table is a programmer error and
// panics, per spec.md §4.1 ("intern table insertion failure is fatal").
func (in *Interner[T]) Intern(key string, make func() *T) *T {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.table == nil {
		panic("domain: Intern called on a zero-value Interner")
	}
	if v, ok := in.table[key]; ok {
		return v
	}
	v := make()
	if v == nil {
		panic("domain: Intern constructor returned nil for key " + key)
	}
	in.table[key] = v
	return v
}

// Len reports the number of distinct interned values, used to enforce
// boundedness (I3) in tests.
func (in *Interner[T]) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.table)
}

// Each calls f for every interned value, in unspecified order. Callers
// that need determinism should sort by the value's own canonical string.
func (in *Interner[T]) Each(f func(key string, v *T)) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for k, v := range in.table {
		f(k, v)
	}
}
