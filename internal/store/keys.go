package store

import (
	"hash/fnv"

	"github.com/lkgv/PythonStAn-sub002/internal/domain"
)

// VarID is the stable IR identifier of a variable (spec.md §4.5: "Events
// reference variables by stable IR identifiers").
type VarID string

// VarKey is a key into the environment store E: (variable, context).
type VarKey struct {
	Var VarID
	Ctx *domain.Context
}

// HashVarKey hashes a VarKey from its canonical string form.
func HashVarKey(k VarKey) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(string(k.Var)))
	_, _ = h.Write([]byte("@"))
	_, _ = h.Write([]byte(k.Ctx.String()))
	return h.Sum64()
}

// HeapKey is a key into the heap store H: (abstract object, field key).
type HeapKey struct {
	Obj   *domain.AbstractObject
	Field *domain.FieldKey
}

// HashHeapKey hashes a HeapKey from its canonical string form.
func HashHeapKey(k HeapKey) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(k.Obj.String()))
	_, _ = h.Write([]byte("#"))
	_, _ = h.Write([]byte(k.Field.String()))
	return h.Sum64()
}

// NewEnvStore creates the environment store E.
func NewEnvStore() *Store[VarKey] { return New[VarKey](HashVarKey) }

// NewHeapStore creates the heap store H.
func NewHeapStore() *Store[HeapKey] { return New[HeapKey](HashHeapKey) }
