package domain

import "fmt"

// FieldTag discriminates the field-key union of spec.md §3.
type FieldTag byte

const (
	FieldAttr FieldTag = iota
	FieldElem
	FieldValue
	FieldUnknown
)

func (t FieldTag) String() string {
	switch t {
	case FieldAttr:
		return "attr"
	case FieldElem:
		return "elem"
	case FieldValue:
		return "value"
	case FieldUnknown:
		return "unknown"
	default:
		return "?"
	}
}

// FieldKey is the tagged union describing a heap cell attached to an
// object: a named attribute, a container element, a mapping value, or the
// conservative "unknown" key used for dynamically named access (I5).
type FieldKey struct {
	Tag  FieldTag
	Name string // only meaningful when Tag == FieldAttr
}

func (k *FieldKey) String() string {
	if k.Tag == FieldAttr {
		return fmt.Sprintf("attr(%s)", k.Name)
	}
	return k.Tag.String()
}

func (k *FieldKey) canonical() string {
	if k.Tag == FieldAttr {
		return "attr:" + k.Name
	}
	return k.Tag.String()
}

// FieldKeyTable interns field keys for one engine run.
type FieldKeyTable struct {
	in *Interner[FieldKey]
}

// NewFieldKeyTable creates an empty, engine-owned field-key table.
func NewFieldKeyTable() *FieldKeyTable {
	return &FieldKeyTable{in: NewInterner[FieldKey]()}
}

// Attr interns the attr(name) field key.
func (t *FieldKeyTable) Attr(name string) *FieldKey {
	k := &FieldKey{Tag: FieldAttr, Name: name}
	return t.in.Intern(k.canonical(), func() *FieldKey { return k })
}

// Elem interns the list/tuple/set element field key.
func (t *FieldKeyTable) Elem() *FieldKey {
	k := &FieldKey{Tag: FieldElem}
	return t.in.Intern(k.canonical(), func() *FieldKey { return k })
}

// Value interns the mapping-value field key.
func (t *FieldKeyTable) Value() *FieldKey {
	k := &FieldKey{Tag: FieldValue}
	return t.in.Intern(k.canonical(), func() *FieldKey { return k })
}

// Unknown interns the dynamically-named / reflective field key.
func (t *FieldKeyTable) Unknown() *FieldKey {
	k := &FieldKey{Tag: FieldUnknown}
	return t.in.Intern(k.canonical(), func() *FieldKey { return k })
}

// Len reports the number of distinct interned field keys (I3).
func (t *FieldKeyTable) Len() int { return t.in.Len() }
