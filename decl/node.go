package decl

import "strings"

// Node is one element of a declaration tree.
//
// The set of implementations is closed, every Node is one of
// NamedType, Qualified, PointerTo, ArrayOf, FunctionReturning,
// Field, Aggregate or Unrecognized.
type Node interface {
	declNode()
}

// Type qualifiers. A Qualifiers value is a set, duplicates collapse.
type Qualifiers uint8

const (
	Const Qualifiers = 1 << iota
	Volatile
)

var qualifierNames = [...]struct {
	q    Qualifiers
	name string
}{
	{Const, "const"},
	{Volatile, "volatile"},
}

func (q Qualifiers) String() string {
	var parts []string
	for _, qn := range qualifierNames {
		if q&qn.q != 0 {
			parts = append(parts, qn.name)
		}
	}
	return strings.Join(parts, " ")
}

// Storage classes. Like Qualifiers this is a set.
type Storage uint8

const (
	Static Storage = 1 << iota
	Extern
	Typedef
	Register
)

var storageNames = [...]struct {
	s    Storage
	name string
}{
	{Static, "static"},
	{Extern, "extern"},
	{Typedef, "typedef"},
	{Register, "register"},
}

func (s Storage) String() string {
	var parts []string
	for _, sn := range storageNames {
		if s&sn.s != 0 {
			parts = append(parts, sn.name)
		}
	}
	return strings.Join(parts, " ")
}

// QualifierByName maps a qualifier keyword to its set member.
func QualifierByName(name string) (Qualifiers, bool) {
	for _, qn := range qualifierNames {
		if qn.name == name {
			return qn.q, true
		}
	}
	return 0, false
}

// StorageByName maps a storage class keyword to its set member.
func StorageByName(name string) (Storage, bool) {
	for _, sn := range storageNames {
		if sn.name == name {
			return sn.s, true
		}
	}
	return 0, false
}

// NamedType is a base type spelled from keywords, e.g. unsigned long,
// or a tag reference such as struct foo.
type NamedType struct {
	Names []string
}

// Qualified applies qualifiers such as const to Inner.
type Qualified struct {
	Qualifiers Qualifiers
	Inner      Node
}

// PointerTo qualifiers apply to the pointer itself, not the pointee.
type PointerTo struct {
	Qualifiers Qualifiers
	Inner      Node
}

// ArrayOf is an array of Elem, unsized as in int a[].
type ArrayOf struct {
	// Length is only meaningful when Sized is set.
	Length uint64
	Sized  bool
	Elem   Node
}

// FunctionReturning is a function type taking Params.
type FunctionReturning struct {
	// Params are usually *Field with possibly empty names.
	Params   []Node
	Variadic bool
	Returns  Node
}

// Field is a single named declaration, a variable, struct member or
// function parameter.
type Field struct {
	Name    string
	Storage Storage
	Type    Node
}

// AggregateKind tells a struct from a union.
type AggregateKind int

const (
	Struct AggregateKind = iota
	Union
)

func (k AggregateKind) String() string {
	if k == Union {
		return "union"
	}
	return "struct"
}

// Aggregate is a struct or union definition. Name is empty for
// anonymous definitions.
type Aggregate struct {
	Kind    AggregateKind
	Name    string
	Members []*Field
}

// Unrecognized stands in for a construct a front end produced that has
// no counterpart in this package, e.g. a bitfield width. Tag names the
// construct. Explaining one always fails.
type Unrecognized struct {
	Tag string
}

func (*NamedType) declNode()         {}
func (*Qualified) declNode()         {}
func (*PointerTo) declNode()         {}
func (*ArrayOf) declNode()           {}
func (*FunctionReturning) declNode() {}
func (*Field) declNode()             {}
func (*Aggregate) declNode()         {}
func (*Unrecognized) declNode()      {}

// Named is shorthand for a base type built from keywords.
func Named(names ...string) *NamedType {
	return &NamedType{Names: names}
}

// Array returns a sized array of elem.
func Array(length uint64, elem Node) *ArrayOf {
	return &ArrayOf{Length: length, Sized: true, Elem: elem}
}

// UnsizedArray returns an array of elem with no length, e.g. int a[].
func UnsizedArray(elem Node) *ArrayOf {
	return &ArrayOf{Elem: elem}
}

// Pointer returns an unqualified pointer to inner.
func Pointer(inner Node) *PointerTo {
	return &PointerTo{Inner: inner}
}

// Func returns a non variadic function type.
func Func(returns Node, params ...Node) *FunctionReturning {
	return &FunctionReturning{Params: params, Returns: returns}
}
