// Package types defines the type descriptors that direct literal parsing
// and the [Registry] that resolves type names, record layouts and
// enumeration tables.
//
// The set of descriptors is closed: [Int], [Float], [String], [Nil] and [Any]
// are predeclared singletons, and [*Vector], [*Struct], [*Class] and [*Enum]
// are constructed for user-defined types. Consumers dispatch with an
// exhaustive type switch over these variants.
package types

import (
	"strings"
)

// Kind identifies the variant of a type descriptor.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindNil
	KindAny
	KindVector
	KindStruct
	KindClass
	KindEnum
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"

	case KindFloat:
		return "float"

	case KindString:
		return "string"

	case KindNil:
		return "nil"

	case KindAny:
		return "any"

	case KindVector:
		return "vector"

	case KindStruct:
		return "struct"

	case KindClass:
		return "class"

	case KindEnum:
		return "enum"

	default:
		return "unknown"
	}
}

// Type is a type descriptor. Implementations are limited to this package.
type Type interface {
	// Kind returns the descriptor variant.
	Kind() Kind
	// String returns the name used for the type in literals and messages.
	String() string

	sealed()
}

// Primitive is the descriptor of a scalar type or the wildcard.
type Primitive struct{ kind Kind }

func (p *Primitive) Kind() Kind     { return p.kind }
func (p *Primitive) String() string { return p.kind.String() }
func (*Primitive) sealed()          {}

// Predeclared descriptors.
var (
	Int    Type = &Primitive{KindInt}
	Float  Type = &Primitive{KindFloat}
	String Type = &Primitive{KindString}
	Nil    Type = &Primitive{KindNil}
	Any    Type = &Primitive{KindAny} // matches every concrete kind
)

// Vector is the descriptor of a heap-allocated homogeneous sequence.
type Vector struct {
	Elem Type
}

// VectorOf returns the descriptor of a vector with elements of type elem.
func VectorOf(elem Type) *Vector { return &Vector{Elem: elem} }

func (*Vector) Kind() Kind       { return KindVector }
func (v *Vector) String() string { return "[" + v.Elem.String() + "]" }
func (*Vector) sealed()          {}

// Enum is an integer type whose values may be written symbolically.
// Table indexes the enumeration table held by the [Registry] that
// created it.
type Enum struct {
	Name  string
	Table int
}

func (*Enum) Kind() Kind       { return KindEnum }
func (e *Enum) String() string { return e.Name }
func (*Enum) sealed()          {}

// Field is a named slot declared by a record type.
type Field struct {
	Name string
	Type Type
}

// Record is implemented by [*Struct] and [*Class].
type Record interface {
	Type

	// Parent returns the record this one extends, or nil.
	Parent() Record
	// Fields returns the fields declared directly by this record, excluding
	// those inherited from its ancestors.
	Fields() []Field

	layout() *record
}

// record holds the layout shared by structs and classes.
type record struct {
	name   string
	parent Record
	fields []Field
}

func (r *record) String() string  { return r.name }
func (r *record) Parent() Record  { return r.parent }
func (r *record) Fields() []Field { return r.fields }
func (r *record) layout() *record { return r }

// Struct is the descriptor of a fixed-arity inline value aggregate. Its
// slots are stored directly in the enclosing aggregate.
type Struct struct{ record }

// NewStruct returns a struct descriptor. Fields may be assigned later with
// [SetLayout] to allow forward references.
func NewStruct(name string, parent Record, fields ...Field) *Struct {
	return &Struct{record{name: name, parent: parent, fields: fields}}
}

func (*Struct) Kind() Kind { return KindStruct }
func (*Struct) sealed()    {}

// Class is the descriptor of a heap-allocated record.
type Class struct{ record }

// NewClass returns a class descriptor. Fields may be assigned later with
// [SetLayout] to allow forward and self references.
func NewClass(name string, parent Record, fields ...Field) *Class {
	return &Class{record{name: name, parent: parent, fields: fields}}
}

func (*Class) Kind() Kind { return KindClass }
func (*Class) sealed()    {}

// SetLayout replaces the parent and declared fields of r.
// It must not be called once r is in use by a parser.
func SetLayout(r Record, parent Record, fields ...Field) {
	l := r.layout()
	l.parent = parent
	l.fields = fields
}

// Base returns the kind a literal must have to satisfy t.
// Enumerations are integers; every other kind is its own base.
func Base(t Type) Kind {
	if t.Kind() == KindEnum {
		return KindInt
	}

	return t.Kind()
}

// IsRecord reports whether t is a struct or class.
func IsRecord(t Type) bool {
	_, ok := t.(Record)

	return ok
}

// Width returns the number of value slots occupied by a value of type t
// when stored inline. A struct occupies the slots of all of its fields,
// including inherited ones; every other type occupies one slot.
func Width(t Type) int {
	s, ok := t.(*Struct)
	if !ok {
		return 1
	}

	return Slots(s)
}

// Slots returns the number of value slots in the layout of r, including
// the slots of its ancestors.
func Slots(r Record) int {
	n := 0

	if p := r.Parent(); p != nil {
		n = Slots(p)
	}

	for _, f := range r.Fields() {
		n += Width(f.Type)
	}

	return n
}

// FieldType returns the type of the field that begins at the given slot of
// r's layout.
//
// Slots declared directly by r are resolved first. A slot below r's own
// fields belongs to an ancestor and is resolved through the nearest
// ancestor that declares it. A slot inside an inline struct field resolves
// to the type at the corresponding slot of that struct, so that callers can
// walk a layout one scalar at a time. The result is false when slot is out
// of range.
func FieldType(r Record, slot int) (Type, bool) {
	if slot < 0 {
		return nil, false
	}

	base := 0
	if p := r.Parent(); p != nil {
		base = Slots(p)
	}

	if slot >= base {
		at := base

		for _, f := range r.Fields() {
			w := Width(f.Type)

			switch {
			case slot == at:
				return f.Type, true

			case slot < at+w:
				return FieldType(f.Type.(*Struct), slot-at)
			}

			at += w
		}

		return nil, false
	}

	return FieldType(r.Parent(), slot)
}

// Describe renders a one-line summary of t including record layouts, e.g.
// "class Circle : Shape { center Point, r float }".
func Describe(t Type) string {
	r, ok := t.(Record)
	if !ok {
		return t.Kind().String() + " " + t.String()
	}

	var sb strings.Builder

	sb.WriteString(t.Kind().String())
	sb.WriteByte(' ')
	sb.WriteString(t.String())

	if p := r.Parent(); p != nil {
		sb.WriteString(" : ")
		sb.WriteString(p.String())
	}

	sb.WriteString(" {")

	for i, f := range r.Fields() {
		if i > 0 {
			sb.WriteByte(',')
		}

		sb.WriteByte(' ')
		sb.WriteString(f.Name)
		sb.WriteByte(' ')
		sb.WriteString(f.Type.String())
	}

	sb.WriteString(" }")

	return sb.String()
}
