// Package value defines the runtime values produced by the literal parser.
package value

import (
	"strconv"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/ardnew/datalit/lang/types"
)

// Kind identifies the variant held by a [Value].
type Kind uint8

const (
	KindNil Kind = iota
	KindInt
	KindFloat
	KindString
	KindObject
	KindStruct
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"

	case KindInt:
		return "int"

	case KindFloat:
		return "float"

	case KindString:
		return "string"

	case KindObject:
		return "object"

	case KindStruct:
		return "struct"

	default:
		return "unknown"
	}
}

// Value is a tagged union over the runtime kinds. Scalars are stored
// inline. Strings and objects reference a heap [Object] whose lifetime is
// managed by the allocator that created it. A struct value packs the
// inline slots of a struct together with its descriptor.
type Value struct {
	kind  Kind
	i     int64
	f     float64
	obj   *Object
	typ   *types.Struct
	slots []Value
}

// Nil returns the nil value.
func Nil() Value { return Value{} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Ref returns a value referencing obj. A string object yields a
// [KindString] value; vectors and records yield [KindObject].
func Ref(obj *Object) Value {
	if obj.kind == ObjString {
		return Value{kind: KindString, obj: obj}
	}

	return Value{kind: KindObject, obj: obj}
}

// Struct returns a value packing the inline slots of a struct of type t.
func Struct(t *types.Struct, slots []Value) Value {
	return Value{kind: KindStruct, typ: t, slots: slots}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v is nil.
func (v Value) IsNil() bool { return v.kind == KindNil }

// Int returns the integer held by v, or 0.
func (v Value) Int() int64 { return v.i }

// Float returns the float held by v, or 0.
func (v Value) Float() float64 { return v.f }

// Str returns the text of a string value, or "".
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}

	return v.obj.str
}

// Object returns the heap object referenced by a string or object value.
func (v Value) Object() *Object { return v.obj }

// StructType returns the descriptor of a struct value.
func (v Value) StructType() *types.Struct { return v.typ }

// Slots returns the inline slots of a struct value.
func (v Value) Slots() []Value { return v.slots }

// Negate returns the arithmetic negation of an int or float value.
// The result is false for every other kind.
func (v Value) Negate() (Value, bool) {
	switch v.kind {
	case KindInt:
		return Int(-v.i), true

	case KindFloat:
		return Float(-v.f), true

	default:
		return v, false
	}
}

// String renders v for diagnostics.
func (v Value) String() string {
	var sb strings.Builder

	v.write(&sb)

	return sb.String()
}

func (v Value) write(sb *strings.Builder) {
	switch v.kind {
	case KindNil:
		sb.WriteString("nil")

	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))

	case KindFloat:
		sb.WriteString(formatFloat(v.f))

	case KindString:
		quote(sb, v.obj.str)

	case KindObject:
		if v.obj.kind == ObjRecord {
			writeRecord(sb, v.obj.typ.(*types.Class), v.obj.elems)

			return
		}

		writeSlots(sb, "[", "]", v.obj.elems)

	case KindStruct:
		writeRecord(sb, v.typ, v.slots)
	}
}

// formatFloat renders f so that it reads back as a float literal.
// quote writes s as a string literal the lexer reads back byte for byte.
// Valid printable runes are written as is; control characters and bytes of
// invalid UTF-8 use the \xHH form.
func quote(sb *strings.Builder, s string) {
	const hex = "0123456789abcdef"

	sb.WriteByte('"')

	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])

		switch {
		case r == '"' || r == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == 0:
			sb.WriteString(`\0`)
		case r == utf8.RuneError && size == 1, r < 0x20, r == 0x7f:
			sb.WriteString(`\x`)
			sb.WriteByte(hex[s[i]>>4])
			sb.WriteByte(hex[s[i]&0xf])
		default:
			sb.WriteString(s[i : i+size])
		}

		i += size
	}

	sb.WriteByte('"')
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEIN") {
		return s
	}

	return s + ".0"
}

func writeSlots(sb *strings.Builder, open, end string, slots []Value) {
	sb.WriteString(open)

	for i, s := range slots {
		if i > 0 {
			sb.WriteString(", ")
		}

		s.write(sb)
	}

	sb.WriteString(end)
}

// writeRecord renders the flattened slots of r with inline struct fields
// regrouped under their own type name.
func writeRecord(sb *strings.Builder, r types.Record, slots []Value) {
	sb.WriteString(r.String())
	writeSlots(sb, "{", "}", groupFields(r, slots))
}

func groupFields(r types.Record, slots []Value) []Value {
	out := make([]Value, 0, len(slots))

	var walk func(r types.Record, n int) int

	walk = func(r types.Record, n int) int {
		if p := r.Parent(); p != nil {
			n = walk(p, n)
		}

		for _, f := range r.Fields() {
			w := types.Width(f.Type)
			if n+w > len(slots) {
				return n
			}

			if s, ok := f.Type.(*types.Struct); ok {
				out = append(out, Struct(s, slots[n:n+w]))
			} else {
				out = append(out, slots[n])
			}

			n += w
		}

		return n
	}

	walk(r, 0)

	return out
}

// ObjectKind identifies the variant of a heap [Object].
type ObjectKind uint8

const (
	ObjString ObjectKind = iota
	ObjVector
	ObjRecord
)

// Object is a reference-counted heap object: a string, a vector, or a
// class record. Objects are created by an allocator with one reference.
type Object struct {
	kind  ObjectKind
	typ   types.Type
	str   string
	elems []Value
	refs  atomic.Int32
}

// NewString returns a string object with one reference.
func NewString(s string) *Object {
	o := &Object{kind: ObjString, typ: types.String, str: s}
	o.refs.Store(1)

	return o
}

// NewVector returns a vector object of type t with n nil elements and one
// reference.
func NewVector(n int, t *types.Vector) *Object {
	o := &Object{kind: ObjVector, typ: t, elems: make([]Value, n)}
	o.refs.Store(1)

	return o
}

// NewRecord returns a class record of type t with n nil slots and one
// reference.
func NewRecord(n int, t *types.Class) *Object {
	o := &Object{kind: ObjRecord, typ: t, elems: make([]Value, n)}
	o.refs.Store(1)

	return o
}

// Kind returns the object variant.
func (o *Object) Kind() ObjectKind { return o.kind }

// Type returns the descriptor the object was allocated with.
func (o *Object) Type() types.Type { return o.typ }

// Len returns the number of element slots (vectors and records) or the
// byte length (strings).
func (o *Object) Len() int {
	if o.kind == ObjString {
		return len(o.str)
	}

	return len(o.elems)
}

// Elems returns the element slots of a vector or record.
func (o *Object) Elems() []Value { return o.elems }

// Refs returns the current reference count.
func (o *Object) Refs() int32 { return o.refs.Load() }

// Inc adds a reference.
func (o *Object) Inc() { o.refs.Add(1) }

// Dec drops a reference and returns the remaining count.
func (o *Object) Dec() int32 { return o.refs.Add(-1) }
