package value

import (
	"encoding/json"
	"iter"

	"github.com/ardnew/datalit/lang/types"
)

// TypeKey is the map key holding the record type name in the native form of
// structs and classes.
const TypeKey = "@type"

// Init copies vals into the element storage of a vector or record.
//
// A record receives vals unchanged, one per slot of its layout. A vector
// whose element type is a struct receives the slots of each element in
// sequence and groups every run into a single [KindStruct] value.
func (o *Object) Init(vals []Value) {
	if o.kind == ObjVector {
		if s, ok := o.typ.(*types.Vector).Elem.(*types.Struct); ok {
			w := types.Width(s)

			for i := range o.elems {
				slots := make([]Value, w)
				copy(slots, vals[i*w:(i+1)*w])
				o.elems[i] = Struct(s, slots)
			}

			return
		}
	}

	copy(o.elems, vals)
}

// Objects calls yield for each heap object referenced directly by v,
// including those held in the slots of a struct value.
func (v Value) Objects(yield func(*Object)) {
	switch v.kind {
	case KindString, KindObject:
		yield(v.obj)

	case KindStruct:
		for _, s := range v.slots {
			s.Objects(yield)
		}
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToNative())
}

// ToNative converts v to plain Go values: int64, float64, string, nil,
// []any for vectors and map[string]any for records. Record maps carry the
// type name under [TypeKey].
func (v Value) ToNative() any {
	switch v.kind {
	case KindInt:
		return v.i

	case KindFloat:
		return v.f

	case KindString:
		return v.obj.str

	case KindObject:
		if v.obj.kind == ObjVector {
			out := make([]any, len(v.obj.elems))
			for i, e := range v.obj.elems {
				out[i] = e.ToNative()
			}

			return out
		}

		return recordMap(v.obj.typ.(*types.Class), v.obj.elems)

	case KindStruct:
		return recordMap(v.typ, v.slots)

	default:
		return nil
	}
}

// recordMap builds the native map of a record from its flattened slots.
func recordMap(r types.Record, slots []Value) map[string]any {
	m := map[string]any{TypeKey: r.String()}

	fillFields(m, r, slots)

	return m
}

func fillFields(m map[string]any, r types.Record, slots []Value) int {
	n := 0
	if p := r.Parent(); p != nil {
		n = fillFields(m, p, slots)
	}

	for _, f := range r.Fields() {
		if s, ok := f.Type.(*types.Struct); ok {
			w := types.Width(s)
			if n+w > len(slots) {
				return n
			}

			m[f.Name] = recordMap(s, slots[n:n+w])
			n += w

			continue
		}

		if n >= len(slots) {
			return n
		}

		m[f.Name] = slots[n].ToNative()
		n++
	}

	return n
}

// Fields yields the name and value of each field of a record, parents
// first, with inline struct fields grouped into one [KindStruct] value.
// Other values yield nothing.
func (v Value) Fields() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		var (
			r     types.Record
			slots []Value
		)

		switch {
		case v.kind == KindStruct:
			r, slots = v.typ, v.slots
		case v.kind == KindObject && v.obj.kind == ObjRecord:
			r, slots = v.obj.typ.(*types.Class), v.obj.elems
		default:
			return
		}

		names := fieldNames(r, nil)

		for i, f := range groupFields(r, slots) {
			if !yield(names[i], f) {
				return
			}
		}
	}
}

func fieldNames(r types.Record, names []string) []string {
	if p := r.Parent(); p != nil {
		names = fieldNames(p, names)
	}

	for _, f := range r.Fields() {
		names = append(names, f.Name)
	}

	return names
}
