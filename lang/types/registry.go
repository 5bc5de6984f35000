package types

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrDuplicate is returned when a name is registered twice.
	ErrDuplicate = errors.New("type already defined")
	// ErrUnknown is returned when a type name cannot be resolved.
	ErrUnknown = errors.New("unknown type")
	// ErrSyntax is returned for a malformed type expression.
	ErrSyntax = errors.New("malformed type expression")
)

// EnumValue is a named constant of an enumeration.
type EnumValue struct {
	Name  string
	Value int64
}

// enumTable is the name-to-value lookup of one enumeration.
type enumTable struct {
	name   string
	values []EnumValue
	index  map[string]int64
}

// Registry maps type names to descriptors and holds enumeration tables.
// A Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	named map[string]Type
	order []string
	enums []*enumTable
}

// NewRegistry returns a registry containing the predeclared types.
func NewRegistry() *Registry {
	r := &Registry{named: make(map[string]Type)}

	for _, t := range []Type{Int, Float, String, Nil, Any} {
		r.named[t.String()] = t
	}

	return r
}

// Define registers a struct or class under its name.
func (r *Registry) Define(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.define(rec.String(), rec)
}

// DefineEnum creates an enumeration with the given constants and registers
// it under name.
func (r *Registry) DefineEnum(name string, values ...EnumValue) (*Enum, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := &Enum{Name: name, Table: len(r.enums)}

	err := r.define(name, e)
	if err != nil {
		return nil, err
	}

	tab := &enumTable{
		name:   name,
		values: slices.Clone(values),
		index:  make(map[string]int64, len(values)),
	}

	for _, v := range values {
		tab.index[v.Name] = v.Value
	}

	r.enums = append(r.enums, tab)

	return e, nil
}

func (r *Registry) define(name string, t Type) error {
	if _, ok := r.named[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}

	r.named[name] = t
	r.order = append(r.order, name)

	return nil
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.named[name]

	return t, ok
}

// LookupEnum resolves a constant name in the enumeration table at index
// table.
func (r *Registry) LookupEnum(name string, table int) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if table < 0 || table >= len(r.enums) {
		return 0, false
	}

	v, ok := r.enums[table].index[name]

	return v, ok
}

// EnumValues returns the constants of the enumeration table at index table
// in declaration order.
func (r *Registry) EnumValues(table int) []EnumValue {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if table < 0 || table >= len(r.enums) {
		return nil
	}

	return slices.Clone(r.enums[table].values)
}

// Names returns the user-defined type names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

// Resolve parses a type expression. An expression is a predeclared or
// registered type name, or "[" expression "]" denoting a vector.
func (r *Registry) Resolve(expr string) (Type, error) {
	s := strings.TrimSpace(expr)

	if inner, ok := strings.CutPrefix(s, "["); ok {
		inner, ok = strings.CutSuffix(inner, "]")
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrSyntax, expr)
		}

		elem, err := r.Resolve(inner)
		if err != nil {
			return nil, err
		}

		return VectorOf(elem), nil
	}

	if s == "" || strings.ContainsAny(s, "[] \t") {
		return nil, fmt.Errorf("%w: %q", ErrSyntax, expr)
	}

	t, ok := r.Lookup(s)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, s)
	}

	return t, nil
}
