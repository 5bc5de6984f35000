// Package schema loads a type registry from a YAML schema document.
//
// A document declares enumerations, structs and classes:
//
//	enums:
//	  Color: { Red: 0, Green: "Red + 1", Blue: ~ }
//	structs:
//	  Point: { fields: [ {name: x, type: int}, {name: y, type: int} ] }
//	classes:
//	  Shape:  { fields: [ {name: name, type: string} ] }
//	  Circle: { parent: Shape, fields: [ {name: center, type: Point}, {name: r, type: float} ] }
//
// Enumeration constants are integers, expressions over the constants
// declared before them, or null for one more than the previous constant.
// Field types are type expressions: a predeclared or declared type name, or
// a vector "[T]". Every record is declared before any field is resolved, so
// records may refer to each other in any order and classes may refer to
// themselves. A struct that contains itself inline, directly or through
// another struct or a parent, is rejected.
package schema

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/datalit/lang/types"
)

var (
	// ErrSchema is returned for a malformed schema document.
	ErrSchema = errors.New("invalid schema")
	// ErrUnknownType is returned when a parent or field type cannot be
	// resolved.
	ErrUnknownType = errors.New("unknown type in schema")
	// ErrEnumValue is returned when an enumeration constant cannot be
	// evaluated to an integer.
	ErrEnumValue = errors.New("invalid enum value")
	// ErrCycle is returned when a struct contains itself inline or a record
	// extends itself.
	ErrCycle = errors.New("recursive layout")
)

// Document is the decoded form of a schema.
type Document struct {
	Enums   map[string]yaml.MapSlice `yaml:"enums,omitempty"`
	Structs map[string]Record        `yaml:"structs,omitempty"`
	Classes map[string]Record        `yaml:"classes,omitempty"`
}

// Record declares a struct or class.
type Record struct {
	Parent string  `yaml:"parent,omitempty"`
	Fields []Field `yaml:"fields,omitempty"`
}

// Field declares one field of a record.
type Field struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Decode parses a YAML schema document.
func Decode(data []byte) (*Document, error) {
	var doc Document

	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}

	return &doc, nil
}

// Apply defines every type declared by doc in reg.
func (doc *Document) Apply(reg *types.Registry) error {
	for _, name := range sortedKeys(doc.Enums) {
		values, err := evalEnum(name, doc.Enums[name])
		if err != nil {
			return err
		}

		if _, err := reg.DefineEnum(name, values...); err != nil {
			return fmt.Errorf("%w: %w", ErrSchema, err)
		}
	}

	decl := make(map[string]types.Record, len(doc.Structs)+len(doc.Classes))
	src := make(map[string]Record, len(decl))

	for _, name := range sortedKeys(doc.Structs) {
		decl[name], src[name] = types.NewStruct(name, nil), doc.Structs[name]
	}

	for _, name := range sortedKeys(doc.Classes) {
		if _, ok := decl[name]; ok {
			return fmt.Errorf("%w: %s declared as both struct and class", ErrSchema, name)
		}

		decl[name], src[name] = types.NewClass(name, nil), doc.Classes[name]
	}

	names := sortedKeys(decl)

	for _, name := range names {
		if err := reg.Define(decl[name]); err != nil {
			return fmt.Errorf("%w: %w", ErrSchema, err)
		}
	}

	for _, name := range names {
		if err := resolve(reg, decl[name], src[name]); err != nil {
			return err
		}
	}

	for _, name := range names {
		if err := checkCycle(decl[name], nil); err != nil {
			return err
		}
	}

	return nil
}

// resolve assigns the parent and fields declared by r to rec.
func resolve(reg *types.Registry, rec types.Record, r Record) error {
	var parent types.Record

	if r.Parent != "" {
		t, ok := reg.Lookup(r.Parent)
		if !ok {
			return fmt.Errorf("%w: %s extends %s", ErrUnknownType, rec, r.Parent)
		}

		if parent, ok = t.(types.Record); !ok || parent.Kind() != rec.Kind() {
			return fmt.Errorf("%w: %s %s cannot extend %s", ErrSchema, rec.Kind(), rec, types.Describe(t))
		}
	}

	fields := make([]types.Field, len(r.Fields))
	seen := make(map[string]struct{}, len(r.Fields))

	for i, f := range r.Fields {
		if f.Name == "" {
			return fmt.Errorf("%w: %s field %d has no name", ErrSchema, rec, i)
		}

		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w: %s declares field %s twice", ErrSchema, rec, f.Name)
		}

		seen[f.Name] = struct{}{}

		t, err := reg.Resolve(f.Type)
		if err != nil {
			return fmt.Errorf("%w: %s.%s: %w", ErrUnknownType, rec, f.Name, err)
		}

		fields[i] = types.Field{Name: f.Name, Type: t}
	}

	types.SetLayout(rec, parent, fields...)

	return nil
}

// checkCycle walks the records whose slots are stored inline in rec.
func checkCycle(rec types.Record, path []types.Record) error {
	if slices.Contains(path, rec) {
		return fmt.Errorf("%w: %s", ErrCycle, rec)
	}

	path = append(path, rec)

	if p := rec.Parent(); p != nil {
		if err := checkCycle(p, path); err != nil {
			return err
		}
	}

	for _, f := range rec.Fields() {
		if s, ok := f.Type.(*types.Struct); ok {
			if err := checkCycle(s, path); err != nil {
				return err
			}
		}
	}

	return nil
}

// evalEnum evaluates the constants of one enumeration in declaration
// order. String values are expressions over the constants before them.
func evalEnum(name string, items yaml.MapSlice) ([]types.EnumValue, error) {
	values := make([]types.EnumValue, 0, len(items))
	env := make(map[string]any, len(items))
	next := int64(0)

	for _, item := range items {
		key, ok := item.Key.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s: constant name %v is not a string", ErrEnumValue, name, item.Key)
		}

		v, err := enumValue(item.Value, env, next)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %w", ErrEnumValue, name, key, err)
		}

		env[key] = int(v)
		values = append(values, types.EnumValue{Name: key, Value: v})
		next = v + 1
	}

	return values, nil
}

func enumValue(raw any, env map[string]any, next int64) (int64, error) {
	switch v := raw.(type) {
	case nil:
		return next, nil

	case int:
		return int64(v), nil

	case int64:
		return v, nil

	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", v)
		}

		return int64(v), nil

	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%g is not an integer", v)
		}

		return int64(v), nil

	case string:
		program, err := expr.Compile(v, expr.Env(env), expr.AsInt64())
		if err != nil {
			return 0, err
		}

		out, err := vm.Run(program, env)
		if err != nil {
			return 0, err
		}

		i, ok := out.(int64)
		if !ok {
			return 0, fmt.Errorf("expression %q yields %T", v, out)
		}

		return i, nil

	default:
		return 0, fmt.Errorf("unsupported value %v (%T)", raw, raw)
	}
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}
