package lang

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ardnew/datalit/lang/heap"
	"github.com/ardnew/datalit/lang/types"
	"github.com/ardnew/datalit/lang/value"
)

type fixture struct {
	reg    *types.Registry
	point  *types.Struct
	label  *types.Struct
	shape  *types.Class
	circle *types.Class
	node   *types.Class
	color  *types.Enum
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	var f fixture

	f.reg = types.NewRegistry()
	f.point = types.NewStruct("Point", nil,
		types.Field{Name: "x", Type: types.Int},
		types.Field{Name: "y", Type: types.Int},
	)
	f.label = types.NewStruct("Label", nil,
		types.Field{Name: "n", Type: types.Int},
		types.Field{Name: "text", Type: types.String},
	)
	f.shape = types.NewClass("Shape", nil,
		types.Field{Name: "name", Type: types.String},
	)
	f.circle = types.NewClass("Circle", f.shape,
		types.Field{Name: "center", Type: f.point},
		types.Field{Name: "r", Type: types.Float},
	)
	f.node = types.NewClass("Node", nil,
		types.Field{Name: "value", Type: types.Int},
		types.Field{Name: "next", Type: types.Any},
	)

	for _, r := range []types.Record{f.point, f.label, f.shape, f.circle, f.node} {
		if err := f.reg.Define(r); err != nil {
			t.Fatalf("Define(%s): %v", r, err)
		}
	}

	var err error

	f.color, err = f.reg.DefineEnum("Color",
		types.EnumValue{Name: "Red", Value: 0},
		types.EnumValue{Name: "Green", Value: 1},
		types.EnumValue{Name: "Blue", Value: 2},
	)
	if err != nil {
		t.Fatalf("DefineEnum: %v", err)
	}

	return f
}

// parse parses text with a private arena and fails the test if any object
// is leaked on error.
func (f fixture) parse(t *testing.T, typ types.Type, text string) (value.Value, *heap.Arena, error) {
	t.Helper()

	a := heap.New()

	v, err := Parse(context.Background(), f.reg, typ, text, WithAllocator(a))
	if err != nil {
		if !v.IsNil() {
			t.Errorf("Parse(%q) returned %v with error %v", text, v, err)
		}

		if live := a.Live(); live != 0 {
			t.Errorf("Parse(%q) leaked %d objects on error", text, live)
		}
	}

	return v, a, err
}

func TestParse_Scalars(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		typ   types.Type
		input string
		want  string
	}{
		{"int", types.Int, "42", "42"},
		{"negative int", types.Int, "-5", "-5"},
		{"hex int", types.Int, "0x1F", "31"},
		{"char int", types.Int, "'a'", "97"},
		{"float", types.Float, "3.5", "3.5"},
		{"negative float", types.Float, "-2.5", "-2.5"},
		{"exponent", types.Float, "1e3", "1000.0"},
		{"string", types.String, `"hi there"`, `"hi there"`},
		{"escaped string", types.String, `"a\tb"`, `"a\tb"`},
		{"nil", types.Nil, "nil", "nil"},
		{"double negation", types.Int, "--7", "7"},
		{"trailing linefeed", types.Int, "42\n", "42"},
		{"trailing comment", types.Int, "42 // answer\n", "42"},
		{"enum name", f.color, "Green", "1"},
		{"enum int", f.color, "2", "2"},
		{"negative enum", f.color, "-Blue", "-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _, err := f.parse(t, tt.typ, tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.input, err)
			}

			if got := v.String(); got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_WildcardAcceptsEverything(t *testing.T) {
	f := newFixture(t)

	inputs := []string{
		"42",
		"-1.5",
		`"s"`,
		"nil",
		"[]",
		`[1, "a", nil, [2.5], -3]`,
		"Point{1, 2}",
		"Point{1, 2, 3}",
		`Circle{"c", Point{1, 2}, 3.0}`,
		`Node{1, Node{2, nil}}`,
		"[Point{1, 2}\nPoint{3}]",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			v, a, err := f.parse(t, types.Any, input)
			if err != nil {
				t.Fatalf("Parse(%q) against any: %v", input, err)
			}

			a.ReleaseValue(v)

			if live := a.Live(); live != 0 {
				t.Errorf("releasing result left %d objects live", live)
			}
		})
	}
}

func TestParse_Truncation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input string
	}{
		{"extra int", "Point{1, 2, 3}"},
		{"extra aggregate", `Point{1, 2, [3, "x"], Circle{"c"}}`},
		{"extra on new lines", "Point{\n1\n2\n3\n}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, a, err := f.parse(t, f.point, tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}

			if got := v.String(); got != "Point{1, 2}" {
				t.Errorf("Parse(%q) = %s, want Point{1, 2}", tt.input, got)
			}

			if n := a.Allocated(); n != 0 {
				t.Errorf("discarded elements allocated %d objects", n)
			}
		})
	}

	t.Run("extra element still validated", func(t *testing.T) {
		_, _, err := f.parse(t, f.point, "Point{1, 2, [3 4]}")
		if !errors.Is(err, ErrSyntax) {
			t.Errorf("error = %v, want ErrSyntax", err)
		}
	})

	t.Run("extra negation still checked", func(t *testing.T) {
		_, _, err := f.parse(t, f.point, `Point{1, 2, -"x"}`)
		if !errors.Is(err, ErrUnaryMinus) {
			t.Errorf("error = %v, want ErrUnaryMinus", err)
		}
	})
}

func TestParse_Padding(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		typ   types.Type
		input string
		want  string
	}{
		{"one missing", f.point, "Point{1}", "Point{1, 0}"},
		{"all missing", f.point, "Point{}", "Point{0, 0}"},
		{"missing inline struct and float", f.circle, `Circle{"c"}`, `Circle{"c", Point{0, 0}, 0.0}`},
		{"missing nested slot", f.circle, `Circle{"c", Point{4}}`, `Circle{"c", Point{4, 0}, 0.0}`},
		{"missing any is not padded", f.node, "Node{1, nil}", "Node{1, nil}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _, err := f.parse(t, tt.typ, tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}

			if got := v.String(); got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}

	t.Run("no default for string", func(t *testing.T) {
		_, _, err := f.parse(t, f.label, "Label{1}")
		if !errors.Is(err, ErrMissingDefault) {
			t.Fatalf("error = %v, want ErrMissingDefault", err)
		}

		var pe *Error
		if !errors.As(err, &pe) || pe.Detail() != "no default value exists for missing struct elements" {
			t.Errorf("detail = %q", pe.Detail())
		}
	})

	t.Run("no default for any", func(t *testing.T) {
		_, _, err := f.parse(t, f.node, "Node{1}")
		if !errors.Is(err, ErrMissingDefault) {
			t.Errorf("error = %v, want ErrMissingDefault", err)
		}
	})

	t.Run("no default for inherited string", func(t *testing.T) {
		_, _, err := f.parse(t, f.circle, "Circle{}")
		if !errors.Is(err, ErrMissingDefault) {
			t.Errorf("error = %v, want ErrMissingDefault", err)
		}
	})
}

func TestParse_Negation(t *testing.T) {
	f := newFixture(t)

	v, _, err := f.parse(t, types.Int, "-5")
	if err != nil || v.Int() != -5 {
		t.Fatalf("Parse(-5) = %v, %v; want -5", v, err)
	}

	v, _, err = f.parse(t, types.Any, "-5")
	if err != nil || v.Kind() != value.KindInt || v.Int() != -5 {
		t.Fatalf("Parse(-5) against any = %v, %v; want -5", v, err)
	}

	for _, typ := range []types.Type{types.Any, types.String} {
		t.Run("string against "+typ.String(), func(t *testing.T) {
			_, a, err := f.parse(t, typ, `-"abc"`)
			if !errors.Is(err, ErrUnaryMinus) {
				t.Errorf("error = %v, want ErrUnaryMinus", err)
			}

			if a.Allocated() != 1 {
				t.Errorf("Allocated() = %d, want the string to be allocated", a.Allocated())
			}
		})
	}

	t.Run("mismatch before negation", func(t *testing.T) {
		_, _, err := f.parse(t, types.String, "-5")
		if !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("error = %v, want ErrTypeMismatch", err)
		}

		if errors.Is(err, ErrUnaryMinus) {
			t.Errorf("error %v also matches ErrUnaryMinus", err)
		}
	})

	t.Run("aggregate", func(t *testing.T) {
		_, _, err := f.parse(t, types.Any, "-[1]")
		if !errors.Is(err, ErrUnaryMinus) {
			t.Errorf("error = %v, want ErrUnaryMinus", err)
		}
	})
}

func TestParse_Vectors(t *testing.T) {
	f := newFixture(t)

	ints := types.VectorOf(types.Int)

	tests := []struct {
		name  string
		typ   types.Type
		input string
		want  string
		len   int
	}{
		{"commas", ints, "[1, 2, 3]", "[1, 2, 3]", 3},
		{"empty", ints, "[]", "[]", 0},
		{"empty with linefeed", ints, "[\n]", "[]", 0},
		{"linefeeds", ints, "[1\n2\n3]", "[1, 2, 3]", 3},
		{"mixed separators", ints, "[1, 2\n3\n]", "[1, 2, 3]", 3},
		{"leading linefeed", ints, "[\n1,\n2\n]", "[1, 2]", 2},
		{"comments", ints, "[1, /* two */ 2] // done", "[1, 2]", 2},
		{"nested", types.VectorOf(ints), "[[1], [], [2, 3]]", "[[1], [], [2, 3]]", 3},
		{"structs", types.VectorOf(f.point), "[Point{1, 2}, Point{3}]", "[Point{1, 2}, Point{3, 0}]", 2},
		{"enums", types.VectorOf(f.color), "[Red, Blue, 1]", "[0, 2, 1]", 3},
		{"wildcard structs", types.VectorOf(types.Any), "[Point{1, 2}, 3]", "[Point{1, 2}, 3]", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _, err := f.parse(t, tt.typ, tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}

			if v.Kind() != value.KindObject || v.Object().Kind() != value.ObjVector {
				t.Fatalf("Parse(%q) = %v, want vector", tt.input, v)
			}

			if got := v.Object().Len(); got != tt.len {
				t.Errorf("len = %d, want %d", got, tt.len)
			}

			if got := v.String(); got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_Classes(t *testing.T) {
	f := newFixture(t)

	v, a, err := f.parse(t, f.circle, `Circle{"unit", Point{1, 2}, 2.5}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	obj := v.Object()
	if obj == nil || obj.Kind() != value.ObjRecord || obj.Type() != f.circle {
		t.Fatalf("Parse = %v, want Circle record", v)
	}

	// name, center.x, center.y, r
	if got := obj.Len(); got != 4 {
		t.Errorf("slots = %d, want 4", got)
	}

	native, ok := v.ToNative().(map[string]any)
	if !ok {
		t.Fatalf("ToNative() = %T, want map", v.ToNative())
	}

	if native["name"] != "unit" || native["r"] != 2.5 || native[value.TypeKey] != "Circle" {
		t.Errorf("ToNative() = %v", native)
	}

	center, _ := native["center"].(map[string]any)
	if center["x"] != int64(1) || center["y"] != int64(2) {
		t.Errorf("center = %v", center)
	}

	if a.Allocated() != 2 {
		t.Errorf("Allocated() = %d, want 2 (string and record)", a.Allocated())
	}

	a.ReleaseValue(v)

	if a.Live() != 0 {
		t.Errorf("Live() = %d after release", a.Live())
	}
}

func TestParse_RoundTrip(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		typ   types.Type
		input string
	}{
		{types.VectorOf(types.Int), "[1, -2, 3]"},
		{types.VectorOf(types.Float), "[1.0, 2.5, -0.25]"},
		{types.VectorOf(types.String), `["a", "", "c d"]`},
		{f.point, "Point{3, 4}"},
		{f.circle, `Circle{"c", Point{1, 2}, 3.0}`},
		{types.VectorOf(f.circle), `[Circle{"a", Point{0, 0}, 1.0}, Circle{"b", Point{5, 6}, 0.5}]`},
		{types.Any, `[Node{1, Node{2, nil}}, [Point{1, 2}], "x"]`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, _, err := f.parse(t, tt.typ, tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}

			text := v.String()

			again, _, err := f.parse(t, tt.typ, text)
			if err != nil {
				t.Fatalf("Parse(%q) of rendered value: %v", text, err)
			}

			if again.String() != text {
				t.Errorf("round trip = %s, want %s", again, text)
			}
		})
	}
}

func TestParse_StringBytes(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bell", `"\x07"`, "\a"},
		{"high byte", `"\xff"`, "\xff"},
		{"utf-8 by bytes", `"\xc3\xa9"`, "é"},
		{"raw invalid byte", "\"a\xffb\"", "a\xffb"},
		{"nul", `"a\0b"`, "a\x00b"},
		{"quote", `"say \"hi\""`, `say "hi"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _, err := f.parse(t, types.String, tt.input)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.input, err)
			}

			if v.Str() != tt.want {
				t.Fatalf("Parse(%q) = %q, want %q", tt.input, v.Str(), tt.want)
			}

			text := v.String()

			again, _, err := f.parse(t, types.String, text)
			if err != nil {
				t.Fatalf("Parse(%q) of rendered value: %v", text, err)
			}

			if again.Str() != tt.want {
				t.Errorf("round trip of %q = %q, want %q", text, again.Str(), tt.want)
			}
		})
	}
}

func TestParse_Rollback(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		typ   types.Type
		input string
		want  error
	}{
		{"scalar vector", types.VectorOf(types.Int), `[1, "bad", 3]`, ErrTypeMismatch},
		{"strings", types.VectorOf(types.String), `["a", "b", 1]`, ErrTypeMismatch},
		{"nested vectors", types.VectorOf(types.VectorOf(types.String)), `[["a"], ["b", 2]]`, ErrTypeMismatch},
		{"class field", f.circle, `Circle{"c", Point{1, 2}, "x"}`, ErrTypeMismatch},
		{"vector of classes", types.VectorOf(f.circle), `[Circle{"a"}, Circle{"b"}, Circle{}]`, ErrMissingDefault},
		{"trailing garbage", types.VectorOf(types.String), `["a"] "b"`, ErrSyntax},
		{"lexical", types.VectorOf(types.String), `["a", "b`, ErrLexical},
		{"bare identifier", types.Any, `[Node{1, "s"}, Purple]`, ErrSyntax},
		{"negated string", types.VectorOf(types.Any), `["a", -"b"]`, ErrUnaryMinus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, a, err := f.parse(t, tt.typ, tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse(%q) error = %v, want %v", tt.input, err, tt.want)
			}

			if !v.IsNil() {
				t.Errorf("Parse(%q) value = %v, want nil", tt.input, v)
			}

			if a.Allocated() == 0 && tt.name != "lexical" {
				t.Errorf("Parse(%q) allocated nothing before failing", tt.input)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	f := newFixture(t)
	empty := types.NewStruct("Empty", nil)
	wrapper := types.NewStruct("Wrapper", nil, types.Field{Name: "e", Type: empty})

	tests := []struct {
		name   string
		typ    types.Type
		input  string
		want   error
		detail string
	}{
		{"trailing token", types.Int, "42 43", ErrSyntax, "end-of-file expected, found: `43`"},
		{"two linefeeds of content", types.Int, "42\n43", ErrSyntax, "end-of-file expected, found: `43`"},
		{"missing comma", f.point, "Point{1 2}", ErrSyntax, "`,` expected, found: `2`"},
		{"unterminated vector", types.VectorOf(types.Int), "[1, 2", ErrSyntax, "`,` expected, found: `end of file`"},
		{"illegal start", types.Int, "]", ErrSyntax, "illegal start of expression: `]`"},
		{"empty input", types.Int, "", ErrSyntax, "illegal start of expression: `end of file`"},
		{"trailing comma", types.VectorOf(types.Int), "[1,]", ErrSyntax, "illegal start of expression: `]`"},
		{"type mismatch", types.Int, `"x"`, ErrTypeMismatch, "type `int` required, `string` given"},
		{"vector for int", types.Int, "[1]", ErrTypeMismatch, "type `int` required, `vector` given"},
		{"float for int", types.Int, "1.5", ErrTypeMismatch, "type `int` required, `float` given"},
		{"nil for string", types.String, "nil", ErrTypeMismatch, "type `string` required, `nil` given"},
		{"string for enum", f.color, `"Red"`, ErrTypeMismatch, "type `Color` required, `string` given"},
		{"record name mismatch", f.point, "Circle{}", ErrTypeMismatch, "class/struct type `Point` required, `Circle` given"},
		{"parent name rejected", f.circle, `Shape{"s"}`, ErrTypeMismatch, "class/struct type `Circle` required, `Shape` given"},
		{"record for int", types.Int, "Point{1}", ErrTypeMismatch, "class/struct type required, `int` given"},
		{"ident for vector", types.VectorOf(types.Int), "Red", ErrTypeMismatch, "class/struct type required, `[int]` given"},
		{"unknown type in wildcard", types.Any, "Square{1}", ErrTypeMismatch, "unknown type `Square`"},
		{"primitive name in wildcard", types.Any, "int{1}", ErrTypeMismatch, "class/struct type required, `int` given"},
		{"bare ident in wildcard", types.Any, "Red", ErrSyntax, "`{` expected, found: `end of file`"},
		{"unknown enum", f.color, "Purple", ErrUnknownEnum, "unknown enum value `Purple`"},
		{"unary minus", types.Any, `-"abc"`, ErrUnaryMinus, "unary minus: numeric value expected"},
		{"unterminated string", types.String, `"abc`, ErrLexical, "unterminated string literal"},
		{"illegal character", types.Int, "@", ErrLexical, "illegal character '@'"},
		{"vector of empty struct", types.VectorOf(empty), "[Empty{}, Empty{}]", ErrTypeMismatch, "vector element type `Empty` has no fields"},
		{"vector of slotless struct", types.VectorOf(wrapper), "[]", ErrTypeMismatch, "vector element type `Wrapper` has no fields"},
		{"unterminated comment", types.Int, "42 /* note", ErrLexical, "unterminated block comment"},
		{"float overflow", types.Float, "1e999", ErrLexical, "float literal out of range: 1e999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.parse(t, tt.typ, tt.input)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Parse(%q) error = %v, want %v", tt.input, err, tt.want)
			}

			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not *Error", err)
			}

			if pe.Detail() != tt.detail {
				t.Errorf("detail = %q, want %q", pe.Detail(), tt.detail)
			}

			if !pe.Position().IsValid() {
				t.Errorf("error %v has no position", err)
			}
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.parse(t, types.VectorOf(types.Int), "[1,\n  \"x\"]")

	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *Error", err)
	}

	if got := pe.Position().String(); got != "2:3" {
		t.Errorf("position = %s, want 2:3", got)
	}

	if !strings.HasPrefix(err.Error(), "2:3: type mismatch: ") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestParse_MaxDepth(t *testing.T) {
	f := newFixture(t)
	a := heap.New()
	nested := strings.Repeat("[", 6) + strings.Repeat("]", 6)

	_, err := Parse(context.Background(), f.reg, types.Any, nested,
		WithAllocator(a), WithMaxDepth(4))
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("error = %v, want ErrSyntax", err)
	}

	if a.Live() != 0 {
		t.Errorf("Live() = %d after depth error", a.Live())
	}

	v, err := Parse(context.Background(), f.reg, types.Any, nested,
		WithAllocator(a), WithMaxDepth(6))
	if err != nil {
		t.Fatalf("Parse at limit: %v", err)
	}

	a.ReleaseValue(v)
}

func TestParseData(t *testing.T) {
	f := newFixture(t)
	a := heap.New()

	v, err := ParseData(context.Background(), f.reg, "[Point]", "[Point{1, 2}\nPoint{3, 4}]", WithAllocator(a))
	if err != nil {
		t.Fatalf("ParseData: %v", err)
	}

	if got := v.String(); got != "[Point{1, 2}, Point{3, 4}]" {
		t.Errorf("ParseData = %s", got)
	}

	_, err = ParseData(context.Background(), f.reg, "Square", "Square{}")
	if !errors.Is(err, ErrTypeMismatch) || !errors.Is(err, types.ErrUnknown) {
		t.Errorf("error = %v, want ErrTypeMismatch wrapping types.ErrUnknown", err)
	}
}

func TestParseReader(t *testing.T) {
	f := newFixture(t)

	v, err := ParseReader(context.Background(), f.reg, f.point,
		strings.NewReader("Point{7, 8}\n"), WithAllocator(heap.New()))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}

	if got := v.String(); got != "Point{7, 8}" {
		t.Errorf("ParseReader = %s", got)
	}
}

func TestParse_Concurrent(t *testing.T) {
	f := newFixture(t)
	a := heap.New()

	var wg sync.WaitGroup

	for i := range 16 {
		wg.Go(func() {
			input := `[Circle{"a", Point{1, 2}, 1.0}, Circle{"b"}]`
			if i%2 == 1 {
				input = `[Circle{"a", Point{1, 2}, 1.0}, Circle{}]`
			}

			v, err := Parse(context.Background(), f.reg, types.VectorOf(f.circle), input, WithAllocator(a))
			if err == nil {
				a.ReleaseValue(v)
			}
		})
	}

	wg.Wait()

	if a.Live() != 0 {
		t.Errorf("Live() = %d after concurrent parses", a.Live())
	}
}
