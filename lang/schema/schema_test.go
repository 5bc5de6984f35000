package schema

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/datalit/lang"
	"github.com/ardnew/datalit/lang/heap"
	"github.com/ardnew/datalit/lang/types"
)

func TestLoadExample(t *testing.T) {
	ctx := context.Background()

	reg, err := Load(ctx, [][]byte{Example}, WithCache(false))
	if err != nil {
		t.Fatalf("Load(Example): %v", err)
	}

	want := []string{"Color", "Circle", "Point", "Polygon", "Scene", "Shape"}
	if got := reg.Names(); strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	color, _ := reg.Lookup("Color")
	table := color.(*types.Enum).Table

	for name, want := range map[string]int64{"Red": 0, "Green": 1, "Blue": 2} {
		if v, ok := reg.LookupEnum(name, table); !ok || v != want {
			t.Errorf("Color.%s = %d, %v; want %d", name, v, ok, want)
		}
	}

	circle, _ := reg.Lookup("Circle")
	if got := types.Describe(circle); got != "class Circle : Shape { center Point, r float }" {
		t.Errorf("Describe(Circle) = %q", got)
	}

	v, err := lang.ParseData(ctx, reg, "[Shape]",
		`[Shape{"s", Blue}, Shape{"t"}]`, lang.WithAllocator(heap.New()))
	if err != nil {
		t.Fatalf("ParseData: %v", err)
	}

	if got := v.String(); got != `[Shape{"s", 2}, Shape{"t", 0}]` {
		t.Errorf("ParseData = %s", got)
	}

	v, err = lang.ParseData(ctx, reg, "Polygon",
		`Polygon{"p", Green, [Point{0, 0}, Point{1, 1}]}`, lang.WithAllocator(heap.New()))
	if err != nil {
		t.Fatalf("ParseData(Polygon): %v", err)
	}

	if got := v.String(); got != `Polygon{"p", 1, [Point{0, 0}, Point{1, 1}]}` {
		t.Errorf("ParseData(Polygon) = %s", got)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"malformed yaml", "structs: [", ErrSchema},
		{"unknown key", "unions: {}", ErrSchema},
		{"unknown field type", "structs: {P: {fields: [{name: a, type: Q}]}}", ErrUnknownType},
		{"unknown parent", "classes: {C: {parent: B}}", ErrUnknownType},
		{"struct extends class", "classes: {C: {}}\nstructs: {S: {parent: C}}", ErrSchema},
		{"duplicate field", "structs: {P: {fields: [{name: a, type: int}, {name: a, type: int}]}}", ErrSchema},
		{"unnamed field", "structs: {P: {fields: [{type: int}]}}", ErrSchema},
		{"struct and class", "structs: {P: {}}\nclasses: {P: {}}", ErrSchema},
		{"enum shadows record", "enums: {P: {A: 1}}\nstructs: {P: {}}", ErrSchema},
		{"predeclared name", "structs: {int: {}}", ErrSchema},
		{"inline self", "structs: {P: {fields: [{name: p, type: P}]}}", ErrCycle},
		{"inline mutual", "structs: {A: {fields: [{name: b, type: B}]}, B: {fields: [{name: a, type: A}]}}", ErrCycle},
		{"parent cycle", "classes: {A: {parent: B}, B: {parent: A}}", ErrCycle},
		{"class holds struct holding class", "classes: {C: {fields: [{name: s, type: S}]}}\nstructs: {S: {fields: [{name: c, type: C}]}}", nil},
		{"self-referential class", "classes: {N: {fields: [{name: next, type: N}, {name: all, type: \"[N]\"}]}}", nil},
		{"bad expression", "enums: {E: {A: \"B + 1\"}}", ErrEnumValue},
		{"non-integer expression", "enums: {E: {A: \"'x'\"}}", ErrEnumValue},
		{"fractional value", "enums: {E: {A: 1.5}}", ErrEnumValue},
		{"boolean value", "enums: {E: {A: true}}", ErrEnumValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), [][]byte{[]byte(tt.doc)}, WithCache(false))
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Load: %v", err)
				}

				return
			}

			if !errors.Is(err, tt.want) {
				t.Errorf("Load error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadEnumExpressions(t *testing.T) {
	doc := `
enums:
  Flag:
    None: 0
    A: 1
    B: "bitshl(A, 1)"
    C: "B * 2"
    All: "bitor(bitor(A, B), C)"
    Next: ~
`

	reg, err := Load(context.Background(), [][]byte{[]byte(doc)}, WithCache(false))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	flag, _ := reg.Lookup("Flag")
	values := reg.EnumValues(flag.(*types.Enum).Table)

	want := []int64{0, 1, 2, 4, 7, 8}
	if len(values) != len(want) {
		t.Fatalf("EnumValues = %v", values)
	}

	for i, v := range values {
		if v.Value != want[i] {
			t.Errorf("%s = %d, want %d", v.Name, v.Value, want[i])
		}
	}
}

func TestLoadCache(t *testing.T) {
	ctx := context.Background()
	doc := []byte("structs: {CachedPoint: {fields: [{name: x, type: int}]}}")

	a, err := Load(ctx, [][]byte{doc})
	if err != nil {
		t.Fatal(err)
	}

	b, err := Load(ctx, [][]byte{doc})
	if err != nil {
		t.Fatal(err)
	}

	if a != b {
		t.Error("identical documents produced distinct registries")
	}

	c, err := Load(ctx, [][]byte{doc}, WithCache(false))
	if err != nil {
		t.Fatal(err)
	}

	if c == a {
		t.Error("uncached load returned the cached registry")
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()

	base := filepath.Join(dir, "base.yaml")
	ext := filepath.Join(dir, "ext.yaml")

	if err := os.WriteFile(base, []byte("structs: {V2: {fields: [{name: x, type: float}, {name: y, type: float}]}}"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(ext, []byte("classes: {Ray: {fields: [{name: at, type: V2}, {name: dir, type: V2}]}}"), 0o600); err != nil {
		t.Fatal(err)
	}

	reg, err := LoadFiles(context.Background(), []string{base, ext}, WithCache(false))
	if err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}

	ray, ok := reg.Lookup("Ray")
	if !ok || types.Slots(ray.(types.Record)) != 4 {
		t.Errorf("Ray = %v", ray)
	}

	if _, err := LoadFiles(context.Background(), []string{filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Error("LoadFiles of a missing file succeeded")
	}
}

func TestExportRoundTrip(t *testing.T) {
	ctx := context.Background()

	reg, err := LoadReader(ctx, strings.NewReader(string(Example)), WithCache(false))
	if err != nil {
		t.Fatal(err)
	}

	data, err := Export(reg).Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	again, err := Load(ctx, [][]byte{data}, WithCache(false))
	if err != nil {
		t.Fatalf("Load(exported): %v\n%s", err, data)
	}

	for _, name := range reg.Names() {
		a, _ := reg.Lookup(name)

		b, ok := again.Lookup(name)
		if !ok {
			t.Errorf("%s missing after round trip", name)

			continue
		}

		if types.Describe(a) != types.Describe(b) {
			t.Errorf("%s = %q, want %q", name, types.Describe(b), types.Describe(a))
		}
	}
}
