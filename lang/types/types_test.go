package types

import (
	"errors"
	"sync"
	"testing"
)

func layout() (point *Struct, shape, circle *Class) {
	point = NewStruct("Point", nil,
		Field{Name: "x", Type: Int},
		Field{Name: "y", Type: Int},
	)
	shape = NewClass("Shape", nil,
		Field{Name: "name", Type: String},
		Field{Name: "tag", Type: Float},
	)
	circle = NewClass("Circle", shape,
		Field{Name: "center", Type: point},
		Field{Name: "r", Type: Float},
	)

	return point, shape, circle
}

func TestWidthAndSlots(t *testing.T) {
	point, shape, circle := layout()

	tests := []struct {
		name string
		typ  Type
		want int
	}{
		{"int", Int, 1},
		{"any", Any, 1},
		{"vector of struct", VectorOf(point), 1},
		{"struct", point, 2},
		{"class", circle, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Width(tt.typ); got != tt.want {
				t.Errorf("Width(%s) = %d, want %d", tt.typ, got, tt.want)
			}
		})
	}

	if got := Slots(shape); got != 2 {
		t.Errorf("Slots(Shape) = %d, want 2", got)
	}

	// name, tag, center.x, center.y, r
	if got := Slots(circle); got != 5 {
		t.Errorf("Slots(Circle) = %d, want 5", got)
	}
}

func TestFieldType(t *testing.T) {
	point, _, circle := layout()

	tests := []struct {
		slot int
		want Type
		ok   bool
	}{
		{-1, nil, false},
		{0, String, true}, // inherited
		{1, Float, true},  // inherited
		{2, point, true},
		{3, Int, true}, // inside center
		{4, Float, true},
		{5, nil, false},
	}

	for _, tt := range tests {
		got, ok := FieldType(circle, tt.slot)
		if ok != tt.ok || got != tt.want {
			t.Errorf("FieldType(Circle, %d) = %v, %v; want %v, %v", tt.slot, got, ok, tt.want, tt.ok)
		}
	}
}

func TestBase(t *testing.T) {
	e := &Enum{Name: "Color"}

	if Base(e) != KindInt {
		t.Errorf("Base(enum) = %v, want int", Base(e))
	}

	if Base(Float) != KindFloat {
		t.Errorf("Base(float) = %v, want float", Base(Float))
	}
}

func TestDescribe(t *testing.T) {
	_, _, circle := layout()

	want := "class Circle : Shape { center Point, r float }"
	if got := Describe(circle); got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}

	if got := Describe(VectorOf(Int)); got != "vector [int]" {
		t.Errorf("Describe = %q", got)
	}
}

func TestRegistry(t *testing.T) {
	point, shape, circle := layout()
	r := NewRegistry()

	for _, rec := range []Record{point, shape, circle} {
		if err := r.Define(rec); err != nil {
			t.Fatalf("Define(%s): %v", rec, err)
		}
	}

	if err := r.Define(point); !errors.Is(err, ErrDuplicate) {
		t.Errorf("redefine error = %v, want ErrDuplicate", err)
	}

	if err := r.Define(NewStruct("int", nil)); !errors.Is(err, ErrDuplicate) {
		t.Errorf("shadowing a predeclared type: %v, want ErrDuplicate", err)
	}

	e, err := r.DefineEnum("Color",
		EnumValue{Name: "Red", Value: 0},
		EnumValue{Name: "Green", Value: 5},
	)
	if err != nil {
		t.Fatalf("DefineEnum: %v", err)
	}

	if v, ok := r.LookupEnum("Green", e.Table); !ok || v != 5 {
		t.Errorf("LookupEnum(Green) = %d, %v", v, ok)
	}

	if _, ok := r.LookupEnum("Blue", e.Table); ok {
		t.Error("LookupEnum(Blue) succeeded")
	}

	if _, ok := r.LookupEnum("Red", 99); ok {
		t.Error("LookupEnum on missing table succeeded")
	}

	if got := len(r.EnumValues(e.Table)); got != 2 {
		t.Errorf("EnumValues = %d values, want 2", got)
	}

	want := []string{"Point", "Shape", "Circle", "Color"}
	names := r.Names()

	if len(names) != len(want) {
		t.Fatalf("Names() = %v, want %v", names, want)
	}

	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestRegistryResolve(t *testing.T) {
	point, _, _ := layout()
	r := NewRegistry()

	if err := r.Define(point); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		expr string
		want string
		err  error
	}{
		{"int", "int", nil},
		{" any ", "any", nil},
		{"Point", "Point", nil},
		{"[Point]", "[Point]", nil},
		{"[[float]]", "[[float]]", nil},
		{"Square", "", ErrUnknown},
		{"[Square]", "", ErrUnknown},
		{"[int", "", ErrSyntax},
		{"", "", ErrSyntax},
		{"in t", "", ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := r.Resolve(tt.expr)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Resolve(%q) error = %v, want %v", tt.expr, err, tt.err)
			}

			if err == nil && got.String() != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.expr, got, tt.want)
			}
		})
	}
}

func TestRegistryConcurrent(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Go(func() {
			name := string(rune('A' + i))
			if err := r.Define(NewStruct(name, nil)); err != nil {
				t.Error(err)
			}

			for range 100 {
				r.Lookup(name)
				r.Names()
			}
		})
	}

	wg.Wait()

	if got := len(r.Names()); got != 8 {
		t.Errorf("Names() has %d entries, want 8", got)
	}
}
