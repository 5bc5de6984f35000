package heap

import (
	"sync"
	"testing"

	"github.com/ardnew/datalit/lang/types"
	"github.com/ardnew/datalit/lang/value"
)

func TestArenaReleaseRecursive(t *testing.T) {
	a := New()
	vt := types.VectorOf(types.String)

	s1 := a.NewString("a")
	s2 := a.NewString("b")
	vec := a.NewVector(2, vt)
	a.Init(vec, []value.Value{value.Ref(s1), value.Ref(s2)})

	if got := a.Live(); got != 3 {
		t.Fatalf("Live() = %d, want 3", got)
	}

	a.Release(vec)

	if got := a.Live(); got != 0 {
		t.Errorf("Live() after release = %d, want 0", got)
	}

	if got := a.Released(); got != 3 {
		t.Errorf("Released() = %d, want 3", got)
	}
}

func TestArenaReleaseShared(t *testing.T) {
	a := New()

	s := a.NewString("shared")
	s.Inc()

	a.Release(s)

	if got := a.Live(); got != 1 {
		t.Fatalf("Live() = %d, want 1 while a reference remains", got)
	}

	a.Release(s)

	if got := a.Live(); got != 0 {
		t.Errorf("Live() = %d, want 0", got)
	}
}

func TestArenaInitStructVector(t *testing.T) {
	a := New()
	point := types.NewStruct("Point", nil,
		types.Field{Name: "x", Type: types.Int},
		types.Field{Name: "y", Type: types.Int},
	)

	vec := a.NewVector(2, types.VectorOf(point))
	a.Init(vec, []value.Value{
		value.Int(1), value.Int(2),
		value.Int(3), value.Int(4),
	})

	elems := vec.Elems()
	if len(elems) != 2 {
		t.Fatalf("len = %d, want 2", len(elems))
	}

	for i, want := range [][2]int64{{1, 2}, {3, 4}} {
		e := elems[i]
		if e.Kind() != value.KindStruct || e.StructType() != point {
			t.Fatalf("elem %d = %v, want Point struct", i, e)
		}

		if e.Slots()[0].Int() != want[0] || e.Slots()[1].Int() != want[1] {
			t.Errorf("elem %d = %v, want %v", i, e, want)
		}
	}
}

func TestArenaConcurrent(t *testing.T) {
	a := New()

	var wg sync.WaitGroup

	for range 8 {
		wg.Go(func() {
			for range 100 {
				a.Release(a.NewString("x"))
			}
		})
	}

	wg.Wait()

	if a.Allocated() != 800 || a.Live() != 0 {
		t.Errorf("Allocated() = %d, Live() = %d; want 800, 0", a.Allocated(), a.Live())
	}
}
