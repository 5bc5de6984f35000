// Package heap provides the allocator for heap objects created while
// parsing literals.
//
// An [Arena] creates strings, vectors and class records, initializes their
// storage, and releases them when their reference count drops to zero.
// Releasing an aggregate releases the objects referenced by its elements.
// The arena keeps running statistics so that callers can verify that every
// object allocated by a failed parse was released.
package heap

import (
	"sync/atomic"

	"github.com/ardnew/datalit/lang/types"
	"github.com/ardnew/datalit/lang/value"
)

// Arena allocates and releases heap objects.
// An Arena is safe for concurrent use.
type Arena struct {
	allocated atomic.Int64
	released  atomic.Int64
}

// New returns an empty arena.
func New() *Arena { return &Arena{} }

// NewString allocates a string object.
func (a *Arena) NewString(s string) *value.Object {
	a.allocated.Add(1)

	return value.NewString(s)
}

// NewVector allocates a vector of n elements of type t.
func (a *Arena) NewVector(n int, t *types.Vector) *value.Object {
	a.allocated.Add(1)

	return value.NewVector(n, t)
}

// NewRecord allocates a class record with n slots.
func (a *Arena) NewRecord(n int, t *types.Class) *value.Object {
	a.allocated.Add(1)

	return value.NewRecord(n, t)
}

// Init initializes the storage of obj from vals.
func (a *Arena) Init(obj *value.Object, vals []value.Value) {
	obj.Init(vals)
}

// Release drops one reference to obj. When no references remain, the
// objects referenced by its elements are released as well.
func (a *Arena) Release(obj *value.Object) {
	if obj == nil || obj.Dec() > 0 {
		return
	}

	a.released.Add(1)

	for _, e := range obj.Elems() {
		e.Objects(a.Release)
	}
}

// ReleaseValue releases the objects referenced by v. Callers use it to
// dispose of a parse result they own.
func (a *Arena) ReleaseValue(v value.Value) {
	v.Objects(a.Release)
}

// Allocated returns the number of objects allocated by the arena.
func (a *Arena) Allocated() int64 { return a.allocated.Load() }

// Released returns the number of objects whose last reference was released.
func (a *Arena) Released() int64 { return a.released.Load() }

// Live returns the number of allocated objects not yet released.
func (a *Arena) Live() int64 { return a.Allocated() - a.Released() }
