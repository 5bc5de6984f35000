package lang

import "github.com/ardnew/datalit/lang/value"

// ledger records every heap object created during one parse.
//
// An object stays a root until it is stored in an enclosing aggregate, at
// which point it is marked adopted: the aggregate now owns it and releasing
// the aggregate releases it. Rollback releases the remaining roots only, so
// no object is released twice.
type ledger struct {
	alloc   Allocator
	entries []*value.Object
	adopted map[*value.Object]struct{}
}

func newLedger(alloc Allocator) *ledger {
	return &ledger{
		alloc:   alloc,
		adopted: make(map[*value.Object]struct{}),
	}
}

func (l *ledger) track(obj *value.Object) {
	l.entries = append(l.entries, obj)
}

// adopt marks the objects referenced by vals as owned by an aggregate.
func (l *ledger) adopt(vals []value.Value) {
	for _, v := range vals {
		v.Objects(func(obj *value.Object) {
			l.adopted[obj] = struct{}{}
		})
	}
}

// roots returns the number of tracked objects not owned by an aggregate.
func (l *ledger) roots() int {
	return len(l.entries) - len(l.adopted)
}

// rollback releases every root and empties the ledger.
func (l *ledger) rollback() int {
	n := 0

	for _, obj := range l.entries {
		if _, ok := l.adopted[obj]; ok {
			continue
		}

		l.alloc.Release(obj)
		n++
	}

	l.entries = nil
	clear(l.adopted)

	return n
}
