package lang

import (
	"github.com/ardnew/datalit/lang/heap"
	"github.com/ardnew/datalit/lang/types"
	"github.com/ardnew/datalit/lang/value"
	"github.com/ardnew/datalit/log"
)

// DefaultMaxDepth is the default maximum nesting depth of a literal.
// Users may modify this before parsing to change the default.
var DefaultMaxDepth = 512

// Allocator creates and releases the heap objects of parsed values.
// Implementations must be safe for concurrent use when shared by
// concurrent parses.
type Allocator interface {
	NewString(s string) *value.Object
	NewVector(n int, t *types.Vector) *value.Object
	NewRecord(n int, t *types.Class) *value.Object
	Init(obj *value.Object, vals []value.Value)
	Release(obj *value.Object)
}

// Registry resolves user type names and enumeration constants.
type Registry interface {
	Lookup(name string) (types.Type, bool)
	LookupEnum(name string, table int) (int64, bool)
}

// Resolver is a [Registry] that also resolves type expressions such as
// "[Point]".
type Resolver interface {
	Registry
	Resolve(expr string) (types.Type, error)
}

// DefaultAllocator is the allocator used when no [WithAllocator] option is
// given.
var DefaultAllocator Allocator = heap.New()

// config holds the options of a single parse.
type config struct {
	logger   log.Logger
	alloc    Allocator
	maxDepth int
}

// Option configures parsing behavior.
type Option func(*config)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithAllocator sets the allocator that creates heap objects.
func WithAllocator(alloc Allocator) Option {
	return func(c *config) {
		c.alloc = alloc
	}
}

// WithMaxDepth sets the maximum nesting depth of aggregates and negations.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		c.maxDepth = depth
	}
}

func makeConfig(opts ...Option) config {
	c := config{
		alloc:    DefaultAllocator,
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}
