package schema

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/datalit/lang/types"
	"github.com/ardnew/datalit/log"
)

// cache stores registries keyed by the combined hash of their documents.
var cache sync.Map

// entry tracks the registry built from one set of documents.
type entry struct {
	once sync.Once
	reg  *types.Registry
	err  error
}

type config struct {
	logger log.Logger
	cache  bool
}

// Option configures schema loading.
type Option func(*config)

// WithLogger sets the structured logger for trace-level debugging.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithCache enables or disables the registry cache (enabled by default).
// A cached registry is shared by every caller loading the same documents
// and must not be modified.
func WithCache(enable bool) Option {
	return func(c *config) {
		c.cache = enable
	}
}

// Load builds one registry from the given schema documents.
//
// Documents are applied in order, so a later document may refer to types
// declared by an earlier one.
func Load(ctx context.Context, docs [][]byte, opts ...Option) (*types.Registry, error) {
	cfg := config{cache: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !cfg.cache {
		return build(ctx, cfg.logger, docs)
	}

	key := hashDocs(docs)
	e := new(entry)
	v, hit := cache.LoadOrStore(key, e)
	e = v.(*entry)

	cfg.logger.TraceContext(ctx, "schema cache lookup",
		slog.String("key", strconv.FormatUint(key, 16)),
		slog.Bool("cache_hit", hit))

	e.once.Do(func() {
		e.reg, e.err = build(ctx, cfg.logger, docs)
	})

	return e.reg, e.err
}

// LoadReader reads one schema document from r and builds its registry.
func LoadReader(ctx context.Context, r io.Reader, opts ...Option) (*types.Registry, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}

	return Load(ctx, [][]byte{data}, opts...)
}

// LoadFiles reads the named schema documents and builds one registry.
func LoadFiles(ctx context.Context, paths []string, opts ...Option) (*types.Registry, error) {
	docs := make([][]byte, 0, len(paths))

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}

		data, err := readAll(f)
		_ = f.Close()

		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		docs = append(docs, data)
	}

	return Load(ctx, docs, opts...)
}

func build(ctx context.Context, logger log.Logger, docs [][]byte) (*types.Registry, error) {
	reg := types.NewRegistry()

	for i, data := range docs {
		doc, err := Decode(data)
		if err != nil {
			return nil, err
		}

		if err := doc.Apply(reg); err != nil {
			return nil, err
		}

		logger.DebugContext(ctx, "schema applied",
			slog.Int("document", i),
			slog.Int("enums", len(doc.Enums)),
			slog.Int("structs", len(doc.Structs)),
			slog.Int("classes", len(doc.Classes)))
	}

	return reg, nil
}

func readAll(r io.Reader) ([]byte, error) {
	// Wrap reader with async read-ahead for concurrent I/O.
	ra := readahead.NewReader(r)
	defer ra.Close()

	return io.ReadAll(ra)
}

// hashDocs combines the xxh3 hash of each document in order.
func hashDocs(docs [][]byte) uint64 {
	buf := make([]byte, 0, 8*len(docs))

	for _, d := range docs {
		buf = binary.LittleEndian.AppendUint64(buf, xxh3.Hash(d))
	}

	return xxh3.Hash(buf)
}
