package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/datalit/lang/schema"
	"github.com/ardnew/datalit/lang/types"
	"github.com/ardnew/datalit/log"
	"github.com/ardnew/datalit/pkg"
)

type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(contextKey{}).(*kong.Context)

	return ktx
}

// kongVar returns the kong variable name, or "" outside a kong invocation.
func kongVar(ctx context.Context, name string) string {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ""
	}

	return ktx.Model.Vars()[name]
}

type schemaKey struct{}

// schemas are the schema documents named on the command line and the
// directories searched for bare names.
type schemas struct {
	names []string
	path  []string
}

// WithSchemas returns a context carrying the schema names given with
// --schema and the search path used to resolve them.
func WithSchemas(ctx context.Context, names, path []string) context.Context {
	return context.WithValue(ctx, schemaKey{}, schemas{names: names, path: path})
}

func schemasFrom(ctx context.Context) schemas {
	s, _ := ctx.Value(schemaKey{}).(schemas)

	return s
}

// loadRegistry builds the registry of the schemas in ctx. Without schemas
// only the predeclared types are available.
func loadRegistry(ctx context.Context) (*types.Registry, error) {
	s := schemasFrom(ctx)
	if len(s.names) == 0 {
		return types.NewRegistry(), nil
	}

	files, err := findSchemas(s.names, s.path)
	if err != nil {
		return nil, ErrLoadSchema.Wrap(err)
	}

	log.DebugContext(ctx, "loading schemas",
		slog.Any("files", files),
		slog.Any("path", s.path))

	reg, err := schema.LoadFiles(ctx, files, schema.WithLogger(log.Default()))
	if err != nil {
		return nil, ErrLoadSchema.Wrap(err).With(slog.Any("files", files))
	}

	return reg, nil
}

// schemaExts are tried in order when resolving a bare schema name.
var schemaExts = []string{"", ".yaml", ".yml"}

// findSchemas resolves each name to a file. A name that is an existing file
// is used as is; otherwise each directory of path is searched for the name
// with each of [schemaExts]. Names that resolve to the same file are
// loaded once.
func findSchemas(names, path []string) ([]string, error) {
	files := make([]string, 0, len(names))
	seen := make(map[fileKey]struct{}, len(names))

	for _, name := range names {
		file, ok := findSchema(name, path)
		if !ok {
			return nil, pkg.ErrSchemaNotFound.Wrapf("%s", name)
		}

		if key, ok := uniqueFile(file, seen); ok {
			seen[key] = struct{}{}
			files = append(files, file)
		}
	}

	return files, nil
}

func findSchema(name string, path []string) (string, bool) {
	if isFile(name) {
		return name, true
	}

	if filepath.IsAbs(name) {
		return "", false
	}

	for _, dir := range path {
		for _, ext := range schemaExts {
			if file := filepath.Join(dir, name+ext); isFile(file) {
				return file, true
			}
		}
	}

	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}

// fileKey identifies a file by device and inode, so symlinks and relative
// paths to the same file compare equal.
type fileKey struct {
	dev uint64
	ino uint64
}

// uniqueFile returns the key of path and whether it is absent from seen.
// Files whose identity cannot be determined are always unique.
func uniqueFile(path string, seen map[fileKey]struct{}) (fileKey, bool) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fileKey{}, true
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, true
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileKey{}, true
	}

	key := fileKey{dev: uint64(stat.Dev), ino: stat.Ino}
	_, dup := seen[key]

	return key, !dup
}

// output returns w, or stdout if w is nil.
func output(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}

	return w
}
