package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/goccy/go-yaml"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/datalit/lang/schema"
	"github.com/ardnew/datalit/lang/types"
	"github.com/ardnew/datalit/log"
	"github.com/ardnew/datalit/pkg"
)

// typesSchema selects schema document output of the types command.
const typesSchema = "schema"

// Types lists the types declared by the loaded schemas.
type Types struct {
	Pattern string `arg:"" help:"Show only types whose names fuzzy-match the pattern." optional:""`
	Format  string `       help:"Output format: one line per type, or a merged schema document." default:"describe" enum:"describe,schema" short:"o"`

	Output io.Writer `kong:"-"`
}

// Run executes the types command.
func (c *Types) Run(ctx context.Context) error {
	if len(schemasFrom(ctx).names) == 0 {
		return ErrLoadSchema.Wrap(pkg.ErrNoSchema)
	}

	reg, err := loadRegistry(ctx)
	if err != nil {
		return err
	}

	names := matchNames(reg.Names(), c.Pattern)

	log.DebugContext(ctx, "listing types",
		slog.String("pattern", c.Pattern),
		slog.Int("count", len(names)))

	w := output(c.Output)

	if c.Format == typesSchema {
		data, err := exportSchema(reg, names).Marshal()
		if err != nil {
			return ErrWriteOutput.Wrap(pkg.ErrYAMLMarshal.Wrap(err))
		}

		if _, err := w.Write(data); err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	for _, name := range names {
		t, _ := reg.Lookup(name)
		if _, err := fmt.Fprintln(w, types.Describe(t)); err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	return nil
}

// exportSchema returns the schema document declaring the named types of reg.
func exportSchema(reg *types.Registry, names []string) *schema.Document {
	doc := schema.Export(reg)
	keep := func(name string) bool { return slices.Contains(names, name) }

	maps.DeleteFunc(doc.Enums, func(name string, _ yaml.MapSlice) bool { return !keep(name) })
	maps.DeleteFunc(doc.Structs, func(name string, _ schema.Record) bool { return !keep(name) })
	maps.DeleteFunc(doc.Classes, func(name string, _ schema.Record) bool { return !keep(name) })

	return doc
}

// matchNames returns names in order, or the fuzzy matches of pattern in
// rank order.
func matchNames(names []string, pattern string) []string {
	if pattern == "" {
		return names
	}

	matches := fuzzy.Find(pattern, names)
	out := make([]string, len(matches))

	for i, m := range matches {
		out[i] = m.Str
	}

	return out
}
