package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/datalit/lang/schema"
	"github.com/ardnew/datalit/log"
	"github.com/ardnew/datalit/pkg"
	"github.com/ardnew/datalit/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// exampleSchema is the file name of the schema written by init --example.
const exampleSchema = "example.yaml"

// ignoreFlags are flag name prefixes never written to the configuration.
var ignoreFlags = []string{"help", "version", profile.Tag}

// Init generates a default configuration file with current flag values.
type Init struct {
	Force   bool `help:"Overwrite existing files."                                  short:"f"`
	Example bool `help:"Also write an example schema to the schema directory."`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		panic("internal error: kong context undefined")
	}

	confPath := kongVar(ctx, ConfigIdentifier)
	if confPath == "" {
		panic("internal error: config path undefined")
	}

	data, err := yaml.MarshalWithOptions(configValues(ktx),
		yaml.Indent(defaultConfigIndent))
	if err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	if err := i.create(confPath, data); err != nil {
		return err
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath))

	if !i.Example {
		return nil
	}

	dir := kongVar(ctx, SchemaDirIdentifier)
	if dir == "" {
		panic("internal error: schema directory undefined")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return ErrWriteConfig.With(slog.String("dir", dir)).Wrap(err)
	}

	path := filepath.Join(dir, exampleSchema)
	if err := i.create(path, schema.Example); err != nil {
		return err
	}

	log.DebugContext(ctx, "wrote example schema", slog.String("path", path))

	return nil
}

// create writes data to path, refusing to replace an existing file unless
// --force was given.
func (i *Init) create(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", path), slog.Bool("exists", true)).
			Wrap(pkg.ErrConfigExists)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ErrWriteConfig.With(slog.String("file", path)).Wrap(err)
	}

	return nil
}

// configValues returns the current value of every configurable flag in
// declaration order. Unset strings and empty lists are omitted.
func configValues(ktx *kong.Context) yaml.MapSlice {
	var out yaml.MapSlice

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignoreFlags, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if v, ok := configValue(ktx.FlagValue(flag)); ok {
			out = append(out, yaml.MapItem{Key: flag.Name, Value: v})
		}
	}

	return out
}

func configValue(val any) (any, bool) {
	switch v := val.(type) {
	case nil:
		return nil, false

	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return v, true

	case string:
		return v, v != ""

	case []string:
		return v, len(v) > 0

	case fmt.Stringer:
		return v.String(), true

	default:
		return fmt.Sprint(v), true
	}
}
