package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/datalit/lang"
	"github.com/ardnew/datalit/lang/heap"
	"github.com/ardnew/datalit/lang/value"
	"github.com/ardnew/datalit/log"
	"github.com/ardnew/datalit/pkg"
)

// stdinSource selects standard input as the literal source.
const stdinSource = "-"

// Output formats of the parse command.
const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatTree    = "tree"
	FormatLiteral = "literal"
)

// Parse parses one literal against a type from the loaded schemas.
type Parse struct {
	Type    string `arg:"" help:"Target type: a type name or [T] for a vector."                   name:"type"`
	Literal *string `arg:"" help:"Literal text. Read from --source when omitted."                 name:"literal" optional:""`
	Source  string `       help:"File holding the literal, or '-' for stdin."                     default:"-"     short:"f"`
	Format  string `       help:"Output format."                                                  default:"json"  enum:"json,yaml,tree,literal" short:"o"`
	Indent  int    `       help:"Indent width for json and yaml output; 0 for compact output."    default:"2"     short:"i"`
	Query   string `       help:"expr-lang expression applied to the result, which is bound to it." short:"q"`

	Output io.Writer `kong:"-"`
	Input  io.Reader `kong:"-"`
}

// Run executes the parse command.
func (p *Parse) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	reg, err := loadRegistry(ctx)
	if err != nil {
		return err
	}

	arena := heap.New()
	opts := []lang.Option{lang.WithAllocator(arena), lang.WithLogger(log.Default())}

	var v value.Value

	// An empty literal argument is still a literal.
	if p.Literal != nil {
		v, err = lang.ParseData(ctx, reg, p.Type, *p.Literal, opts...)
	} else {
		v, err = p.parseSource(ctx, reg, opts)
	}

	if err != nil {
		return ErrParse.Wrap(err).With(slog.String("type", p.Type))
	}

	defer arena.ReleaseValue(v)

	log.DebugContext(ctx, "parsed literal",
		slog.String("type", p.Type),
		slog.Int64("objects", arena.Allocated()))

	if p.Query != "" {
		result, err := query(p.Query, v.ToNative())
		if err != nil {
			return err
		}

		return p.write(ctx, func(w io.Writer) error { return writeNative(w, result, p.Format, p.Indent) })
	}

	return p.write(ctx, func(w io.Writer) error { return p.format(ctx, w, v) })
}

func (p *Parse) parseSource(ctx context.Context, reg lang.Resolver, opts []lang.Option) (value.Value, error) {
	t, err := reg.Resolve(p.Type)
	if err != nil {
		return value.Nil(), lang.ErrTypeMismatch.Wrap(err)
	}

	r := p.Input
	if r == nil {
		r = os.Stdin
	}

	if p.Source != stdinSource {
		f, err := os.Open(p.Source)
		if err != nil {
			return value.Nil(), pkg.ErrReadInput.Wrap(err)
		}
		defer f.Close()

		r = f
	}

	return lang.ParseReader(ctx, reg, t, r, opts...)
}

func (p *Parse) write(ctx context.Context, fn func(io.Writer) error) error {
	if err := fn(output(p.Output)); err != nil {
		return ErrWriteOutput.Wrap(err).With(slog.String("format", p.Format))
	}

	log.TraceContext(ctx, "output written", slog.String("format", p.Format))

	return nil
}

func (p *Parse) format(ctx context.Context, w io.Writer, v value.Value) error {
	switch p.Format {
	case FormatJSON, "":
		if err := lang.FormatJSON(ctx, w, v, p.Indent); err != nil {
			return pkg.ErrJSONMarshal.Wrap(err)
		}

		return nil

	case FormatYAML:
		if err := lang.FormatYAML(ctx, w, v, p.Indent); err != nil {
			return pkg.ErrYAMLMarshal.Wrap(err)
		}

		return nil

	case FormatTree:
		return lang.FormatTree(ctx, w, v)

	case FormatLiteral:
		return lang.Format(ctx, w, v)

	default:
		return pkg.ErrInvalidFormat.Wrapf("%q (valid: %s)", p.Format,
			strings.Join([]string{FormatJSON, FormatYAML, FormatTree, FormatLiteral}, ", "))
	}
}

// query evaluates an expr-lang expression with the native result bound to
// the variable it.
func query(src string, it any) (any, error) {
	env := map[string]any{"it": it}

	program, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return nil, pkg.ErrQuery.Wrap(err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, pkg.ErrQuery.Wrap(err)
	}

	return out, nil
}

// writeNative writes a query result. Results are plain Go values, so the
// tree and literal formats print them as JSON.
func writeNative(w io.Writer, v any, format string, indent int) error {
	if format == FormatYAML {
		opts := []yaml.EncodeOption{yaml.Indent(max(indent, 1))}
		if indent == 0 {
			opts = []yaml.EncodeOption{yaml.Flow(true)}
		}

		data, err := yaml.MarshalWithOptions(v, opts...)
		if err != nil {
			return pkg.ErrYAMLMarshal.Wrap(err)
		}

		_, err = w.Write(data)

		return err
	}

	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(v, "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return pkg.ErrJSONMarshal.Wrap(err)
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}
