package lang

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/klauspost/readahead"

	"github.com/ardnew/datalit/lang/lexer"
	"github.com/ardnew/datalit/lang/token"
	"github.com/ardnew/datalit/lang/types"
	"github.com/ardnew/datalit/lang/value"
	"github.com/ardnew/datalit/log"
)

// anyVector is the vector type of a bracketed literal in a wildcard slot.
var anyVector = types.VectorOf(types.Any)

// Parse parses text as a single value of type t.
//
// The literal may be followed by one line break and must then end. The
// caller owns the heap objects of the returned value. On error every
// object allocated during the parse has been released and the returned
// value is nil.
func Parse(
	ctx context.Context,
	reg Registry,
	t types.Type,
	text string,
	opts ...Option,
) (value.Value, error) {
	cfg := makeConfig(opts...)

	p := &parser{
		lex:      lexer.New(text),
		reg:      reg,
		alloc:    cfg.alloc,
		stack:    newStack(),
		ledger:   newLedger(cfg.alloc),
		logger:   cfg.logger,
		maxDepth: cfg.maxDepth,
	}

	p.logger.TraceContext(ctx, "parse literal",
		slog.String("type", t.String()),
		slog.Int("source_bytes", len(text)))

	v, err := p.parse(t)
	if err != nil {
		released := p.ledger.rollback()

		p.logger.DebugContext(ctx, "parse failed",
			slog.Any("error", err),
			slog.Int("released", released))

		return value.Nil(), err
	}

	p.logger.TraceContext(ctx, "parse complete",
		slog.String("kind", v.Kind().String()),
		slog.Int("objects", len(p.ledger.entries)))

	return v, nil
}

// ParseReader reads all of r and parses it as a single value of type t.
func ParseReader(
	ctx context.Context,
	reg Registry,
	t types.Type,
	r io.Reader,
	opts ...Option,
) (value.Value, error) {
	// Wrap reader with async read-ahead for concurrent I/O.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return value.Nil(), ErrReadInput.Wrap(err)
	}

	return Parse(ctx, reg, t, string(data), opts...)
}

// ParseData resolves the type expression typ and parses text against it.
func ParseData(
	ctx context.Context,
	res Resolver,
	typ string,
	text string,
	opts ...Option,
) (value.Value, error) {
	t, err := res.Resolve(typ)
	if err != nil {
		return value.Nil(), ErrTypeMismatch.Wrap(err).
			With(slog.String("type", typ))
	}

	return Parse(ctx, res, t, text, opts...)
}

// parser holds the state of one parse. It is never shared.
type parser struct {
	lex      *lexer.Lexer
	reg      Registry
	alloc    Allocator
	stack    *stack
	ledger   *ledger
	logger   log.Logger
	depth    int
	maxDepth int
}

func (p *parser) parse(t types.Type) (value.Value, error) {
	if err := p.next(); err != nil {
		return value.Nil(), err
	}

	if _, err := p.parseFactor(t, true); err != nil {
		return value.Nil(), err
	}

	if err := p.gobble(token.Linefeed); err != nil {
		return value.Nil(), err
	}

	if tok := p.tok(); tok.Kind != token.EOF {
		return value.Nil(), ErrSyntax.WithPosition(tok.Pos).
			Wrapf("end-of-file expected, found: `%s`", tok)
	}

	// A struct leaves its slots on the stack; the caller receives them as
	// one value.
	if s, ok := t.(*types.Struct); ok {
		p.stack.push(value.Struct(s, p.stack.take(types.Width(s))))
	}

	if n := p.stack.len(); n != 1 {
		return value.Nil(), ErrSyntax.Wrapf("%d values left on stack", n)
	}

	return p.stack.pop(), nil
}

// parseFactor parses one value against t and returns the kind of the
// literal that was parsed. When push is false the value is validated and
// discarded.
func (p *parser) parseFactor(t types.Type, push bool) (types.Kind, error) {
	p.depth++
	defer func() { p.depth-- }()

	tok := p.tok()

	if p.depth > p.maxDepth {
		return 0, ErrSyntax.WithPosition(tok.Pos).
			Wrapf("maximum nesting depth %d exceeded", p.maxDepth)
	}

	switch tok.Kind {
	case token.Int:
		if err := p.expectType(types.KindInt, t, tok.Pos); err != nil {
			return 0, err
		}

		if push {
			p.stack.push(value.Int(tok.Int))
		}

		return types.KindInt, p.next()

	case token.Float:
		if err := p.expectType(types.KindFloat, t, tok.Pos); err != nil {
			return 0, err
		}

		if push {
			p.stack.push(value.Float(tok.Float))
		}

		return types.KindFloat, p.next()

	case token.String:
		if err := p.expectType(types.KindString, t, tok.Pos); err != nil {
			return 0, err
		}

		if push {
			obj := p.alloc.NewString(tok.Text)
			p.ledger.track(obj)
			p.stack.push(value.Ref(obj))
		}

		return types.KindString, p.next()

	case token.Nil:
		if err := p.expectType(types.KindNil, t, tok.Pos); err != nil {
			return 0, err
		}

		if push {
			p.stack.push(value.Nil())
		}

		return types.KindNil, p.next()

	case token.Minus:
		return p.parseNegation(t, push)

	case token.LBracket:
		if err := p.expectType(types.KindVector, t, tok.Pos); err != nil {
			return 0, err
		}

		if err := p.next(); err != nil {
			return 0, err
		}

		vt, ok := t.(*types.Vector)
		if !ok {
			vt = anyVector
		}

		// Elements without slots leave nothing to count.
		if types.Width(vt.Elem) == 0 {
			return 0, ErrTypeMismatch.WithPosition(tok.Pos).
				Wrapf("vector element type `%s` has no fields", vt.Elem)
		}

		return types.KindVector, p.parseElems(token.RBracket, vt, -1, push)

	case token.Ident:
		if e, ok := t.(*types.Enum); ok {
			return p.parseEnum(e, push)
		}

		return p.parseRecord(t, push)

	default:
		return 0, ErrSyntax.WithPosition(tok.Pos).
			Wrapf("illegal start of expression: `%s`", tok)
	}
}

// parseNegation parses a unary minus and its operand. The operand must
// parse as an int or float; the target type is not consulted, so a
// negated number is accepted in a wildcard slot and a negated enum name
// is accepted as its enum value.
func (p *parser) parseNegation(t types.Type, push bool) (types.Kind, error) {
	pos := p.tok().Pos

	if err := p.next(); err != nil {
		return 0, err
	}

	kind, err := p.parseFactor(t, push)
	if err != nil {
		return 0, err
	}

	if kind != types.KindInt && kind != types.KindFloat {
		return 0, ErrUnaryMinus.WithPosition(pos).
			Wrap(errors.New("unary minus: numeric value expected")).
			With(slog.String("kind", kind.String()))
	}

	if push {
		v, _ := p.stack.pop().Negate()
		p.stack.push(v)
	}

	return kind, nil
}

func (p *parser) parseEnum(e *types.Enum, push bool) (types.Kind, error) {
	tok := p.tok()

	v, ok := p.reg.LookupEnum(tok.Text, e.Table)
	if !ok {
		return 0, ErrUnknownEnum.WithPosition(tok.Pos).
			Wrapf("unknown enum value `%s`", tok.Text).
			With(slog.String("enum", e.Name))
	}

	if push {
		p.stack.push(value.Int(v))
	}

	return types.KindInt, p.next()
}

// parseRecord parses a named aggregate "Name { elems }". The target must
// be a record whose name matches, or the wildcard, in which case the name
// is resolved through the registry.
func (p *parser) parseRecord(t types.Type, push bool) (types.Kind, error) {
	tok := p.tok()

	rec, isRecord := t.(types.Record)
	if !isRecord && t.Kind() != types.KindAny {
		return 0, ErrTypeMismatch.WithPosition(tok.Pos).
			Wrapf("class/struct type required, `%s` given", t)
	}

	if err := p.next(); err != nil {
		return 0, err
	}

	if err := p.expect(token.LCurly); err != nil {
		return 0, err
	}

	switch {
	case isRecord && rec.String() != tok.Text:
		return 0, ErrTypeMismatch.WithPosition(tok.Pos).
			Wrapf("class/struct type `%s` required, `%s` given", rec, tok.Text)

	case !isRecord:
		named, ok := p.reg.Lookup(tok.Text)
		if !ok {
			return 0, ErrTypeMismatch.WithPosition(tok.Pos).
				Wrapf("unknown type `%s`", tok.Text)
		}

		if rec, isRecord = named.(types.Record); !isRecord {
			return 0, ErrTypeMismatch.WithPosition(tok.Pos).
				Wrapf("class/struct type required, `%s` given", named)
		}
	}

	n := types.Slots(rec)

	if err := p.parseElems(token.RCurly, rec, n, push); err != nil {
		return 0, err
	}

	// A struct in a wildcard slot has no enclosing layout to hold its slots.
	if s, ok := rec.(*types.Struct); ok && push && t.Kind() == types.KindAny {
		p.stack.push(value.Struct(s, p.stack.take(n)))
	}

	return rec.Kind(), nil
}

// parseElems parses the elements of an aggregate of type t up to the
// terminator end. For records, expected is the number of slots in the
// layout: extra elements are validated and dropped, and missing trailing
// slots are filled with defaults. Vectors pass -1.
func (p *parser) parseElems(
	end token.Kind,
	t types.Type,
	expected int,
	push bool,
) error {
	if err := p.gobble(token.Linefeed); err != nil {
		return err
	}

	start := p.stack.len()
	count := 0
	endPos := p.tok().Pos

	if p.tok().Kind == end {
		if err := p.next(); err != nil {
			return err
		}
	} else {
		for {
			if expected >= 0 && count >= expected {
				if _, err := p.parseFactor(types.Any, false); err != nil {
					return err
				}
			} else {
				et := elemType(t, count)

				if _, err := p.parseFactor(et, push); err != nil {
					return err
				}

				count += types.Width(et)
			}

			haslf := p.tok().Kind == token.Linefeed
			if haslf {
				if err := p.next(); err != nil {
					return err
				}
			}

			if p.tok().Kind == end {
				endPos = p.tok().Pos

				if err := p.next(); err != nil {
					return err
				}

				break
			}

			if !haslf {
				if err := p.expect(token.Comma); err != nil {
					return err
				}
			}
		}
	}

	if !push {
		return nil
	}

	if rec, ok := t.(types.Record); ok {
		for ; count < expected; count++ {
			if err := p.pushDefault(rec, count, endPos); err != nil {
				return err
			}
		}
	}

	n := p.stack.len() - start

	switch t := t.(type) {
	case *types.Class:
		p.commit(p.alloc.NewRecord(n, t), n)

	case *types.Vector:
		p.commit(p.alloc.NewVector(n/types.Width(t.Elem), t), n)

	case *types.Struct:
		// Slots stay on the stack for the enclosing aggregate.
	}

	return nil
}

// commit moves the last n stack values into obj and pushes obj.
func (p *parser) commit(obj *value.Object, n int) {
	vals := p.stack.take(n)

	p.alloc.Init(obj, vals)
	p.ledger.adopt(vals)
	p.ledger.track(obj)
	p.stack.push(value.Ref(obj))
}

// pushDefault pushes the zero value of the scalar at slot of rec.
func (p *parser) pushDefault(rec types.Record, slot int, pos token.Position) error {
	st := slotType(rec, slot)

	switch types.Base(st) {
	case types.KindInt:
		p.stack.push(value.Int(0))

	case types.KindFloat:
		p.stack.push(value.Float(0))

	case types.KindNil:
		p.stack.push(value.Nil())

	default:
		return ErrMissingDefault.WithPosition(pos).
			Wrap(errors.New("no default value exists for missing struct elements")).
			With(slog.String("type", rec.String()), slog.Int("slot", slot))
	}

	return nil
}

// elemType returns the type expected for the element at slot of t.
func elemType(t types.Type, slot int) types.Type {
	switch t := t.(type) {
	case *types.Vector:
		return t.Elem

	case types.Record:
		if ft, ok := types.FieldType(t, slot); ok {
			return ft
		}
	}

	return types.Any
}

// slotType returns the scalar type at slot of rec, descending into inline
// struct fields.
func slotType(rec types.Record, slot int) types.Type {
	ft, ok := types.FieldType(rec, slot)

	for ok {
		s, isStruct := ft.(*types.Struct)
		if !isStruct {
			return ft
		}

		ft, ok = types.FieldType(s, 0)
	}

	return types.Any
}

func (p *parser) expectType(given types.Kind, required types.Type, pos token.Position) error {
	if required.Kind() == types.KindAny || types.Base(required) == given {
		return nil
	}

	return ErrTypeMismatch.WithPosition(pos).
		Wrapf("type `%s` required, `%s` given", required, given)
}

func (p *parser) tok() token.Token { return p.lex.Token() }

func (p *parser) next() error {
	if err := p.lex.Next(); err != nil {
		return lexicalError(err)
	}

	return nil
}

// expect consumes a token of kind k or fails.
func (p *parser) expect(k token.Kind) error {
	if tok := p.tok(); tok.Kind != k {
		return ErrSyntax.WithPosition(tok.Pos).
			Wrapf("`%s` expected, found: `%s`", k, tok)
	}

	return p.next()
}

// gobble consumes a token of kind k if present.
func (p *parser) gobble(k token.Kind) error {
	if p.tok().Kind != k {
		return nil
	}

	return p.next()
}
