package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/datalit/lang/lexer"
	"github.com/ardnew/datalit/lang/token"
)

// Predefined errors (sentinel values).
//
// Every error returned by the parser matches exactly one of these with
// [errors.Is].
var (
	ErrLexical        = NewError("lexical error")
	ErrSyntax         = NewError("syntax error")
	ErrTypeMismatch   = NewError("type mismatch")
	ErrUnknownEnum    = NewError("unknown enum")
	ErrMissingDefault = NewError("missing field")
	ErrUnaryMinus     = NewError("invalid negation")
	ErrReadInput      = NewError("failed to read input")
)

// Error represents a parse error with an optional source position and
// structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	pos   token.Position
	attrs []slog.Attr // Attributes for structured logging
	root  *Error      // Sentinel this error was derived from
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// Error implements the error interface.
//
// The message has the form "<line>:<col>: <msg>: <err>", omitting each
// part that is not set.
func (e *Error) Error() string {
	part := make([]string, 0, 3)

	if e.pos.IsValid() {
		part = append(part, e.pos.String())
	}

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e == t || (e.root != nil && e.root == t)
}

// Position returns the source position of the error, if known.
func (e *Error) Position() token.Position { return e.pos }

// Detail returns the wrapped message without the category or position.
func (e *Error) Detail() string {
	if e.err == nil {
		return e.msg
	}

	return e.err.Error()
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	if e.pos.IsValid() {
		attrs = append(attrs, slog.String("pos", e.pos.String()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := e.clone()
	c.err = err

	return c
}

// Wrapf creates a new Error wrapping a formatted message.
func (e *Error) Wrapf(format string, args ...any) *Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.clone()
	c.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(c.attrs, e.attrs)
	copy(c.attrs[len(e.attrs):], attrs)

	return c
}

// WithPosition returns a copy of e located at pos.
func (e *Error) WithPosition(pos token.Position) *Error {
	c := e.clone()
	c.pos = pos

	return c
}

func (e *Error) clone() *Error {
	root := e.root
	if root == nil {
		root = e
	}

	return &Error{
		msg:   e.msg,
		err:   e.err,
		pos:   e.pos,
		attrs: e.attrs, // Share attrs
		root:  root,
	}
}

// lexicalError converts an error raised by the lexer.
func lexicalError(err error) *Error {
	var le *lexer.Error
	if errors.As(err, &le) {
		return ErrLexical.WithPosition(le.Pos).Wrap(errors.New(le.Msg))
	}

	return ErrLexical.Wrap(err)
}
