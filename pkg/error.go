package pkg

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Error is a chain of errors ordered from innermost to outermost.
type Error []error

// ErrReadInput is returned when reading a literal from a file or stdin fails.
var ErrReadInput = MakeErrorf("failed to read input")

// ErrNoSchema is returned when a command needs types but no schema was
// given.
var ErrNoSchema = MakeErrorf("no schema loaded")

// ErrSchemaNotFound is returned when a schema name is not found on the
// search path.
var ErrSchemaNotFound = MakeErrorf("schema not found")

// ErrInvalidFormat is returned for an unsupported output format.
var ErrInvalidFormat = MakeErrorf("invalid format")

// ErrJSONMarshal is returned when encoding a result as JSON fails.
var ErrJSONMarshal = MakeErrorf("JSON marshal error")

// ErrYAMLMarshal is returned when encoding a result as YAML fails.
var ErrYAMLMarshal = MakeErrorf("YAML marshal error")

// ErrQuery is returned when a result query fails to compile or run.
var ErrQuery = MakeErrorf("query error")

// ErrConfigExists is returned when init would overwrite a configuration
// file without --force.
var ErrConfigExists = MakeErrorf("configuration file exists")

// MakeError builds a chain from errs, innermost first. Nil errors are
// skipped and nested chains are flattened.
func MakeError(errs ...error) Error {
	var e Error

	for _, err := range errs {
		if err != nil {
			e = append(e, UnwrapErrors(err)...)
		}
	}

	return e
}

// MakeErrorf builds a single-element chain from a formatted message.
func MakeErrorf(format string, args ...any) Error {
	return MakeError(fmt.Errorf(format, args...))
}

// Error joins the messages of the chain, innermost first.
func (e Error) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}

	return strings.Join(msgs, ": ")
}

// Wrap returns the chain extended by errs.
func (e Error) Wrap(errs ...error) Error {
	return append(e[:len(e):len(e)], errs...)
}

// Wrapf returns the chain extended by a formatted error.
func (e Error) Wrapf(format string, args ...any) Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Unwrap returns the errors of the chain.
func (e Error) Unwrap() []error {
	return e
}

// Is reports whether every error of target, itself a chain, occurs in e.
// Chains are slices and cannot be compared directly, so a sentinel chain
// matches any chain built by wrapping it.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok || len(t) == 0 {
		return false
	}

	for _, want := range t {
		if !slices.ContainsFunc(e, func(err error) bool { return errors.Is(err, want) }) {
			return false
		}
	}

	return true
}

// UnwrapErrors flattens the tree of err into a chain, innermost first.
// Wrapping errors follow the errors they wrap.
func UnwrapErrors(err error) Error {
	if err == nil {
		return nil
	}

	var chain Error

	switch e := err.(type) {
	case Error:
		for _, inner := range e {
			chain = append(chain, UnwrapErrors(inner)...)
		}

		return chain

	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			chain = append(chain, UnwrapErrors(inner)...)
		}

	case interface{ Unwrap() error }:
		chain = append(chain, UnwrapErrors(e.Unwrap())...)
	}

	return append(chain, err)
}
