package repl

import "errors"

// Sentinel errors.
var (
	ErrOutOfBounds = errors.New("index out of range")
	ErrNoType      = errors.New("no target type (use: type NAME)")
	ErrUnknownCmd  = errors.New("unknown command")
)
