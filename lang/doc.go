// Package lang parses textual literals back into typed runtime values.
//
// Every parse is directed by a target type: the type decides which tokens
// are legal at each position, how aggregates are sized, and how literals
// that do not match the current shape of a type are coerced.
//
// # Grammar
//
// Informal EBNF, where LF is a run of line breaks:
//
//	value  → factor [LF] EOF
//	factor → INT | FLOAT | STRING | "nil" | "-" factor
//	       | "[" elems("]") | IDENT [ "{" elems("}") ]
//	elems  → [LF] ( end | factor (sep factor)* [LF] end )
//	sep    → "," | LF
//
// An identifier alone is an enumeration constant and is legal only where
// the target type is an enumeration. An identifier followed by "{" names a
// struct or class and must equal the target type's name; in a slot of type
// any the name is resolved through the [Registry] instead.
//
// # Aggregates
//
// Values are assembled on a stack. Struct fields are stored inline: a
// struct occupies one slot per scalar field, and its slots are consumed
// directly by the enclosing aggregate. Vectors and classes are heap
// objects created through the [Allocator] once all of their elements have
// been parsed.
//
// A class or struct literal may disagree with the current layout of its
// type. Extra trailing elements are checked for syntax and dropped.
// Missing trailing fields are filled with 0, 0.0 or nil according to their
// declared type; any other missing field is an error.
//
// # Example
//
//	Circle{"unit", Point{0, 0}, 1.0}
//	[Point{1, 2}
//	 Point{3, 4}]
//	[Red, Green, 2]
//
// # Errors
//
// Parsing stops at the first error. Every heap object allocated before the
// error is released, and the error matches one of [ErrLexical],
// [ErrSyntax], [ErrTypeMismatch], [ErrUnknownEnum], [ErrMissingDefault] or
// [ErrUnaryMinus] with [errors.Is].
package lang
