// Package token defines the lexical tokens of the literal grammar.
package token

import (
	"strconv"
)

// Kind identifies the lexical class of a token.
type Kind int

const (
	EOF      Kind = iota // end of file
	Linefeed             // linefeed
	Int                  // integer literal
	Float                // float literal
	String               // string literal
	Nil                  // nil
	Ident                // identifier
	Minus                // -
	Comma                // ,
	LBracket             // [
	RBracket             // ]
	LCurly               // {
	RCurly               // }
)

var kindName = [...]string{
	EOF:      "end of file",
	Linefeed: "linefeed",
	Int:      "integer literal",
	Float:    "float literal",
	String:   "string literal",
	Nil:      "nil",
	Ident:    "identifier",
	Minus:    "-",
	Comma:    ",",
	LBracket: "[",
	RBracket: "]",
	LCurly:   "{",
	RCurly:   "}",
}

// String returns the human-readable name of the token kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindName) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}

	return kindName[k]
}

// Position locates a token in the source text.
type Position struct {
	Offset int // byte offset, starting at 0
	Line   int // line number, starting at 1
	Column int // column number in runes, starting at 1
}

// IsValid reports whether the position was set by a lexer.
func (p Position) IsValid() bool { return p.Line > 0 }

// String formats the position as "line:column".
func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}

	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// Token is a single lexical token and its decoded payload.
//
// Exactly one payload field is meaningful depending on Kind: Int for [Int],
// Float for [Float], and Text for [String] (unescaped) and [Ident].
type Token struct {
	Kind  Kind
	Pos   Position
	Text  string
	Int   int64
	Float float64
}

// String returns the representation of the token used in error messages.
// Literals and identifiers render as their source form; punctuation renders
// as itself.
func (t Token) String() string {
	switch t.Kind {
	case Int:
		return strconv.FormatInt(t.Int, 10)

	case Float:
		return strconv.FormatFloat(t.Float, 'g', -1, 64)

	case String:
		return strconv.Quote(t.Text)

	case Ident:
		return t.Text

	default:
		return t.Kind.String()
	}
}
