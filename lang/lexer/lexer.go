// Package lexer converts literal source text into a stream of tokens.
//
// The lexer is pull-based: [Lexer.Next] scans exactly one token, which is
// then available from [Lexer.Token] until the following call to Next.
//
// Line breaks are significant to the grammar because they may separate
// aggregate elements. A run of line breaks (including those inside comments)
// produces a single [token.Linefeed], and no linefeed is produced at the
// start of input or directly after a token that cannot end an element
// (",", "-", "[" and "{").
package lexer

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/datalit/lang/token"
)

// Error is a malformed-token error raised while scanning.
type Error struct {
	Pos token.Position
	Msg string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// Lexer scans tokens from an in-memory source text.
type Lexer struct {
	input []byte
	pos   int
	line  int
	col   int

	tok     token.Token
	started bool
	buf     strings.Builder
}

// New returns a Lexer positioned before the first token of src.
// Call [Lexer.Next] to scan the first token.
func New(src string) *Lexer {
	return &Lexer{
		input: []byte(src),
		line:  1,
		col:   1,
	}
}

// Token returns the current token.
func (l *Lexer) Token() token.Token { return l.tok }

// Next scans the next token. At end of input the current token becomes
// [token.EOF] and remains so on every subsequent call.
func (l *Lexer) Next() error {
	lf, lfPos, err := l.skip()
	if err != nil {
		return err
	}

	if lf && l.linefeedAllowed() {
		l.emit(token.Token{Kind: token.Linefeed, Pos: lfPos})

		return nil
	}

	pos := l.position()

	if l.eof() {
		l.emit(token.Token{Kind: token.EOF, Pos: pos})

		return nil
	}

	ch := l.peek()

	switch {
	case ch == '-':
		l.advance()
		l.emit(token.Token{Kind: token.Minus, Pos: pos})

	case ch == ',':
		l.advance()
		l.emit(token.Token{Kind: token.Comma, Pos: pos})

	case ch == '[':
		l.advance()
		l.emit(token.Token{Kind: token.LBracket, Pos: pos})

	case ch == ']':
		l.advance()
		l.emit(token.Token{Kind: token.RBracket, Pos: pos})

	case ch == '{':
		l.advance()
		l.emit(token.Token{Kind: token.LCurly, Pos: pos})

	case ch == '}':
		l.advance()
		l.emit(token.Token{Kind: token.RCurly, Pos: pos})

	case ch == '"':
		return l.scanString(pos)

	case ch == '\'':
		return l.scanChar(pos)

	case isDigit(ch):
		return l.scanNumber(pos)

	case isIdentifierStart(ch):
		l.scanIdentifier(pos)

	default:
		return &Error{Pos: pos, Msg: "illegal character " + strconv.QuoteRune(ch)}
	}

	return nil
}

func (l *Lexer) emit(tok token.Token) {
	l.tok = tok
	l.started = true
}

// linefeedAllowed reports whether a line break following the current token
// is significant.
func (l *Lexer) linefeedAllowed() bool {
	if !l.started {
		return false
	}

	switch l.tok.Kind {
	case token.Linefeed, token.Comma, token.Minus, token.LBracket, token.LCurly:
		return false

	default:
		return true
	}
}

// skip consumes whitespace and comments. It reports whether a line break
// was consumed and the position of the first one. A block comment must be
// closed before the end of input.
func (l *Lexer) skip() (lf bool, lfPos token.Position, err error) {
	mark := func() {
		if !lf {
			lf, lfPos = true, l.position()
		}
	}

	for !l.eof() {
		ch := l.peek()

		switch {
		case ch == '\n':
			mark()
			l.advance()

		case unicode.IsSpace(ch):
			l.advance()

		case ch == '/' && l.peekN(2) == "//":
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}

		case ch == '/' && l.peekN(2) == "/*":
			pos := l.position()

			l.advance()
			l.advance()

			for !l.eof() && l.peekN(2) != "*/" {
				if l.peek() == '\n' {
					mark()
				}

				l.advance()
			}

			if l.eof() {
				return lf, lfPos, &Error{Pos: pos, Msg: "unterminated block comment"}
			}

			l.advance()
			l.advance()

		default:
			return lf, lfPos, nil
		}
	}

	return lf, lfPos, nil
}

func (l *Lexer) scanNumber(pos token.Position) error {
	start := l.pos

	if l.peek() == '0' && (l.peekN(2) == "0x" || l.peekN(2) == "0X") {
		l.advance()
		l.advance()

		for !l.eof() && isHexDigit(l.peek()) {
			l.advance()
		}

		text := string(l.input[start:l.pos])

		u, err := strconv.ParseUint(text[2:], 16, 64)
		if err != nil {
			return &Error{Pos: pos, Msg: "malformed hexadecimal literal " + text}
		}

		l.emit(token.Token{Kind: token.Int, Pos: pos, Int: int64(u)})

		return nil
	}

	isFloat := false

	l.digits()

	if l.peek() == '.' && l.pos+1 < len(l.input) && isDigit(rune(l.input[l.pos+1])) {
		isFloat = true

		l.advance()
		l.digits()
	}

	if ch := l.peek(); ch == 'e' || ch == 'E' {
		isFloat = true

		l.advance()

		if ch := l.peek(); ch == '+' || ch == '-' {
			l.advance()
		}

		if !isDigit(l.peek()) {
			return &Error{Pos: l.position(), Msg: "exponent has no digits"}
		}

		l.digits()
	}

	text := string(l.input[start:l.pos])

	if isFloat {
		// Overflow is an error since ±Inf has no literal form. Underflow
		// rounds toward zero.
		f, err := strconv.ParseFloat(text, 64)
		if math.IsInf(f, 0) {
			return &Error{Pos: pos, Msg: "float literal out of range: " + text}
		}

		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return &Error{Pos: pos, Msg: "malformed float literal " + text}
		}

		l.emit(token.Token{Kind: token.Float, Pos: pos, Text: text, Float: f})

		return nil
	}

	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return &Error{Pos: pos, Msg: "integer literal out of range: " + text}
	}

	l.emit(token.Token{Kind: token.Int, Pos: pos, Text: text, Int: i})

	return nil
}

func (l *Lexer) digits() {
	for !l.eof() && isDigit(l.peek()) {
		l.advance()
	}
}

func (l *Lexer) scanString(pos token.Position) error {
	l.advance() // opening quote
	l.buf.Reset()

	for {
		if l.eof() || l.peek() == '\n' {
			return &Error{Pos: pos, Msg: "unterminated string literal"}
		}

		start := l.pos
		ch := l.peek()
		l.advance()

		switch ch {
		case '"':
			l.emit(token.Token{Kind: token.String, Pos: pos, Text: l.buf.String()})

			return nil

		case '\\':
			r, isByte, err := l.escape()
			if err != nil {
				return err
			}

			if isByte {
				l.buf.WriteByte(byte(r))
			} else {
				l.buf.WriteRune(r)
			}

		default:
			// Source bytes are copied verbatim, including invalid UTF-8.
			l.buf.Write(l.input[start:l.pos])
		}
	}
}

// scanChar scans a character literal, which denotes an integer.
func (l *Lexer) scanChar(pos token.Position) error {
	l.advance() // opening quote

	if l.eof() || l.peek() == '\n' {
		return &Error{Pos: pos, Msg: "unterminated character literal"}
	}

	ch := l.peek()
	l.advance()

	switch ch {
	case '\'':
		return &Error{Pos: pos, Msg: "empty character literal"}

	case '\\':
		r, _, err := l.escape()
		if err != nil {
			return err
		}

		ch = r
	}

	if l.peek() != '\'' {
		return &Error{Pos: pos, Msg: "character literal contains more than one character"}
	}

	l.advance()
	l.emit(token.Token{Kind: token.Int, Pos: pos, Int: int64(ch)})

	return nil
}

// escape decodes the escape sequence following a backslash. isByte
// reports a \x escape, whose value is a single byte rather than a rune.
func (l *Lexer) escape() (r rune, isByte bool, err error) {
	pos := l.position()

	if l.eof() {
		return 0, false, &Error{Pos: pos, Msg: "unterminated escape sequence"}
	}

	ch := l.peek()
	l.advance()

	switch ch {
	case '\\', '"', '\'':
		return ch, false, nil
	case 'n':
		return '\n', false, nil
	case 't':
		return '\t', false, nil
	case 'r':
		return '\r', false, nil
	case '0':
		return 0, false, nil
	case 'x':
		hex := l.peekN(2)
		if len(hex) < 2 || !isHexDigit(rune(hex[0])) || !isHexDigit(rune(hex[1])) {
			return 0, false, &Error{Pos: pos, Msg: "malformed \\x escape sequence"}
		}

		l.advance()
		l.advance()

		v, _ := strconv.ParseUint(hex, 16, 8)

		return rune(v), true, nil
	}

	return 0, false, &Error{Pos: pos, Msg: "unknown escape sequence \\" + string(ch)}
}

func (l *Lexer) scanIdentifier(pos token.Position) {
	start := l.pos

	l.advance()

	for !l.eof() && isIdentifierContinue(l.peek()) {
		l.advance()
	}

	text := string(l.input[start:l.pos])

	if text == "nil" {
		l.emit(token.Token{Kind: token.Nil, Pos: pos, Text: text})

		return
	}

	l.emit(token.Token{Kind: token.Ident, Pos: pos, Text: text})
}

func (l *Lexer) peek() rune {
	if l.eof() {
		return 0
	}

	r, _ := utf8.DecodeRune(l.input[l.pos:])

	return r
}

func (l *Lexer) peekN(n int) string {
	if l.pos+n > len(l.input) {
		return string(l.input[l.pos:])
	}

	return string(l.input[l.pos : l.pos+n])
}

func (l *Lexer) advance() {
	if l.eof() {
		return
	}

	r, size := utf8.DecodeRune(l.input[l.pos:])

	l.pos += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *Lexer) eof() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) position() token.Position {
	return token.Position{
		Offset: l.pos,
		Line:   l.line,
		Column: l.col,
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isIdentifierStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentifierContinue(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
