// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// A Kind is the type of a Token.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Name
	Array
	Dict
	Operator
)

var kindNames = [...]string{
	Null:     "null",
	Bool:     "bool",
	Number:   "number",
	String:   "string",
	Name:     "name",
	Array:    "array",
	Dict:     "dict",
	Operator: "operator",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// A Token is a single lexical item of a content stream: an operand or an
// operator keyword. Offset is the byte position where the token starts.
//
// Like the Value accessors of a PDF reader, the Token accessors return a zero
// result when called on a token of a different kind.
type Token struct {
	kind   Kind
	data   interface{}
	Offset int
}

// NumberToken returns a Number token.
func NumberToken(f float64) Token { return Token{kind: Number, data: f} }

// StringToken returns a String token holding the raw bytes b.
func StringToken(b string) Token { return Token{kind: String, data: b} }

// NameToken returns a Name token; name excludes the leading slash.
func NameToken(name string) Token { return Token{kind: Name, data: name} }

// ArrayToken returns an Array token holding elems.
func ArrayToken(elems ...Token) Token { return Token{kind: Array, data: elems} }

// OperatorToken returns an Operator token for the keyword op.
func OperatorToken(op string) Token { return Token{kind: Operator, data: op} }

// Kind reports the kind of the token.
func (t Token) Kind() Kind { return t.kind }

// Float64 returns the value of a Number token.
func (t Token) Float64() float64 {
	f, _ := t.data.(float64)
	return f
}

// Bool returns the value of a Bool token.
func (t Token) Bool() bool {
	b, _ := t.data.(bool)
	return b
}

// RawString returns the decoded bytes of a String token.
func (t Token) RawString() string {
	if t.kind != String {
		return ""
	}
	s, _ := t.data.(string)
	return s
}

// Name returns the name of a Name token, without the slash.
func (t Token) Name() string {
	if t.kind != Name {
		return ""
	}
	s, _ := t.data.(string)
	return s
}

// Op returns the keyword of an Operator token.
func (t Token) Op() string {
	if t.kind != Operator {
		return ""
	}
	s, _ := t.data.(string)
	return s
}

// Len returns the number of elements of an Array token.
func (t Token) Len() int {
	a, _ := t.data.([]Token)
	return len(a)
}

// Index returns the i'th element of an Array token.
func (t Token) Index(i int) Token {
	a, _ := t.data.([]Token)
	if i < 0 || i >= len(a) {
		return Token{}
	}
	return a[i]
}

// Key returns the entry for key in a Dict token.
func (t Token) Key(key string) Token {
	d, _ := t.data.(map[string]Token)
	return d[key]
}

// Keys returns the sorted keys of a Dict token.
func (t Token) Keys() []string {
	d, _ := t.data.(map[string]Token)
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t Token) String() string {
	switch t.kind {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(t.Bool())
	case Number:
		return strconv.FormatFloat(t.Float64(), 'f', -1, 64)
	case String:
		return "<" + hex.EncodeToString([]byte(t.RawString())) + ">"
	case Name:
		return "/" + t.Name()
	case Operator:
		return t.Op()
	case Array:
		var sb strings.Builder
		sb.WriteByte('[')
		for i := 0; i < t.Len(); i++ {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(t.Index(i).String())
		}
		sb.WriteByte(']')
		return sb.String()
	case Dict:
		var sb strings.Builder
		sb.WriteString("<<")
		for _, k := range t.Keys() {
			fmt.Fprintf(&sb, "/%s %s", k, t.Key(k))
		}
		sb.WriteString(">>")
		return sb.String()
	}
	return "?"
}

// Tokenize splits a content stream into its operand and operator tokens, in
// source order. Inline image data between ID and EI is skipped.
func Tokenize(data []byte) ([]Token, error) {
	lx := lexer{buf: data}
	var toks []Token
	for {
		tok, ok, err := lx.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return toks, nil
		}
		toks = append(toks, tok)
		if tok.kind == Operator && tok.Op() == "ID" {
			if err := lx.skipInlineImage(); err != nil {
				return nil, err
			}
		}
	}
}

type lexer struct {
	buf []byte
	pos int
}

func isWhitespace(b byte) bool {
	return b == 0 || b == '\t' || b == '\n' || b == '\f' || b == '\r' || b == ' '
}

func isDelimiter(b byte) bool {
	return b == '(' || b == ')' || b == '<' || b == '>' ||
		b == '[' || b == ']' || b == '{' || b == '}' ||
		b == '/' || b == '%'
}

func (lx *lexer) errorf(off int, format string, args ...interface{}) error {
	return &ParseError{Offset: off, Msg: fmt.Sprintf(format, args...)}
}

// skipSpace skips whitespace and comments.
func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.buf) {
		c := lx.buf[lx.pos]
		switch {
		case isWhitespace(c):
			lx.pos++
		case c == '%':
			for lx.pos < len(lx.buf) && lx.buf[lx.pos] != '\r' && lx.buf[lx.pos] != '\n' {
				lx.pos++
			}
		default:
			return
		}
	}
}

func (lx *lexer) peek(i int) byte {
	if lx.pos+i < len(lx.buf) {
		return lx.buf[lx.pos+i]
	}
	return 0
}

// next returns the next token; ok is false at the end of the input.
func (lx *lexer) next() (tok Token, ok bool, err error) {
	lx.skipSpace()
	if lx.pos >= len(lx.buf) {
		return Token{}, false, nil
	}
	start := lx.pos
	c := lx.buf[lx.pos]
	switch {
	case c == '[':
		tok, err = lx.readArray()
	case c == ']':
		return Token{}, false, lx.errorf(start, "unexpected ']'")
	case c == '<' && lx.peek(1) == '<':
		tok, err = lx.readDict()
	case c == '<':
		tok, err = lx.readHexString()
	case c == '>':
		return Token{}, false, lx.errorf(start, "unexpected '>'")
	case c == '(':
		tok, err = lx.readLiteralString()
	case c == ')':
		return Token{}, false, lx.errorf(start, "unexpected ')'")
	case c == '/':
		tok = lx.readName()
	case c == '{' || c == '}':
		lx.pos++
		tok = OperatorToken(string(c))
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		tok, err = lx.readNumber()
	default:
		tok = lx.readKeyword()
	}
	if err != nil {
		return Token{}, false, err
	}
	tok.Offset = start
	return tok, true, nil
}

func (lx *lexer) readArray() (Token, error) {
	start := lx.pos
	lx.pos++ // [
	elems := []Token{}
	for {
		lx.skipSpace()
		if lx.pos >= len(lx.buf) {
			return Token{}, lx.errorf(start, "unterminated array")
		}
		if lx.buf[lx.pos] == ']' {
			lx.pos++
			return ArrayToken(elems...), nil
		}
		elem, _, err := lx.next()
		if err != nil {
			return Token{}, err
		}
		if elem.kind == Operator {
			return Token{}, lx.errorf(elem.Offset, "operator %q inside array", elem.Op())
		}
		elems = append(elems, elem)
	}
}

func (lx *lexer) readDict() (Token, error) {
	start := lx.pos
	lx.pos += 2 // <<
	d := make(map[string]Token)
	for {
		lx.skipSpace()
		if lx.pos >= len(lx.buf) {
			return Token{}, lx.errorf(start, "unterminated dictionary")
		}
		if lx.buf[lx.pos] == '>' && lx.peek(1) == '>' {
			lx.pos += 2
			return Token{kind: Dict, data: d}, nil
		}
		key, _, err := lx.next()
		if err != nil {
			return Token{}, err
		}
		if key.kind != Name {
			return Token{}, lx.errorf(key.Offset, "dictionary key must be a name, got %s", key.kind)
		}
		lx.skipSpace()
		if lx.pos >= len(lx.buf) || (lx.buf[lx.pos] == '>' && lx.peek(1) == '>') {
			return Token{}, lx.errorf(key.Offset, "missing value for key /%s", key.Name())
		}
		val, _, err := lx.next()
		if err != nil {
			return Token{}, err
		}
		if val.kind == Operator {
			return Token{}, lx.errorf(val.Offset, "operator %q inside dictionary", val.Op())
		}
		d[key.Name()] = val
	}
}

func (lx *lexer) readHexString() (Token, error) {
	start := lx.pos
	lx.pos++ // <
	digits := make([]byte, 0, 16)
	for {
		if lx.pos >= len(lx.buf) {
			return Token{}, lx.errorf(start, "unterminated hex string")
		}
		c := lx.buf[lx.pos]
		lx.pos++
		switch {
		case c == '>':
			if len(digits)%2 == 1 {
				digits = append(digits, '0')
			}
			b := make([]byte, len(digits)/2)
			if _, err := hex.Decode(b, digits); err != nil {
				return Token{}, lx.errorf(start, "malformed hex string: %v", err)
			}
			return StringToken(string(b)), nil
		case isWhitespace(c):
		case '0' <= c && c <= '9', 'a' <= c && c <= 'f', 'A' <= c && c <= 'F':
			digits = append(digits, c)
		default:
			return Token{}, lx.errorf(lx.pos-1, "invalid character %q in hex string", c)
		}
	}
}

func (lx *lexer) readLiteralString() (Token, error) {
	start := lx.pos
	lx.pos++ // (
	var out []byte
	depth := 1
	for {
		if lx.pos >= len(lx.buf) {
			return Token{}, lx.errorf(start, "unterminated string")
		}
		c := lx.buf[lx.pos]
		lx.pos++
		switch c {
		case '(':
			depth++
			out = append(out, c)
		case ')':
			depth--
			if depth == 0 {
				return StringToken(string(out)), nil
			}
			out = append(out, c)
		case '\r':
			// an unescaped end of line reads as a single newline
			if lx.peek(0) == '\n' {
				lx.pos++
			}
			out = append(out, '\n')
		case '\\':
			if lx.pos >= len(lx.buf) {
				return Token{}, lx.errorf(start, "unterminated string")
			}
			out = lx.readEscape(out)
		default:
			out = append(out, c)
		}
	}
}

// readEscape consumes the character after a backslash.
func (lx *lexer) readEscape(out []byte) []byte {
	c := lx.buf[lx.pos]
	lx.pos++
	switch c {
	case 'n':
		return append(out, '\n')
	case 'r':
		return append(out, '\r')
	case 't':
		return append(out, '\t')
	case 'b':
		return append(out, '\b')
	case 'f':
		return append(out, '\f')
	case '\r':
		if lx.peek(0) == '\n' {
			lx.pos++
		}
		return out
	case '\n':
		return out
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := int(c - '0')
		for i := 0; i < 2; i++ {
			d := lx.peek(0)
			if d < '0' || d > '7' {
				break
			}
			v = v*8 + int(d-'0')
			lx.pos++
		}
		return append(out, byte(v))
	}
	// \( \) \\ and unknown escapes keep the character itself
	return append(out, c)
}

func (lx *lexer) readName() Token {
	lx.pos++ // /
	var out []byte
	for lx.pos < len(lx.buf) {
		c := lx.buf[lx.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		if c == '#' && lx.pos+2 < len(lx.buf) && isHex(lx.peek(1)) && isHex(lx.peek(2)) {
			b, _ := strconv.ParseUint(string(lx.buf[lx.pos+1:lx.pos+3]), 16, 8)
			out = append(out, byte(b))
			lx.pos += 3
			continue
		}
		out = append(out, c)
		lx.pos++
	}
	return NameToken(string(out))
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func (lx *lexer) readNumber() (Token, error) {
	start := lx.pos
	for lx.pos < len(lx.buf) {
		c := lx.buf[lx.pos]
		if c != '+' && c != '-' && c != '.' && (c < '0' || c > '9') {
			break
		}
		lx.pos++
	}
	lit := string(lx.buf[start:lx.pos])
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Token{}, lx.errorf(start, "malformed number %q", lit)
	}
	return NumberToken(f), nil
}

func (lx *lexer) readKeyword() Token {
	start := lx.pos
	for lx.pos < len(lx.buf) {
		c := lx.buf[lx.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		lx.pos++
	}
	switch kw := string(lx.buf[start:lx.pos]); kw {
	case "true":
		return Token{kind: Bool, data: true}
	case "false":
		return Token{kind: Bool, data: false}
	case "null":
		return Token{kind: Null}
	default:
		return OperatorToken(kw)
	}
}

// skipInlineImage moves past the binary data that follows an ID operator,
// leaving the lexer in front of the closing EI.
func (lx *lexer) skipInlineImage() error {
	start := lx.pos
	if lx.pos < len(lx.buf) && isWhitespace(lx.buf[lx.pos]) {
		lx.pos++
	}
	for i := lx.pos; i+1 < len(lx.buf); i++ {
		if lx.buf[i] != 'E' || lx.buf[i+1] != 'I' {
			continue
		}
		if i > lx.pos && !isWhitespace(lx.buf[i-1]) {
			continue
		}
		if i+2 < len(lx.buf) && !isWhitespace(lx.buf[i+2]) && !isDelimiter(lx.buf[i+2]) {
			continue
		}
		lx.pos = i
		return nil
	}
	return lx.errorf(start, "unterminated inline image")
}
