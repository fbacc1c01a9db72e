// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"fmt"
	"math"
	"sort"

	"github.com/sassoftware/pdf-restamp/logger"
	"golang.org/x/text/encoding/unicode"
)

// A Code is one character code read from an encoded string.
type Code struct {
	Value uint32
	Width int // in bytes, 1 to 4
}

func (c Code) String() string {
	return fmt.Sprintf("<%0*X>", c.Width*2, c.Value)
}

// Bytes returns the big-endian byte form of the code.
func (c Code) Bytes() []byte {
	b := make([]byte, c.Width)
	v := c.Value
	for i := c.Width - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func codeOf(b []byte) Code {
	var v uint32
	for _, x := range b {
		v = v<<8 | uint32(x)
	}
	return Code{Value: v, Width: len(b)}
}

type codeRange struct {
	lo, hi []byte
}

// contains reports whether every byte of b lies within the per-byte bounds of r.
func (r codeRange) contains(b []byte) bool {
	if len(b) > len(r.lo) {
		return false
	}
	for i := range b {
		if b[i] < r.lo[i] || b[i] > r.hi[i] {
			return false
		}
	}
	return true
}

// A CodeSpace defines how many bytes form one character code. Ranges are
// grouped by their byte length; the shortest matching range wins.
type CodeSpace struct {
	ranges [4][]codeRange
}

var (
	singleByteSpace = mustCodeSpace([]byte{0x00}, []byte{0xFF})
	twoByteSpace    = mustCodeSpace([]byte{0x00, 0x00}, []byte{0xFF, 0xFF})
)

func mustCodeSpace(lo, hi []byte) CodeSpace {
	var cs CodeSpace
	if err := cs.AddRange(lo, hi); err != nil {
		panic(err)
	}
	return cs
}

// AddRange adds the code space range lo..hi.
func (cs *CodeSpace) AddRange(lo, hi []byte) error {
	if len(lo) == 0 || len(lo) > 4 || len(lo) != len(hi) {
		return fmt.Errorf("bad code space range %X..%X", lo, hi)
	}
	cs.ranges[len(lo)-1] = append(cs.ranges[len(lo)-1], codeRange{append([]byte(nil), lo...), append([]byte(nil), hi...)})
	return nil
}

// Empty reports whether the code space has no ranges.
func (cs CodeSpace) Empty() bool {
	for _, r := range cs.ranges {
		if len(r) > 0 {
			return false
		}
	}
	return true
}

// ReadCode reads the character code at the start of b. It fails with
// ErrTruncatedCode when b ends inside a code that a longer range could still
// match, and with ErrNoCodeSpace when no range matches.
func (cs CodeSpace) ReadCode(b []byte) (Code, error) {
	truncated := false
	for n := 1; n <= 4; n++ {
		for _, r := range cs.ranges[n-1] {
			if n > len(b) {
				if r.contains(b) {
					truncated = true
				}
				continue
			}
			if r.contains(b[:n]) {
				return codeOf(b[:n]), nil
			}
		}
	}
	if truncated {
		return Code{}, ErrTruncatedCode
	}
	return Code{}, ErrNoCodeSpace
}

type bfrange struct {
	lo, hi Code
	dst    string   // UTF-16BE base value, incremented across the range
	arr    []string // per-code destinations, decoded
}

// A CMap maps character codes to Unicode text. It also carries the code
// space declared in the CMap program.
type CMap struct {
	Name   string
	space  CodeSpace
	chars  map[Code]string
	ranges []bfrange
}

// IdentityCMap returns the predefined Identity-H / Identity-V CMap: two-byte
// codes and no Unicode mappings.
func IdentityCMap(name string) *CMap {
	return &CMap{Name: name, space: twoByteSpace, chars: map[Code]string{}}
}

// CodeSpace returns the code space declared by the CMap.
func (m *CMap) CodeSpace() CodeSpace {
	return m.space
}

// Lookup returns the Unicode text mapped to c.
func (m *CMap) Lookup(c Code) (string, bool) {
	if s, ok := m.chars[c]; ok {
		return s, true
	}
	for _, br := range m.ranges {
		if c.Width != br.lo.Width || c.Value < br.lo.Value || c.Value > br.hi.Value {
			continue
		}
		off := c.Value - br.lo.Value
		if br.arr != nil {
			if int(off) < len(br.arr) {
				return br.arr[off], true
			}
			return "", false
		}
		s, err := decodeUTF16(incrementLast(br.dst, off))
		if err != nil {
			return "", false
		}
		return s, true
	}
	return "", false
}

// maxReverseRange bounds how many codes a single bfrange contributes when
// building the reverse mapping.
const maxReverseRange = 1 << 16

// reverse returns the text to code mapping of m. The lowest code wins when
// several codes map to the same text.
func (m *CMap) reverse() map[string]Code {
	rev := make(map[string]Code)
	add := func(s string, c Code) {
		if old, ok := rev[s]; !ok || c.Width < old.Width || (c.Width == old.Width && c.Value < old.Value) {
			rev[s] = c
		}
	}
	for c, s := range m.chars {
		add(s, c)
	}
	for _, br := range m.ranges {
		for off := uint32(0); off <= br.hi.Value-br.lo.Value && off < maxReverseRange; off++ {
			c := Code{Value: br.lo.Value + off, Width: br.lo.Width}
			if s, ok := m.Lookup(c); ok {
				add(s, c)
			}
		}
	}
	return rev
}

// incrementLast adds off to the last UTF-16 unit of a big-endian string.
func incrementLast(s string, off uint32) []byte {
	b := []byte(s)
	switch {
	case off == 0 || len(b) == 0:
	case len(b) == 1:
		b[0] += byte(off)
	default:
		v := uint32(b[len(b)-2])<<8 | uint32(b[len(b)-1])
		v += off
		b[len(b)-2], b[len(b)-1] = byte(v>>8), byte(v)
	}
	return b
}

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// decodeUTF16 decodes a CMap destination string.
func decodeUTF16(b []byte) (string, error) {
	if len(b) == 1 {
		return string(rune(b[0])), nil
	}
	return utf16be.NewDecoder().String(string(b))
}

// maxSectionEntries bounds the entry count of one begin/end section. PDF
// writers emit at most 100.
const maxSectionEntries = 1 << 16

// ParseCMap reads a CMap program such as a font's ToUnicode stream. Only the
// code space and bfchar / bfrange sections are interpreted; CID mappings are
// ignored.
func ParseCMap(data []byte) (*CMap, error) {
	logger.Debug("reading CMap")
	toks, err := Tokenize(data)
	if err != nil {
		return nil, err
	}

	m := &CMap{chars: make(map[Code]string)}
	var stk Stack
	n := -1
	section := ""
	for _, tok := range toks {
		if tok.Kind() != Operator {
			stk.Push(tok)
			continue
		}
		switch op := tok.Op(); op {
		case "begincodespacerange", "beginbfchar", "beginbfrange", "begincidchar", "begincidrange", "beginnotdefchar", "beginnotdefrange":
			cnt := stk.Pop()
			if cnt.Kind() != Number {
				return nil, &ParseError{Offset: tok.Offset, Msg: fmt.Sprintf("%s: missing entry count", op)}
			}
			if v := cnt.Float64(); v < 0 || v > maxSectionEntries || v != math.Trunc(v) {
				return nil, &ParseError{Offset: cnt.Offset, Msg: fmt.Sprintf("%s: bad entry count %v", op, v)}
			}
			n, section = int(cnt.Float64()), op[len("begin"):]
		case "endcodespacerange":
			if err := m.readCodeSpace(&stk, n, section, tok); err != nil {
				return nil, err
			}
			n, section = -1, ""
		case "endbfchar":
			if err := m.readBfchar(&stk, n, section, tok); err != nil {
				return nil, err
			}
			n, section = -1, ""
		case "endbfrange":
			if err := m.readBfrange(&stk, n, section, tok); err != nil {
				return nil, err
			}
			n, section = -1, ""
		case "endcidchar", "endcidrange", "endnotdefchar", "endnotdefrange":
			n, section = -1, ""
		case "def":
			if stk.Len() >= 2 {
				args, _ := stk.PopN(2)
				if args[0].Name() == "CMapName" {
					m.Name = args[1].Name()
				}
			}
		}
		stk.Reset()
	}
	if n >= 0 {
		return nil, &ParseError{Offset: len(data), Msg: fmt.Sprintf("unterminated %s section", section)}
	}
	logger.Debug(fmt.Sprintf("CMap %q: %d bfchar, %d bfrange", m.Name, len(m.chars), len(m.ranges)), true)
	return m, nil
}

func sectionArgs(stk *Stack, n, per int, want string, section string, end Token) ([]Token, error) {
	if section != want {
		return nil, &ParseError{Offset: end.Offset, Msg: fmt.Sprintf("%s without begin%s", end.Op(), want)}
	}
	if n > stk.Len()/per {
		return nil, &ParseError{Offset: end.Offset, Msg: fmt.Sprintf("%s: expected %d entries, have %d", end.Op(), n, stk.Len()/per)}
	}
	args, ok := stk.PopN(n * per)
	if !ok {
		return nil, &ParseError{Offset: end.Offset, Msg: fmt.Sprintf("%s: expected %d entries", end.Op(), n)}
	}
	return args, nil
}

func (m *CMap) readCodeSpace(stk *Stack, n int, section string, end Token) error {
	args, err := sectionArgs(stk, n, 2, "codespacerange", section, end)
	if err != nil {
		return err
	}
	for i := 0; i < len(args); i += 2 {
		lo, hi := args[i], args[i+1]
		if lo.Kind() != String || hi.Kind() != String {
			return &ParseError{Offset: lo.Offset, Msg: "code space bounds must be strings"}
		}
		if err := m.space.AddRange([]byte(lo.RawString()), []byte(hi.RawString())); err != nil {
			return &ParseError{Offset: lo.Offset, Msg: err.Error()}
		}
	}
	return nil
}

func (m *CMap) readBfchar(stk *Stack, n int, section string, end Token) error {
	args, err := sectionArgs(stk, n, 2, "bfchar", section, end)
	if err != nil {
		return err
	}
	for i := 0; i < len(args); i += 2 {
		src, dst := args[i], args[i+1]
		if src.Kind() != String || len(src.RawString()) == 0 || len(src.RawString()) > 4 {
			return &ParseError{Offset: src.Offset, Msg: "bfchar source must be a 1 to 4 byte string"}
		}
		s, err := destinationText(dst)
		if err != nil {
			return err
		}
		m.chars[codeOf([]byte(src.RawString()))] = s
	}
	return nil
}

func (m *CMap) readBfrange(stk *Stack, n int, section string, end Token) error {
	args, err := sectionArgs(stk, n, 3, "bfrange", section, end)
	if err != nil {
		return err
	}
	for i := 0; i < len(args); i += 3 {
		lo, hi, dst := args[i], args[i+1], args[i+2]
		if lo.Kind() != String || hi.Kind() != String ||
			len(lo.RawString()) != len(hi.RawString()) || len(lo.RawString()) == 0 || len(lo.RawString()) > 4 {
			return &ParseError{Offset: lo.Offset, Msg: "bfrange bounds must be strings of equal length"}
		}
		br := bfrange{lo: codeOf([]byte(lo.RawString())), hi: codeOf([]byte(hi.RawString()))}
		if br.hi.Value < br.lo.Value {
			return &ParseError{Offset: lo.Offset, Msg: fmt.Sprintf("bfrange %s..%s is reversed", br.lo, br.hi)}
		}
		switch dst.Kind() {
		case String:
			br.dst = dst.RawString()
		case Array:
			br.arr = make([]string, dst.Len())
			for j := range br.arr {
				s, err := destinationText(dst.Index(j))
				if err != nil {
					return err
				}
				br.arr[j] = s
			}
		default:
			return &ParseError{Offset: dst.Offset, Msg: fmt.Sprintf("bfrange destination must be a string or array, got %s", dst.Kind())}
		}
		m.ranges = append(m.ranges, br)
	}
	sort.SliceStable(m.ranges, func(i, j int) bool { return m.ranges[i].lo.Value < m.ranges[j].lo.Value })
	return nil
}

// destinationText decodes a bfchar destination: UTF-16BE text or a glyph name.
func destinationText(dst Token) (string, error) {
	switch dst.Kind() {
	case String:
		s, err := decodeUTF16([]byte(dst.RawString()))
		if err != nil {
			return "", &ParseError{Offset: dst.Offset, Msg: err.Error()}
		}
		return s, nil
	case Name:
		if s, ok := glyphText(dst.Name()); ok {
			return s, nil
		}
		return "", &ParseError{Offset: dst.Offset, Msg: fmt.Sprintf("unknown glyph name /%s", dst.Name())}
	}
	return "", &ParseError{Offset: dst.Offset, Msg: fmt.Sprintf("bad mapping destination %s", dst.Kind())}
}
