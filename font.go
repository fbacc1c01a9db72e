// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// A Font is the decoding view of a source page font: its code space and its
// code to Unicode mapping. GlyphName exposes the glyph names from the font's
// encoding, resolved through the standard glyph list when ToUnicode has no
// entry for a code.
//
// Fonts are read-only after construction and may be shared between pages.
type Font interface {
	CodeSpace() CodeSpace
	ToUnicode(c Code) (string, bool)
	GlyphName(c Code) (string, bool)
}

// A FontMap holds the fonts of one page, keyed by resource name.
type FontMap map[string]Font

// An Encoder turns text back into the character codes of a font.
type Encoder interface {
	Encode(text string) ([]byte, error)
}

// BaseEncoding identifies the built-in encoding of a simple font.
type BaseEncoding int

const (
	StandardEncoding BaseEncoding = iota
	WinAnsiEncoding
	MacRomanEncoding
)

func (e BaseEncoding) String() string {
	switch e {
	case WinAnsiEncoding:
		return "WinAnsiEncoding"
	case MacRomanEncoding:
		return "MacRomanEncoding"
	}
	return "StandardEncoding"
}

// ParseBaseEncoding maps a PDF encoding name to a BaseEncoding.
func ParseBaseEncoding(name string) (BaseEncoding, error) {
	switch name {
	case "", "StandardEncoding":
		return StandardEncoding, nil
	case "WinAnsiEncoding":
		return WinAnsiEncoding, nil
	case "MacRomanEncoding":
		return MacRomanEncoding, nil
	}
	return StandardEncoding, fmt.Errorf("unsupported base encoding %q", name)
}

// rune returns the Unicode value of code b in the encoding.
func (e BaseEncoding) rune(b byte) (rune, bool) {
	var r rune
	switch e {
	case WinAnsiEncoding:
		r = charmap.Windows1252.DecodeByte(b)
	case MacRomanEncoding:
		r = charmap.Macintosh.DecodeByte(b)
	default:
		switch {
		case b == 0x27:
			return '’', true
		case b == 0x60:
			return '‘', true
		case b >= 0x20 && b < 0x7F:
			return rune(b), true
		}
		return 0, false
	}
	if r < 0x20 || (r >= 0x7F && r < 0xA0) || r == utf8.RuneError {
		return 0, false
	}
	return r, true
}

// A SimpleFont is a single-byte font (Type1, TrueType, Type3). Text comes
// from its ToUnicode CMap when present, otherwise from the glyph names in
// Differences, otherwise from the base encoding.
type SimpleFont struct {
	BaseFont     string
	Encoding     BaseEncoding
	Differences  map[byte]string
	ToUnicodeMap *CMap
}

func (f *SimpleFont) CodeSpace() CodeSpace {
	return singleByteSpace
}

func (f *SimpleFont) ToUnicode(c Code) (string, bool) {
	if c.Width != 1 {
		return "", false
	}
	if f.ToUnicodeMap != nil {
		if s, ok := f.ToUnicodeMap.Lookup(c); ok {
			return s, true
		}
	}
	if _, ok := f.Differences[byte(c.Value)]; ok {
		return "", false
	}
	r, ok := f.Encoding.rune(byte(c.Value))
	if !ok {
		return "", false
	}
	return string(r), true
}

func (f *SimpleFont) GlyphName(c Code) (string, bool) {
	if c.Width != 1 {
		return "", false
	}
	name, ok := f.Differences[byte(c.Value)]
	return name, ok
}

// Encode maps text to single-byte codes of f.
func (f *SimpleFont) Encode(text string) ([]byte, error) {
	rev := make(map[string]Code)
	for v := 255; v >= 0; v-- {
		c := Code{Value: uint32(v), Width: 1}
		if s, err := decodeCode(f, c); err == nil {
			rev[s] = c
		}
	}
	return encodeWith(rev, text, f.BaseFont)
}

// A CIDFont is a composite (Type0) font. Its code space comes from the
// encoding CMap, Identity-H when none is given, and text comes only from the
// ToUnicode CMap.
type CIDFont struct {
	BaseFont     string
	EncodingMap  *CMap
	ToUnicodeMap *CMap
}

func (f *CIDFont) CodeSpace() CodeSpace {
	if f.EncodingMap == nil || f.EncodingMap.CodeSpace().Empty() {
		if f.ToUnicodeMap != nil && !f.ToUnicodeMap.CodeSpace().Empty() {
			return f.ToUnicodeMap.CodeSpace()
		}
		return twoByteSpace
	}
	return f.EncodingMap.CodeSpace()
}

func (f *CIDFont) ToUnicode(c Code) (string, bool) {
	if f.ToUnicodeMap == nil {
		return "", false
	}
	return f.ToUnicodeMap.Lookup(c)
}

func (f *CIDFont) GlyphName(Code) (string, bool) {
	return "", false
}

// Encode maps text to codes of f through the inverse of its ToUnicode CMap.
func (f *CIDFont) Encode(text string) ([]byte, error) {
	if f.ToUnicodeMap == nil {
		return nil, fmt.Errorf("font %s: no ToUnicode map to encode with", f.BaseFont)
	}
	return encodeWith(f.ToUnicodeMap.reverse(), text, f.BaseFont)
}

// encodeWith encodes text by repeatedly taking the longest key of rev that
// prefixes the remaining text.
func encodeWith(rev map[string]Code, text, font string) ([]byte, error) {
	keys := make([]string, 0, len(rev))
	for k := range rev {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	var out []byte
Text:
	for len(text) > 0 {
		for _, k := range keys {
			if strings.HasPrefix(text, k) {
				out = append(out, rev[k].Bytes()...)
				text = text[len(k):]
				continue Text
			}
		}
		r, _ := utf8.DecodeRuneInString(text)
		return nil, fmt.Errorf("font %s cannot encode %q", font, r)
	}
	return out, nil
}
