// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"strings"
)

// DecodeText converts the raw bytes of a string operand into Unicode text.
//
// Codes are consumed strictly left to right: the width of each code depends
// on the bytes that start it, so a code cannot be located before the ones in
// front of it are read. Each code is mapped through the font's ToUnicode
// table, falling back to the standard glyph list for the glyph name the
// font's encoding gives it.
func DecodeText(f Font, raw string) (string, error) {
	cs := f.CodeSpace()
	b := []byte(raw)

	var sb strings.Builder
	sb.Grow(len(raw))
	for off := 0; off < len(b); {
		c, err := cs.ReadCode(b[off:])
		if err != nil {
			return "", &DecodeError{Offset: off, Err: err}
		}
		s, err := decodeCode(f, c)
		if err != nil {
			return "", &DecodeError{Offset: off, Code: c, Err: err}
		}
		sb.WriteString(s)
		off += c.Width
	}
	return sb.String(), nil
}

func decodeCode(f Font, c Code) (string, error) {
	if s, ok := f.ToUnicode(c); ok {
		return s, nil
	}
	if name, ok := f.GlyphName(c); ok {
		if s, ok := glyphText(name); ok {
			return s, nil
		}
	}
	return "", ErrUnmappedCode
}
