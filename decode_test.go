// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeText(t *testing.T) {
	cid := &CIDFont{BaseFont: "Mincho", ToUnicodeMap: mustCMap(t, identityUCS)}

	tests := []struct {
		name string
		font Font
		raw  string
		want string
	}{
		{"simple font", winAnsiFont(), "%NAME%", "%NAME%"},
		{"empty string", winAnsiFont(), "", ""},
		{"winansi high byte", winAnsiFont(), "caf\xe9 \x80", "café €"},
		{"two byte codes", cid, "\x00\x48\x00\x49\x00\x03\x30\x00", "HI あ"},
		{"glyph name fallback", &SimpleFont{Differences: map[byte]string{0x90: "uni3042", 0x91: "T.sc"}}, "\x90\x91", "あT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.font, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeText_Errors(t *testing.T) {
	var cs CodeSpace
	require.NoError(t, cs.AddRange([]byte{0x00, 0x00}, []byte{0x7F, 0xFF}))
	narrow := &CIDFont{EncodingMap: &CMap{space: cs, chars: map[Code]string{}}, ToUnicodeMap: mustCMap(t, identityUCS)}
	cid := &CIDFont{ToUnicodeMap: mustCMap(t, identityUCS)}

	tests := []struct {
		name   string
		font   Font
		raw    string
		offset int
		code   Code
		err    error
	}{
		{"truncated code", cid, "\x00\x41\x00", 2, Code{}, ErrTruncatedCode},
		{"no code space", narrow, "\x00\x41\x80\x00", 2, Code{}, ErrNoCodeSpace},
		{"unmapped two byte code", cid, "\x00\x41\x01\x00", 2, Code{0x0100, 2}, ErrUnmappedCode},
		{"unmapped single byte", &SimpleFont{}, "ab\x80", 2, Code{0x80, 1}, ErrUnmappedCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeText(tt.font, tt.raw)
			var de *DecodeError
			require.True(t, errors.As(err, &de), "want DecodeError, got %v", err)
			assert.Equal(t, tt.offset, de.Offset)
			assert.Equal(t, tt.code, de.Code)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestGlyphText(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"A", "A", true},
		{"Euro", "€", true},
		{"A.sc", "A", true},
		{"uni0041", "A", true},
		{"uni00410042", "AB", true},
		{"u00E9", "é", true},
		{"u1F600", "\U0001F600", true},
		{"f_f_i", "ffi", true},
		{"uniD800", "", false},
		{"uni004", "", false},
		{"uXYZW", "", false},
		{"f_nosuch", "", false},
		{".notdef", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := glyphText(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
