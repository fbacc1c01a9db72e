// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/ascii85"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const plainStream = "BT /F1 12 Tf 72 700 Td (Dear %NAME%) Tj ET"

func flate(t *testing.T, b []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(b)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func a85(b []byte) []byte {
	out := make([]byte, ascii85.MaxEncodedLen(len(b)))
	n := ascii85.Encode(out, b)
	return append(out[:n], "~>"...)
}

func TestDecodeStream(t *testing.T) {
	plain := []byte(plainStream)
	tests := []struct {
		name    string
		data    []byte
		filters []string
	}{
		{"no filter", plain, nil},
		{"flate", flate(t, plain), []string{"FlateDecode"}},
		{"ascii85", a85(plain), []string{"ASCII85Decode"}},
		{"ascii85 with trailing garbage", append(a85(plain), "\nxyz{|"...), []string{"A85"}},
		{"ascii hex", []byte("42 54 2\n0>"), []string{"AHx"}},
		{"chained", a85(flate(t, plain)), []string{"ASCII85Decode", "FlateDecode"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeStream(tt.data, tt.filters...)
			require.NoError(t, err)
			want := plain
			if tt.name == "ascii hex" {
				want = []byte("BT ")
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestDecodeStream_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		filters []string
	}{
		{"unknown filter", []byte("x"), []string{"JBIG2Decode"}},
		{"not zlib", []byte("plain"), []string{"FlateDecode"}},
		{"bad hex", []byte("4G>"), []string{"ASCIIHexDecode"}},
		{"bad ascii85", []byte("ab{cd~>"), []string{"ASCII85Decode"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeStream(tt.data, tt.filters...)
			assert.Error(t, err)
		})
	}
}

func TestAlphaReader_Read(t *testing.T) {
	src := []byte("!u~>AB")
	r := &alphaReader{r: bytes.NewReader(src)}

	buf := make([]byte, len(src))
	n, err := r.Read(buf)

	assert.NoError(t, err)
	assert.Equal(t, len(src), n, "Read should return number of bytes read from underlying reader")
	assert.Equal(t, []byte{'!', 'u', 0, 0, 0, 0}, buf, "end marker and trailing bytes are blanked")
}

func TestProcessor_RewriteEncodedPage(t *testing.T) {
	src := PageList{EncodedPage{Data: flate(t, []byte(plainStream)), Filters: []string{"FlateDecode"}, Resources: testFonts()}}
	var dst MemoryDocument
	_, err := newTestProcessor(t, Strict).Rewrite(context.Background(), src, &dst, substitute)
	require.NoError(t, err)
	assert.Contains(t, string(dst.Page(1)), hexText("Dear ほげほげ"))
}
