// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// call is one recorded Emitter invocation.
type call struct {
	Op   string
	Args []float64
	Text string
	Font FontHandle
}

// recorder is an Emitter that records every call. When failOn names an
// operation, that call returns errBoom.
type recorder struct {
	calls  []call
	failOn string
}

var errBoom = errors.New("boom")

func (r *recorder) rec(c call) error {
	r.calls = append(r.calls, c)
	if r.failOn == c.Op {
		return errBoom
	}
	return nil
}

func (r *recorder) BeginText() error { return r.rec(call{Op: "beginText"}) }
func (r *recorder) EndText() error   { return r.rec(call{Op: "endText"}) }
func (r *recorder) NewLineAtOffset(x, y float64) error {
	return r.rec(call{Op: "newLineAtOffset", Args: []float64{x, y}})
}
func (r *recorder) SetTextMatrix(a, b, c, d, e, f float64) error {
	return r.rec(call{Op: "setTextMatrix", Args: []float64{a, b, c, d, e, f}})
}
func (r *recorder) SetFont(font FontHandle, size float64) error {
	return r.rec(call{Op: "setFont", Args: []float64{size}, Font: font})
}
func (r *recorder) ShowText(text string) error { return r.rec(call{Op: "showText", Text: text}) }
func (r *recorder) MoveTo(x, y float64) error {
	return r.rec(call{Op: "moveTo", Args: []float64{x, y}})
}
func (r *recorder) LineTo(x, y float64) error {
	return r.rec(call{Op: "lineTo", Args: []float64{x, y}})
}
func (r *recorder) Stroke() error { return r.rec(call{Op: "stroke"}) }

// stubFont is a FontHandle that encodes text as its UTF-8 bytes.
type stubFont struct {
	name string
}

func (f *stubFont) ResourceName() string { return f.name }
func (f *stubFont) EncodeText(text string) ([]byte, error) {
	return []byte(text), nil
}

var substitute = &stubFont{name: "F0"}

func winAnsiFont() *SimpleFont {
	return &SimpleFont{BaseFont: "Helvetica", Encoding: WinAnsiEncoding}
}

// testFonts is the resource map used by most interpreter tests.
func testFonts() FontMap {
	return FontMap{"F1": winAnsiFont()}
}

func mustTokenize(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := Tokenize([]byte(src))
	require.NoError(t, err)
	return toks
}

func ops(calls []call) []string {
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Op
	}
	return out
}
