// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInterpreter() *Interpreter {
	return NewInterpreter(substitute, NewReplacer(DefaultSubstitutions()...))
}

func TestRun_EndToEnd(t *testing.T) {
	toks := []Token{
		OperatorToken("BT"),
		NumberToken(10), NumberToken(20), OperatorToken("Td"),
		NameToken("F1"), NumberToken(12), OperatorToken("Tf"),
		StringToken("%TEL%"), OperatorToken("Tj"),
		OperatorToken("ET"),
	}
	var rec recorder
	st, err := newTestInterpreter().Run(toks, testFonts(), &rec)
	require.NoError(t, err)

	want := []call{
		{Op: "beginText"},
		{Op: "newLineAtOffset", Args: []float64{10, 20}},
		{Op: "setFont", Args: []float64{12}, Font: substitute},
		{Op: "showText", Text: "012-3456-7890"},
		{Op: "endText"},
	}
	assert.Equal(t, want, rec.calls)
	assert.Equal(t, PageStats{Operators: 5, Emitted: 5, Substitutions: 1}, st)
}

func TestRewrite_FromBytes(t *testing.T) {
	var rec recorder
	_, err := newTestInterpreter().Rewrite([]byte("BT 10 20 Td /F1 12 Tf (%NAME% / %TEL%) Tj ET"), testFonts(), &rec)
	require.NoError(t, err)
	require.Len(t, rec.calls, 5)
	assert.Equal(t, "ほげほげ / 012-3456-7890", rec.calls[3].Text)
}

func TestRun_MoveTextExactValues(t *testing.T) {
	pairs := [][2]float64{
		{300, 400},
		{0, 0},
		{-12.5, 0.001},
		{1e-7, -1e7},
		{math.MaxFloat32, math.SmallestNonzeroFloat64},
		{0.1, 0.2},
	}
	for _, p := range pairs {
		var rec recorder
		toks := []Token{NumberToken(p[0]), NumberToken(p[1]), OperatorToken("Td")}
		_, err := newTestInterpreter().Run(toks, nil, &rec)
		require.NoError(t, err)
		require.Len(t, rec.calls, 1)
		assert.Equal(t, "newLineAtOffset", rec.calls[0].Op)
		assert.True(t, rec.calls[0].Args[0] == p[0] && rec.calls[0].Args[1] == p[1],
			"want %v got %v", p, rec.calls[0].Args)
	}
}

func TestRun_ConsumesOnlyDeclaredOperands(t *testing.T) {
	var rec recorder
	toks := []Token{NumberToken(1), NumberToken(2), NumberToken(300), NumberToken(400), OperatorToken("Td")}
	_, err := newTestInterpreter().Run(toks, nil, &rec)
	require.NoError(t, err)
	assert.Equal(t, []call{{Op: "newLineAtOffset", Args: []float64{300, 400}}}, rec.calls)
}

func TestRun_StackUnderflow(t *testing.T) {
	tests := []struct {
		name string
		src  string
		have int
	}{
		{"single operand", "5 Td", 1},
		{"no operands", "Td", 0},
		{"operand behind another operator", "7 w 5 Td", 1},
		{"operand behind a consumed operator", "1 2 m 5 Td", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec recorder
			_, err := newTestInterpreter().Run(mustTokenize(t, tt.src), nil, &rec)
			var tm *TypeMismatchError
			require.True(t, errors.As(err, &tm), "want TypeMismatchError, got %v", err)
			assert.Equal(t, "Td", tm.Op)
			assert.Equal(t, 2, tm.Need)
			assert.Equal(t, tt.have, tm.Have)
			for _, c := range rec.calls {
				assert.NotEqual(t, "newLineAtOffset", c.Op)
			}
		})
	}
}

func TestRun_TypeMismatch(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		op      string
		operand int
		want    Kind
		got     Kind
	}{
		{"Tf size is a string", "/F1 (12) Tf", "Tf", 1, Number, String},
		{"Tf font is a number", "1 12 Tf", "Tf", 0, Name, Number},
		{"Tj on a number", "BT /F1 12 Tf 42 Tj", "Tj", 0, String, Number},
		{"TJ on a string", "BT /F1 12 Tf (A) TJ", "TJ", 0, Array, String},
		{"Tm with a name", "1 0 0 1 /x 0 Tm", "Tm", 4, Number, Name},
		{"TJ array holds a name", "BT /F1 12 Tf [(A) /B] TJ", "TJ", 1, String, Name},
		{"m with a bool", "true 1 m", "m", 0, Number, Bool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec recorder
			_, err := newTestInterpreter().Run(mustTokenize(t, tt.src), testFonts(), &rec)
			var tm *TypeMismatchError
			require.True(t, errors.As(err, &tm), "want TypeMismatchError, got %v", err)
			assert.Equal(t, tt.op, tm.Op)
			assert.Equal(t, tt.operand, tm.Operand)
			assert.Equal(t, tt.want, tm.Want)
			assert.Equal(t, tt.got, tm.Got)
		})
	}
}

func TestRun_ShowTextAdjustedDropsSpacing(t *testing.T) {
	var rec recorder
	toks := []Token{
		OperatorToken("BT"),
		NameToken("F1"), NumberToken(12), OperatorToken("Tf"),
		ArrayToken(StringToken("A"), NumberToken(-120), StringToken("B")), OperatorToken("TJ"),
		OperatorToken("ET"),
	}
	_, err := NewInterpreter(substitute, NewReplacer()).Run(toks, testFonts(), &rec)
	require.NoError(t, err)
	require.Len(t, rec.calls, 4)
	assert.Equal(t, call{Op: "showText", Text: "AB"}, rec.calls[2])
}

func TestRun_ShowTextAdjustedSubstitutesAcrossStrings(t *testing.T) {
	var rec recorder
	_, err := newTestInterpreter().Rewrite([]byte("BT /F1 9 Tf [(%NA) 30 (ME%)] TJ ET"), testFonts(), &rec)
	require.NoError(t, err)
	assert.Equal(t, "ほげほげ", rec.calls[2].Text, "placeholder split by kerning is still replaced")
}

func TestRun_UnknownFontResource(t *testing.T) {
	var rec recorder
	_, err := newTestInterpreter().Rewrite([]byte("BT /F9 12 Tf ET"), testFonts(), &rec)
	var uf *UnknownFontResourceError
	require.True(t, errors.As(err, &uf))
	assert.Equal(t, "F9", uf.Name)
	assert.Equal(t, []string{"beginText"}, ops(rec.calls))
}

func TestRun_ShowBeforeFontSelection(t *testing.T) {
	for _, src := range []string{"BT (x) Tj ET", "BT [(x)] TJ ET"} {
		var rec recorder
		_, err := newTestInterpreter().Rewrite([]byte(src), testFonts(), &rec)
		var uf *UnknownFontResourceError
		require.True(t, errors.As(err, &uf), "%s: got %v", src, err)
		assert.Empty(t, uf.Name)
	}
}

func TestRun_DecodeErrorIsFatal(t *testing.T) {
	fonts := FontMap{"C0": &CIDFont{BaseFont: "Mincho", ToUnicodeMap: mustCMap(t, identityUCS)}}
	var rec recorder
	_, err := newTestInterpreter().Rewrite([]byte("BT /C0 10 Tf <004100> Tj (after) Tj ET"), fonts, &rec)
	var de *DecodeError
	require.True(t, errors.As(err, &de), "got %v", err)
	assert.ErrorIs(t, err, ErrTruncatedCode)
	assert.Equal(t, 2, de.Offset)
	assert.Equal(t, []string{"beginText", "setFont"}, ops(rec.calls), "nothing runs after the failing operator")
}

func TestRun_UnrecognizedOperatorsDropped(t *testing.T) {
	src := "q 1 0 0 1 0 0 cm 0.5 g BT /F1 12 Tf 1 0 0 1 50 60 Tm (Hi) Tj ET 10 10 m 20 30 l S Q"
	var rec recorder
	st, err := newTestInterpreter().Rewrite([]byte(src), testFonts(), &rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"beginText", "setFont", "setTextMatrix", "showText", "endText", "moveTo", "lineTo", "stroke"}, ops(rec.calls))
	assert.Equal(t, []float64{1, 0, 0, 1, 50, 60}, rec.calls[2].Args)
	assert.Equal(t, []float64{20, 30}, rec.calls[6].Args)
	assert.Equal(t, PageStats{Operators: 12, Emitted: 8, Dropped: 4}, st)
}

func TestRun_OperandsOfDroppedOperatorsAreDiscarded(t *testing.T) {
	var rec recorder
	// rg's three numbers must not satisfy the following Td
	_, err := newTestInterpreter().Rewrite([]byte("1 0 0 rg Td"), nil, &rec)
	var tm *TypeMismatchError
	require.True(t, errors.As(err, &tm))
	assert.Equal(t, 0, tm.Have)
}

func TestRun_EmitterErrorStopsPass(t *testing.T) {
	rec := recorder{failOn: "showText"}
	_, err := newTestInterpreter().Rewrite([]byte("BT /F1 12 Tf (a) Tj (b) Tj ET"), testFonts(), &rec)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "Tj at token")
	assert.Equal(t, []string{"beginText", "setFont", "showText"}, ops(rec.calls))
}

func TestRun_ParseErrorSurfaces(t *testing.T) {
	var rec recorder
	_, err := newTestInterpreter().Rewrite([]byte("BT (unterminated Tj"), testFonts(), &rec)
	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
	assert.Empty(t, rec.calls, "nothing is emitted for a stream that does not tokenize")
}

func TestRun_NestedBeginTextIsForwarded(t *testing.T) {
	var rec recorder
	_, err := newTestInterpreter().Rewrite([]byte("BT BT ET"), nil, &rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"beginText", "beginText", "endText"}, ops(rec.calls))
}

func TestRun_FontSwitchDecodesWithNewFont(t *testing.T) {
	fonts := FontMap{
		"F1": winAnsiFont(),
		"F2": &SimpleFont{BaseFont: "Custom", Differences: map[byte]string{'a': "Euro"}},
	}
	var rec recorder
	_, err := NewInterpreter(substitute, nil).Rewrite([]byte("BT /F1 10 Tf (a) Tj /F2 10 Tf (a) Tj ET"), fonts, &rec)
	require.NoError(t, err)
	assert.Equal(t, "a", rec.calls[2].Text)
	assert.Equal(t, "€", rec.calls[4].Text)
	assert.Same(t, substitute, rec.calls[3].Font, "destination always uses the substitute font")
}

func TestOpTable_Complete(t *testing.T) {
	for code, op := range opTable {
		assert.NotEmpty(t, op.keyword, "opcode %d has no keyword", code)
		assert.NotNil(t, op.exec, "opcode %s has no handler", op.keyword)
		assert.Equal(t, opcode(code), opcodes[op.keyword])
	}
	assert.Len(t, opcodes, int(numOpcodes))
}
