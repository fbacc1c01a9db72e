// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"fmt"
	"strings"

	"github.com/sassoftware/pdf-restamp/logger"
)

type opcode int

const (
	opBeginText opcode = iota
	opEndText
	opMoveText
	opSetMatrix
	opSetFont
	opShowText
	opShowTextAdjusted
	opMoveTo
	opLineTo
	opStroke
	numOpcodes
)

// An opSpec declares an operator's keyword, the kinds of the operands that
// must immediately precede it, and the action it performs.
type opSpec struct {
	keyword  string
	operands []Kind
	exec     func(p *pass, args []Token) error
}

var opTable = [numOpcodes]opSpec{
	opBeginText:        {"BT", nil, (*pass).beginText},
	opEndText:          {"ET", nil, (*pass).endText},
	opMoveText:         {"Td", []Kind{Number, Number}, (*pass).moveText},
	opSetMatrix:        {"Tm", []Kind{Number, Number, Number, Number, Number, Number}, (*pass).setMatrix},
	opSetFont:          {"Tf", []Kind{Name, Number}, (*pass).setFont},
	opShowText:         {"Tj", []Kind{String}, (*pass).showText},
	opShowTextAdjusted: {"TJ", []Kind{Array}, (*pass).showTextAdjusted},
	opMoveTo:           {"m", []Kind{Number, Number}, (*pass).moveTo},
	opLineTo:           {"l", []Kind{Number, Number}, (*pass).lineTo},
	opStroke:           {"S", nil, (*pass).stroke},
}

var opcodes = func() map[string]opcode {
	m := make(map[string]opcode, numOpcodes)
	for code, op := range opTable {
		m[op.keyword] = opcode(code)
	}
	return m
}()

// pop takes the operator's operands off the top of stk and checks their kinds.
func (s *opSpec) pop(stk *Stack) ([]Token, error) {
	need := len(s.operands)
	args, ok := stk.PopN(need)
	if !ok {
		return nil, &TypeMismatchError{Op: s.keyword, Have: stk.Len(), Need: need}
	}
	for i, want := range s.operands {
		if got := args[i].Kind(); got != want {
			return nil, &TypeMismatchError{Op: s.keyword, Operand: i, Want: want, Got: got, Have: need, Need: need}
		}
	}
	return args, nil
}

// PageStats counts what one interpreter pass did.
type PageStats struct {
	Operators     int `json:"operators"`
	Emitted       int `json:"emitted"`
	Dropped       int `json:"dropped"`
	Substitutions int `json:"substitutions"`
}

func (s *PageStats) add(o PageStats) {
	s.Operators += o.Operators
	s.Emitted += o.Emitted
	s.Dropped += o.Dropped
	s.Substitutions += o.Substitutions
}

// An Interpreter rewrites content streams against an Emitter. Text and path
// operators are translated one to one; text is decoded with the source font,
// run through the Replacer and shown in the substitute font. Every other
// operator is dropped.
//
// An Interpreter holds no per-page state and may be shared.
type Interpreter struct {
	font FontHandle
	repl *Replacer
}

// NewInterpreter returns an Interpreter that sets font on every font
// selection and applies repl to all shown text.
func NewInterpreter(font FontHandle, repl *Replacer) *Interpreter {
	return &Interpreter{font: font, repl: repl}
}

// Rewrite tokenizes content and runs it.
func (ip *Interpreter) Rewrite(content []byte, fonts FontMap, out Emitter) (PageStats, error) {
	toks, err := Tokenize(content)
	if err != nil {
		return PageStats{}, err
	}
	return ip.Run(toks, fonts, out)
}

// Run walks toks once, emitting the rewritten page to out. fonts resolves the
// font names used by Tf. The first failing operator stops the pass.
func (ip *Interpreter) Run(toks []Token, fonts FontMap, out Emitter) (PageStats, error) {
	p := &pass{ip: ip, fonts: fonts, out: out}
	var stk Stack
	for i, tok := range toks {
		if tok.Kind() != Operator {
			stk.Push(tok)
			continue
		}
		p.stats.Operators++
		code, ok := opcodes[tok.Op()]
		if !ok {
			p.stats.Dropped++
			stk.Reset()
			continue
		}
		op := &opTable[code]
		args, err := op.pop(&stk)
		stk.Reset()
		if err == nil {
			err = op.exec(p, args)
		}
		if err != nil {
			return p.stats, fmt.Errorf("%s at token %d (offset %d): %w", op.keyword, i, tok.Offset, err)
		}
		p.stats.Emitted++
	}
	if p.inText {
		logger.Debug("content stream ends inside a text object", true)
	}
	return p.stats, nil
}

// pass is the state of one page: whether a text object is open and which
// source font decodes shown strings.
type pass struct {
	ip     *Interpreter
	fonts  FontMap
	out    Emitter
	inText bool
	font   Font
	stats  PageStats
}

func (p *pass) beginText(args []Token) error {
	p.inText = true
	return p.out.BeginText()
}

func (p *pass) endText(args []Token) error {
	p.inText = false
	return p.out.EndText()
}

func (p *pass) moveText(args []Token) error {
	return p.out.NewLineAtOffset(args[0].Float64(), args[1].Float64())
}

func (p *pass) setMatrix(args []Token) error {
	return p.out.SetTextMatrix(args[0].Float64(), args[1].Float64(), args[2].Float64(),
		args[3].Float64(), args[4].Float64(), args[5].Float64())
}

func (p *pass) setFont(args []Token) error {
	name, size := args[0].Name(), args[1].Float64()
	f, ok := p.fonts[name]
	if !ok || f == nil {
		return &UnknownFontResourceError{Name: name}
	}
	logger.Debug(fmt.Sprintf("operator: Tf (%s %v)", name, size), true)
	p.font = f
	return p.out.SetFont(p.ip.font, size)
}

func (p *pass) showText(args []Token) error {
	text, err := p.decode(args[0])
	if err != nil {
		return err
	}
	return p.show(text)
}

// showTextAdjusted concatenates the strings of a TJ array; the spacing
// numbers between them are dropped.
func (p *pass) showTextAdjusted(args []Token) error {
	arr := args[0]
	var sb strings.Builder
	for i := 0; i < arr.Len(); i++ {
		elem := arr.Index(i)
		switch elem.Kind() {
		case String:
			text, err := p.decode(elem)
			if err != nil {
				return err
			}
			sb.WriteString(text)
		case Number:
		default:
			return &TypeMismatchError{Op: "TJ", Operand: i, Want: String, Got: elem.Kind(), Have: 1, Need: 1}
		}
	}
	return p.show(sb.String())
}

func (p *pass) decode(s Token) (string, error) {
	if p.font == nil {
		return "", &UnknownFontResourceError{}
	}
	return DecodeText(p.font, s.RawString())
}

func (p *pass) show(text string) error {
	out, n := p.ip.repl.ReplaceCount(text)
	p.stats.Substitutions += n
	logger.Debug(fmt.Sprintf("operator: show %q -> %q", text, out), true)
	return p.out.ShowText(out)
}

func (p *pass) moveTo(args []Token) error {
	return p.out.MoveTo(args[0].Float64(), args[1].Float64())
}

func (p *pass) lineTo(args []Token) error {
	return p.out.LineTo(args[0].Float64(), args[1].Float64())
}

func (p *pass) stroke(args []Token) error {
	return p.out.Stroke()
}
