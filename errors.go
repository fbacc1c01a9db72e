// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"errors"
	"fmt"
)

var (
	ErrTruncatedCode = errors.New("string ends in the middle of a character code")
	ErrNoCodeSpace   = errors.New("bytes match no code space range")
	ErrUnmappedCode  = errors.New("character code has no unicode mapping")
	ErrMissingGlyph  = errors.New("substitute font has no glyph for rune")
	ErrNestedText    = errors.New("nested begin text is not allowed")
	ErrNotInText     = errors.New("operation requires an open text object")
	ErrPathInText    = errors.New("path construction is not allowed inside a text object")
	ErrNoFont        = errors.New("no font has been set")
	ErrWriterClosed  = errors.New("content writer is closed")
)

// ParseError reports a malformed or truncated content stream.
type ParseError struct {
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Msg)
}

// TypeMismatchError reports operands that do not satisfy an operator's contract.
// When Have < Need the operand stack underflowed; otherwise Operand indexes the
// offending operand and Want/Got describe the mismatch.
type TypeMismatchError struct {
	Op      string
	Operand int
	Want    Kind
	Got     Kind
	Have    int
	Need    int
}

func (e *TypeMismatchError) Error() string {
	if e.Have < e.Need {
		return fmt.Sprintf("%s: stack underflow: need %d operands, have %d", e.Op, e.Need, e.Have)
	}
	return fmt.Sprintf("%s: operand %d: want %s, got %s", e.Op, e.Operand, e.Want, e.Got)
}

// UnknownFontResourceError reports a font name absent from the page resources.
// An empty Name means text was shown before any font was selected.
type UnknownFontResourceError struct {
	Name string
}

func (e *UnknownFontResourceError) Error() string {
	if e.Name == "" {
		return "text shown before any font was selected"
	}
	return fmt.Sprintf("unknown font resource /%s", e.Name)
}

// DecodeError reports string bytes that cannot be decoded with the current font.
type DecodeError struct {
	Offset int
	Code   Code
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Code.Width > 0 {
		return fmt.Sprintf("decode error at byte %d (code %s): %v", e.Offset, e.Code, e.Err)
	}
	return fmt.Sprintf("decode error at byte %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
