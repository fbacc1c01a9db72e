// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/sassoftware/pdf-restamp/logger"
)

// A FontHandle is a font usable on the destination page.
type FontHandle interface {
	// ResourceName is the name the page resources register the font under.
	ResourceName() string
	// EncodeText returns the string operand that shows text in this font.
	EncodeText(text string) ([]byte, error)
}

// An Emitter receives the rewritten instructions of one destination page, in
// the order the interpreter dispatches them.
type Emitter interface {
	BeginText() error
	EndText() error
	NewLineAtOffset(x, y float64) error
	SetTextMatrix(a, b, c, d, e, f float64) error
	SetFont(font FontHandle, size float64) error
	ShowText(text string) error
	MoveTo(x, y float64) error
	LineTo(x, y float64) error
	Stroke() error
}

// A ContentWriter is an Emitter that serializes instructions as PDF content
// stream syntax. It enforces the text object rules of the format: text
// objects do not nest, positioning and showing happen inside one, and path
// construction happens outside.
//
// Close must be called once the page is complete; it ends a text object left
// open and flushes the output.
type ContentWriter struct {
	w      *bufio.Writer
	inText bool
	font   FontHandle
	fonts  []FontHandle
	closed bool
	err    error
}

// NewContentWriter returns a ContentWriter writing to w.
func NewContentWriter(w io.Writer) *ContentWriter {
	return &ContentWriter{w: bufio.NewWriter(w)}
}

// Fonts returns the fonts selected on the page, in order of first use.
func (cw *ContentWriter) Fonts() []FontHandle {
	return append([]FontHandle(nil), cw.fonts...)
}

func (cw *ContentWriter) check() error {
	if cw.closed {
		return ErrWriterClosed
	}
	return cw.err
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (cw *ContentWriter) writeOp(op string, operands ...float64) error {
	for _, v := range operands {
		cw.w.WriteString(formatNumber(v))
		cw.w.WriteByte(' ')
	}
	cw.w.WriteString(op)
	if err := cw.w.WriteByte('\n'); err != nil {
		cw.err = err
	}
	return cw.err
}

func (cw *ContentWriter) BeginText() error {
	if err := cw.check(); err != nil {
		return err
	}
	if cw.inText {
		return ErrNestedText
	}
	cw.inText = true
	return cw.writeOp("BT")
}

func (cw *ContentWriter) EndText() error {
	if err := cw.check(); err != nil {
		return err
	}
	if !cw.inText {
		return fmt.Errorf("ET: %w", ErrNotInText)
	}
	cw.inText = false
	return cw.writeOp("ET")
}

func (cw *ContentWriter) NewLineAtOffset(x, y float64) error {
	if err := cw.check(); err != nil {
		return err
	}
	if !cw.inText {
		return fmt.Errorf("Td: %w", ErrNotInText)
	}
	return cw.writeOp("Td", x, y)
}

func (cw *ContentWriter) SetTextMatrix(a, b, c, d, e, f float64) error {
	if err := cw.check(); err != nil {
		return err
	}
	if !cw.inText {
		return fmt.Errorf("Tm: %w", ErrNotInText)
	}
	return cw.writeOp("Tm", a, b, c, d, e, f)
}

func (cw *ContentWriter) SetFont(font FontHandle, size float64) error {
	if err := cw.check(); err != nil {
		return err
	}
	if font == nil {
		return ErrNoFont
	}
	cw.font = font
	seen := false
	for _, f := range cw.fonts {
		if f.ResourceName() == font.ResourceName() {
			seen = true
			break
		}
	}
	if !seen {
		cw.fonts = append(cw.fonts, font)
	}
	cw.w.WriteByte('/')
	cw.w.WriteString(font.ResourceName())
	cw.w.WriteByte(' ')
	return cw.writeOp("Tf", size)
}

func (cw *ContentWriter) ShowText(text string) error {
	if err := cw.check(); err != nil {
		return err
	}
	if !cw.inText {
		return fmt.Errorf("Tj: %w", ErrNotInText)
	}
	if cw.font == nil {
		return ErrNoFont
	}
	b, err := cw.font.EncodeText(text)
	if err != nil {
		return err
	}
	cw.w.WriteByte('<')
	cw.w.WriteString(hex.EncodeToString(b))
	cw.w.WriteString("> ")
	return cw.writeOp("Tj")
}

func (cw *ContentWriter) MoveTo(x, y float64) error {
	if err := cw.check(); err != nil {
		return err
	}
	if cw.inText {
		return fmt.Errorf("m: %w", ErrPathInText)
	}
	return cw.writeOp("m", x, y)
}

func (cw *ContentWriter) LineTo(x, y float64) error {
	if err := cw.check(); err != nil {
		return err
	}
	if cw.inText {
		return fmt.Errorf("l: %w", ErrPathInText)
	}
	return cw.writeOp("l", x, y)
}

func (cw *ContentWriter) Stroke() error {
	if err := cw.check(); err != nil {
		return err
	}
	if cw.inText {
		return fmt.Errorf("S: %w", ErrPathInText)
	}
	return cw.writeOp("S")
}

// Close ends an open text object and flushes the output. Calling Close more
// than once is a no-op.
func (cw *ContentWriter) Close() error {
	if cw.closed {
		return nil
	}
	if cw.err == nil && cw.inText {
		logger.Debug("closing content writer inside a text object, ending it", true)
		cw.inText = false
		cw.writeOp("ET")
	}
	cw.closed = true
	if err := cw.w.Flush(); err != nil && cw.err == nil {
		cw.err = err
	}
	return cw.err
}
