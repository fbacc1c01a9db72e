// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"github.com/sassoftware/pdf-restamp/logger"
)

// A SubstituteFont is the single TrueType font every rewritten page shows its
// text in. Text is encoded as two-byte glyph ids (Identity-H).
//
// It is loaded once per run and never modified afterwards, so it may be
// shared between pages and documents without locking.
type SubstituteFont struct {
	resource string
	ttf      *truetype.Font
}

// LoadSubstituteFont parses TrueType font data. resource is the name the
// destination pages register the font under.
func LoadSubstituteFont(data []byte, resource string) (*SubstituteFont, error) {
	if resource == "" {
		return nil, errors.New("substitute font needs a resource name")
	}
	ttf, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse substitute font: %w", err)
	}
	f := &SubstituteFont{resource: resource, ttf: ttf}
	logger.Debug(fmt.Sprintf("Loaded substitute font: name=%s resource=%s", f.Name(), resource), true)
	return f, nil
}

// LoadSubstituteFontFile reads and parses a TrueType font file.
func LoadSubstituteFontFile(path, resource string) (*SubstituteFont, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadSubstituteFont(data, resource)
}

func (f *SubstituteFont) ResourceName() string {
	return f.resource
}

// Name returns the PostScript name of the font, or its full name.
func (f *SubstituteFont) Name() string {
	if n := f.ttf.Name(truetype.NameIDPostscriptName); n != "" {
		return n
	}
	return f.ttf.Name(truetype.NameIDFontFullName)
}

// HasGlyph reports whether the font can render r.
func (f *SubstituteFont) HasGlyph(r rune) bool {
	return f.ttf.Index(r) != 0
}

// EncodeText returns the big-endian glyph ids of text. It fails with
// ErrMissingGlyph on the first rune the font has no glyph for.
func (f *SubstituteFont) EncodeText(text string) ([]byte, error) {
	out := make([]byte, 0, 2*len(text))
	for _, r := range text {
		gid := f.ttf.Index(r)
		if gid == 0 {
			return nil, fmt.Errorf("%w: %q (U+%04X) in %s", ErrMissingGlyph, r, r, f.Name())
		}
		out = append(out, byte(gid>>8), byte(gid))
	}
	return out, nil
}
