// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"bytes"
	"compress/zlib"
	"encoding/ascii85"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/sassoftware/pdf-restamp/logger"
)

// EncodedPage is a SourcePage whose content stream is still encoded with
// the stream filters named in Filters, applied in order.
type EncodedPage struct {
	Data      []byte
	Filters   []string
	Resources FontMap
}

func (p EncodedPage) Contents() ([]byte, error) { return DecodeStream(p.Data, p.Filters...) }
func (p EncodedPage) Fonts() FontMap             { return p.Resources }

// DecodeStream removes the stream filters from data. FlateDecode,
// ASCII85Decode and ASCIIHexDecode are supported, under their full or
// abbreviated names.
func DecodeStream(data []byte, filters ...string) ([]byte, error) {
	var rd io.Reader = bytes.NewReader(data)
	for _, name := range filters {
		var err error
		if rd, err = applyFilter(rd, name); err != nil {
			return nil, err
		}
	}
	out, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("decode stream: %w", err)
	}
	return out, nil
}

func applyFilter(rd io.Reader, name string) (io.Reader, error) {
	switch name {
	case "FlateDecode", "Fl":
		zr, err := zlib.NewReader(rd)
		if err != nil {
			return nil, fmt.Errorf("FlateDecode: %w", err)
		}
		logger.Debug("filter: FlateDecode (decoder initialized)", true)
		return zr, nil
	case "ASCII85Decode", "A85":
		logger.Debug("filter: ASCII85Decode", true)
		return ascii85.NewDecoder(&alphaReader{r: rd}), nil
	case "ASCIIHexDecode", "AHx":
		logger.Debug("filter: ASCIIHexDecode", true)
		return decodeASCIIHex(rd)
	}
	logger.Error("unknown filter " + name)
	return nil, fmt.Errorf("unsupported filter %s", name)
}

// alphaReader blanks the ~> end marker of ASCII85 data and everything after
// it. The ascii85 decoder skips the zero bytes.
type alphaReader struct {
	r     io.Reader
	tilde bool
	done  bool
}

func (a *alphaReader) Read(b []byte) (int, error) {
	n, err := a.r.Read(b)
	for i := 0; i < n; i++ {
		switch c := b[i]; {
		case a.done:
			b[i] = 0
		case c == '~':
			a.tilde = true
			b[i] = 0
		case a.tilde && c == '>':
			a.done = true
			b[i] = 0
		default:
			a.tilde = false
		}
	}
	return n, err
}

func decodeASCIIHex(rd io.Reader) (io.Reader, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	digits := make([]byte, 0, len(data))
	for _, c := range data {
		if c == '>' {
			break
		}
		if isWhitespace(c) {
			continue
		}
		if !isHex(c) {
			return nil, fmt.Errorf("ASCIIHexDecode: invalid character %q", c)
		}
		digits = append(digits, c)
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, fmt.Errorf("ASCIIHexDecode: %w", err)
	}
	return bytes.NewReader(out), nil
}
