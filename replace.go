// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"strings"
)

// A Substitution replaces every occurrence of Placeholder with Replacement.
type Substitution struct {
	Placeholder string `toml:"placeholder" json:"placeholder" validate:"required"`
	Replacement string `toml:"replacement" json:"replacement"`
}

// DefaultSubstitutions are the placeholders of the stock template.
func DefaultSubstitutions() []Substitution {
	return []Substitution{
		{Placeholder: "%NAME%", Replacement: "ほげほげ"},
		{Placeholder: "%ADDRESS%", Replacement: "東京都千代田区千代田1-1"},
		{Placeholder: "%TEL%", Replacement: "012-3456-7890"},
	}
}

// A Replacer applies an ordered list of substitutions. Each substitution runs
// over the output of the ones before it. A Replacer is immutable and safe for
// concurrent use.
type Replacer struct {
	subs []Substitution
}

// NewReplacer returns a Replacer applying subs in order. Substitutions with an
// empty placeholder are skipped.
func NewReplacer(subs ...Substitution) *Replacer {
	r := &Replacer{subs: make([]Substitution, 0, len(subs))}
	for _, s := range subs {
		if s.Placeholder != "" {
			r.subs = append(r.subs, s)
		}
	}
	return r
}

// Substitutions returns a copy of the configured substitutions.
func (r *Replacer) Substitutions() []Substitution {
	return append([]Substitution(nil), r.subs...)
}

// Replace returns text with all substitutions applied.
func (r *Replacer) Replace(text string) string {
	out, _ := r.ReplaceCount(text)
	return out
}

// ReplaceCount is like Replace and also reports how many placeholder
// occurrences were replaced.
func (r *Replacer) ReplaceCount(text string) (string, int) {
	if r == nil {
		return text, 0
	}
	total := 0
	for _, s := range r.subs {
		n := strings.Count(text, s.Placeholder)
		if n == 0 {
			continue
		}
		total += n
		text = strings.ReplaceAll(text, s.Placeholder, s.Replacement)
	}
	return text, total
}
