// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

import (
	"encoding/json"
	"io"
)

// Stats summarizes the rewrite of one document.
type Stats struct {
	Pages       int   `json:"pages"`
	FailedPages []int `json:"failed_pages,omitempty"`
	PageStats
}

// WriteJSON writes the stats as pretty JSON to the provided writer.
func (s Stats) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteReport writes the results of RewriteAll as pretty JSON, including the
// error text of failed jobs.
func WriteReport(w io.Writer, results []JobResult) error {
	type entry struct {
		JobResult
		Error string `json:"error,omitempty"`
	}
	out := make([]entry, len(results))
	for i, r := range results {
		out[i] = entry{JobResult: r}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
