// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package logger

import (
	"testing"

	"github.com/sassoftware/pdf-restamp/tracer"
	"github.com/stretchr/testify/assert"
)

type entry struct {
	level   LogLevel
	msg     string
	keyvals []interface{}
}

func capture(t *testing.T) *[]entry {
	t.Helper()
	var got []entry
	SetLogger(func(level LogLevel, msg string, keyvals ...interface{}) {
		got = append(got, entry{level, msg, keyvals})
	})
	t.Cleanup(func() {
		SetLogger(func(LogLevel, string, ...interface{}) {})
	})
	return &got
}

func TestDebug_TraceFlag(t *testing.T) {
	got := capture(t)
	tracer.Reset()

	Debug("plain", "k", "v")
	Debug("traced", "page", 1, true)

	assert.Len(t, *got, 2)
	assert.Equal(t, []interface{}{"k", "v"}, (*got)[0].keyvals)
	assert.Equal(t, []interface{}{"page", 1}, (*got)[1].keyvals, "trace flag must be stripped")
	assert.Equal(t, 1, tracer.Len(), "only the traced message is recorded")
	tracer.Reset()
}

func TestLevels(t *testing.T) {
	got := capture(t)

	Warn("w")
	Error("e")

	assert.Equal(t, WarnLevel, (*got)[0].level)
	assert.Equal(t, ErrorLevel, (*got)[1].level)
}

func TestSetLogger_IgnoresNil(t *testing.T) {
	got := capture(t)
	SetLogger(nil)
	Error("still captured")
	assert.Len(t, *got, 1)
}
