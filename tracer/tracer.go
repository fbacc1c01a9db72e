// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package tracer

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu            sync.Mutex
	out           io.Writer = os.Stdout
	traceMessages []string
)

// SetOutput changes where Flush writes. A nil writer restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// Log just adds a message to the trace log.
func Log(msg string) {
	mu.Lock()
	traceMessages = append(traceMessages, msg)
	mu.Unlock()
}

// Len reports how many messages are waiting to be flushed.
func Len() int {
	mu.Lock()
	defer mu.Unlock()
	return len(traceMessages)
}

// Flush prints the accumulated trace log and resets it.
func Flush() {
	mu.Lock()
	defer mu.Unlock()
	for _, msg := range traceMessages {
		fmt.Fprintln(out, msg)
	}
	// reset so the next run starts fresh
	traceMessages = nil
}

// Reset drops the accumulated trace log without printing it.
func Reset() {
	mu.Lock()
	traceMessages = nil
	mu.Unlock()
}
