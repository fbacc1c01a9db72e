// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package restamp

// A Stack represents a stack of operand tokens.
type Stack struct {
	stack []Token
}

func (stk *Stack) Len() int {
	return len(stk.stack)
}

func (stk *Stack) Push(t Token) {
	stk.stack = append(stk.stack, t)
}

// Pop removes and returns the top token, or the zero Token when empty.
func (stk *Stack) Pop() Token {
	n := len(stk.stack)
	if n == 0 {
		return Token{}
	}
	t := stk.stack[n-1]
	stk.stack[n-1] = Token{}
	stk.stack = stk.stack[:n-1]
	return t
}

// PopN removes the top n tokens and returns them in push order.
// It reports false, leaving the stack untouched, when n is negative or fewer
// than n are held.
func (stk *Stack) PopN(n int) ([]Token, bool) {
	if n < 0 || n > len(stk.stack) {
		return nil, false
	}
	i := len(stk.stack) - n
	out := make([]Token, n)
	copy(out, stk.stack[i:])
	stk.stack = stk.stack[:i]
	return out, true
}

// Reset empties the stack, keeping its storage.
func (stk *Stack) Reset() {
	for i := range stk.stack {
		stk.stack[i] = Token{}
	}
	stk.stack = stk.stack[:0]
}
