// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package parser turns condition text into an expr.Cond.
//
// Rules are tried in a fixed order against the whole current range, and the
// first that matches wins:
//
//	1. NOT    marker "(" ... ")"  spanning the whole range
//	2. AND    first && / 并且 / 且 with both sides non-empty
//	3. OR     first || / 或者 / 或 with both sides non-empty
//	4. PAREN  "(" ... ")" spanning the whole range
//	5. CMP    first IDENT followed by a comparison operator; the rest of the
//	          range (trimmed) is the literal right-hand side
//
// Anything else is expr.Invalid. Markers split wherever they occur, inside
// parentheses too, so a split can leave a side with an unmatched "(" or ")".
// CMP skips a leading "(" and drops unmatched trailing ")" from its value.
// Because AND is tried before OR over the same range, "a || b && c" parses
// as "(a || b) && c", and "(a && b) || c" as "a && (b || c)".
package parser

import (
	"strings"

	"nickandperla.net/chatvar/internal/expr"
	"nickandperla.net/chatvar/internal/scanner"
	"nickandperla.net/chatvar/internal/token"
)

// Parse parses src. It never fails: input it cannot understand becomes
// expr.Invalid, which evaluates to false.
func Parse(src string) expr.Cond {
	p := &parser{src: src, items: scanner.Tokenize(src)}
	return p.parse(0, len(p.items))
}

// Eval parses src and evaluates it under lookup.
func Eval(src string, lookup expr.Lookup) bool {
	return Parse(src).Eval(lookup)
}

type parser struct {
	src   string
	items []scanner.Item
}

// parse parses items[lo:hi].
func (p *parser) parse(lo, hi int) expr.Cond {
	if lo >= hi {
		return expr.Invalid{}
	}

	if p.items[lo].Token == token.NOT && p.wraps(lo+1, hi) {
		return expr.Not{X: p.parse(lo+2, hi-1)}
	}
	if i := p.split(lo, hi, token.AND); i >= 0 {
		return expr.And{L: p.parse(lo, i), R: p.parse(i+1, hi)}
	}
	if i := p.split(lo, hi, token.OR); i >= 0 {
		return expr.Or{L: p.parse(lo, i), R: p.parse(i+1, hi)}
	}
	if p.wraps(lo, hi) {
		return p.parse(lo+1, hi-1)
	}
	return p.comparison(lo, hi)
}

// wraps reports whether items[open] is "(" whose matching ")" is the last
// item of the range, with something in between.
func (p *parser) wraps(open, hi int) bool {
	if open >= hi || p.items[open].Token != token.LPAREN || hi-open < 3 {
		return false
	}
	depth := 0
	for i := open; i < hi; i++ {
		switch p.items[i].Token {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			depth--
			if depth == 0 {
				return i == hi-1
			}
		}
	}
	return false
}

// split returns the index of the first kind marker that has items on both
// sides, or -1. Parentheses do not shield a marker.
func (p *parser) split(lo, hi int, kind token.Token) int {
	for i := lo + 1; i < hi-1; i++ {
		if p.items[i].Token == kind {
			return i
		}
	}
	return -1
}

func (p *parser) comparison(lo, hi int) expr.Cond {
	for i := lo; i+2 < hi; i++ {
		if p.items[i].Token != token.IDENT || !p.items[i+1].Token.IsComparison() {
			continue
		}
		rhs := strings.TrimSpace(p.src[p.items[i+1].End:p.items[hi-1].End])
		for n := p.unclosed(i+2, hi); n > 0 && strings.HasSuffix(rhs, ")"); n-- {
			rhs = strings.TrimSpace(strings.TrimSuffix(rhs, ")"))
		}
		return expr.Comparison{
			Name:  p.items[i].Value,
			Op:    p.items[i+1].Token,
			Value: rhs,
		}
	}
	return expr.Invalid{Src: p.text(lo, hi)}
}

// unclosed counts the ")" in items[lo:hi] that no "(" before them opens.
func (p *parser) unclosed(lo, hi int) int {
	open, n := 0, 0
	for i := lo; i < hi; i++ {
		switch p.items[i].Token {
		case token.LPAREN:
			open++
		case token.RPAREN:
			if open > 0 {
				open--
			} else {
				n++
			}
		}
	}
	return n
}

func (p *parser) text(lo, hi int) string {
	return p.src[p.items[lo].Pos:p.items[hi-1].End]
}
