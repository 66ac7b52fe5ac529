// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package lint reports chatvar constructs that will not behave as written.
// Processing never fails on them: malformed directives stay as text and
// unparseable conditions are false.
package lint

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"nickandperla.net/chatvar/internal/expr"
	"nickandperla.net/chatvar/internal/parser"
	"nickandperla.net/chatvar/internal/scanner"
	"nickandperla.net/chatvar/internal/token"
)

// Issue is one problem found in a text.
type Issue struct {
	Line int // 1-based
	Col  int // 1-based, in characters
	Msg  string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d:%d: %s", i.Line, i.Col, i.Msg)
}

type frame struct {
	pos     int
	sawElse bool
}

// Check returns the issues in text in source order.
func Check(text string) []Issue {
	c := checker{text: text}
	var open []frame

	i := 0
	for {
		j := strings.IndexByte(text[i:], token.Sigil)
		if j < 0 {
			break
		}
		i += j

		d, ok := scanner.DirectiveAt(text, i)
		if !ok {
			c.malformed(i)
			i++
			continue
		}
		i = d.End

		switch d.Token {
		case token.IF:
			open = append(open, frame{pos: d.Pos})
			c.condition(d)
		case token.ELSEIF:
			c.condition(d)
			if n := len(open); n > 0 && open[n-1].sawElse {
				c.add(d.Pos, "@elseif after @else leaves the block as text")
			}
		case token.ELSE:
			if n := len(open); n > 0 {
				if open[n-1].sawElse {
					c.add(d.Pos, "second @else leaves the block as text")
				}
				open[n-1].sawElse = true
			}
		case token.END:
			if len(open) == 0 {
				c.add(d.Pos, "@end without matching @if")
				continue
			}
			open = open[:len(open)-1]
		}
	}
	return c.issues
}

type checker struct {
	text   string
	issues []Issue
}

// malformed reports '@' + directive keyword that does not form a directive.
func (c *checker) malformed(i int) {
	name, _ := scanner.IdentAt(c.text, i+1)
	switch name {
	case token.KeywordIf, token.KeywordElseIf:
		c.add(i, fmt.Sprintf("malformed @%s: expected @%s(condition):", name, name))
	case token.KeywordElse:
		c.add(i, "malformed @else: expected @else:")
	}
}

func (c *checker) condition(d scanner.Directive) {
	if hasInvalid(parser.Parse(d.Cond)) {
		c.add(d.Pos, fmt.Sprintf("condition %q cannot be parsed and is always false", strings.TrimSpace(d.Cond)))
	}
}

func (c *checker) add(pos int, msg string) {
	line := 1 + strings.Count(c.text[:pos], "\n")
	start := strings.LastIndexByte(c.text[:pos], '\n') + 1
	col := 1 + utf8.RuneCountInString(c.text[start:pos])
	c.issues = append(c.issues, Issue{Line: line, Col: col, Msg: msg})
}

// hasInvalid reports whether any part of cond failed to parse.
func hasInvalid(cond expr.Cond) bool {
	switch c := cond.(type) {
	case expr.Invalid:
		return true
	case expr.Not:
		return hasInvalid(c.X)
	case expr.And:
		return hasInvalid(c.L) || hasInvalid(c.R)
	case expr.Or:
		return hasInvalid(c.L) || hasInvalid(c.R)
	}
	return false
}
