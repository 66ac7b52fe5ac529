// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package block reduces @if/@elseif/@else/@end constructs in raw text to the
// content of their selected branch.
//
// Two families are handled. Multi-line blocks close with @end and are reduced
// innermost-first by repeated passes until nothing changes. Whatever @if
// directives remain afterwards are read as single-line constructs whose
// branches end at a newline, the end of the text, or the next directive.
package block

import (
	"strings"
	"unicode"

	"go.uber.org/zap"

	"nickandperla.net/chatvar/internal/expr"
	"nickandperla.net/chatvar/internal/parser"
	"nickandperla.net/chatvar/internal/scanner"
	"nickandperla.net/chatvar/internal/token"
)

// Option configures a Reduce call.
type Option func(*reducer)

// WithMaxPasses caps the number of multi-line passes. Zero or less selects
// the default, one more than the number of '@' in the input.
func WithMaxPasses(n int) Option {
	return func(r *reducer) { r.maxPasses = n }
}

// WithLogger sets the logger for branch decisions (debug) and pass-limit
// warnings.
func WithLogger(l *zap.Logger) Option {
	return func(r *reducer) {
		if l != nil {
			r.log = l
		}
	}
}

type reducer struct {
	lookup    expr.Lookup
	maxPasses int
	log       *zap.Logger
}

// Reduce resolves every conditional construct in text using lookup for
// variable values. It never fails: malformed directives are left verbatim.
func Reduce(text string, lookup expr.Lookup, opts ...Option) string {
	r := &reducer{lookup: lookup, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	if strings.IndexByte(text, token.Sigil) < 0 {
		return text
	}
	text = r.multiLine(text)
	return r.singleLine(text)
}

// multiLine runs innermost-block passes to a fix point.
func (r *reducer) multiLine(text string) string {
	limit := r.maxPasses
	if limit <= 0 {
		limit = strings.Count(text, string(token.Sigil)) + 1
	}
	for pass := 0; ; pass++ {
		if pass == limit {
			if len(innermost(scanner.ScanDirectives(text))) > 0 {
				r.log.Warn("conditional pass limit reached",
					zap.Int("passes", limit),
					zap.Int("remaining", strings.Count(text, string(token.Sigil))))
			}
			return text
		}
		next, n := r.reducePass(text)
		if n == 0 {
			return text
		}
		r.log.Debug("conditional pass", zap.Int("pass", pass+1), zap.Int("blocks", n))
		text = next
	}
}

// span is one innermost multi-line block: directives[first..last] with
// directives[last] being its @end.
type span struct {
	first, last int
}

// innermost returns the blocks whose branches contain no other block
// directive. Blocks never overlap.
func innermost(ds []scanner.Directive) []span {
	var out []span
	open := -1
	sawElse := false
	for i, d := range ds {
		switch d.Token {
		case token.IF:
			open, sawElse = i, false
		case token.ELSEIF:
			if sawElse {
				open = -1
			}
		case token.ELSE:
			if sawElse {
				open = -1
			}
			sawElse = true
		case token.END:
			if open >= 0 {
				out = append(out, span{first: open, last: i})
			}
			open = -1
		}
	}
	return out
}

func (r *reducer) reducePass(text string) (string, int) {
	ds := scanner.ScanDirectives(text)
	blocks := innermost(ds)
	if len(blocks) == 0 {
		return text, 0
	}

	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, s := range blocks {
		var branches []branch
		for i := s.first; i < s.last; i++ {
			branches = append(branches, branch{
				tok:     ds[i].Token,
				cond:    ds[i].Cond,
				content: text[ds[i].End:ds[i+1].Pos],
			})
		}
		b.WriteString(text[prev:ds[s.first].Pos])
		b.WriteString(r.selectBranch(branches))
		prev = ds[s.last].End
	}
	b.WriteString(text[prev:])
	return b.String(), len(blocks)
}

// singleLine reduces @if constructs that have no @end, left to right.
func (r *reducer) singleLine(text string) string {
	var b strings.Builder
	prev := 0
	i := 0
	for {
		j := strings.IndexByte(text[i:], token.Sigil)
		if j < 0 {
			break
		}
		i += j
		d, ok := scanner.DirectiveAt(text, i)
		if !ok || d.Token != token.IF {
			i++
			continue
		}
		branches, end := r.lineConstruct(text, d)
		b.WriteString(text[prev:d.Pos])
		b.WriteString(r.selectBranch(branches))
		prev, i = end, end
	}
	if prev == 0 {
		return text
	}
	b.WriteString(text[prev:])
	return b.String()
}

// lineConstruct collects the branches of a single-line construct starting at
// d and returns the offset just past its last non-space content.
func (r *reducer) lineConstruct(text string, d scanner.Directive) ([]branch, int) {
	var branches []branch
	for {
		stop := contentEnd(text, d.End)
		content := text[d.End:stop]
		branches = append(branches, branch{tok: d.Token, cond: d.Cond, content: content})
		end := d.End + len(strings.TrimRightFunc(content, unicode.IsSpace))
		if d.Token == token.ELSE || stop >= len(text) || text[stop] != token.Sigil {
			return branches, end
		}
		next, ok := scanner.DirectiveAt(text, stop)
		if !ok || (next.Token != token.ELSEIF && next.Token != token.ELSE) {
			return branches, end
		}
		d = next
	}
}

// contentEnd returns where single-line branch content starting at i stops:
// a line break, the end of text, or the start of a directive or reference.
func contentEnd(text string, i int) int {
	for k := i; k < len(text); k++ {
		switch text[k] {
		case '\n', '\r':
			return k
		case token.Sigil:
			if scanner.StartsDirective(text, k) {
				return k
			}
		}
	}
	return len(text)
}

type branch struct {
	tok     token.Token
	cond    string
	content string
}

// selectBranch returns the trimmed content of the first branch whose
// condition holds, else the @else content, else "".
func (r *reducer) selectBranch(branches []branch) string {
	for _, br := range branches {
		if br.tok == token.ELSE {
			r.log.Debug("else branch selected")
			return strings.TrimSpace(br.content)
		}
		c := parser.Parse(br.cond)
		ok := c.Eval(r.lookup)
		r.log.Debug("condition evaluated",
			zap.String("cond", strings.TrimSpace(br.cond)),
			zap.Stringer("parsed", c),
			zap.Bool("result", ok))
		if ok {
			return strings.TrimSpace(br.content)
		}
	}
	return ""
}
