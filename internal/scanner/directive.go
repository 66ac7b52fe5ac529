// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package scanner

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"nickandperla.net/chatvar/internal/token"
)

// Directive is one block directive found in text.
type Directive struct {
	Token token.Token // IF, ELSEIF, ELSE or END
	Cond  string      // Raw condition between the parentheses (IF/ELSEIF only)
	Pos   int         // Byte offset of the '@'
	End   int         // Byte offset just past the directive, including its ':'
}

// ScanDirectives returns every block directive in text, in source order.
func ScanDirectives(text string) []Directive {
	var out []Directive
	i := 0
	for {
		j := strings.IndexByte(text[i:], token.Sigil)
		if j < 0 {
			return out
		}
		i += j
		if d, ok := DirectiveAt(text, i); ok {
			out = append(out, d)
			i = d.End
			continue
		}
		i++
	}
}

// DirectiveAt parses a block directive starting at text[i], which must be '@'.
//
//	@if(cond):   @elseif(cond):   @else:   @end
//
// Whitespace is allowed between the keyword and "(" and before ":".
// Conditions may contain balanced parentheses.
func DirectiveAt(text string, i int) (Directive, bool) {
	if i >= len(text) || text[i] != token.Sigil {
		return Directive{}, false
	}
	name, n := identAt(text, i+1)
	if name == "" {
		return Directive{}, false
	}
	p := i + 1 + n

	switch name {
	case token.KeywordEnd:
		return Directive{Token: token.END, Pos: i, End: p}, true

	case token.KeywordElse:
		p = skipSpace(text, p)
		if p >= len(text) || text[p] != ':' {
			return Directive{}, false
		}
		return Directive{Token: token.ELSE, Pos: i, End: p + 1}, true

	case token.KeywordIf, token.KeywordElseIf:
		p = skipSpace(text, p)
		if p >= len(text) || text[p] != '(' {
			return Directive{}, false
		}
		closing := matchParen(text, p)
		if closing < 0 {
			return Directive{}, false
		}
		cond := text[p+1 : closing]
		if strings.TrimSpace(cond) == "" {
			return Directive{}, false
		}
		q := skipSpace(text, closing+1)
		if q >= len(text) || text[q] != ':' {
			return Directive{}, false
		}
		t := token.IF
		if name == token.KeywordElseIf {
			t = token.ELSEIF
		}
		return Directive{Token: t, Cond: cond, Pos: i, End: q + 1}, true
	}
	return Directive{}, false
}

// StartsDirective reports whether text[i] begins a block directive or an
// @identifier reference. Single-line constructs end at such a position.
func StartsDirective(text string, i int) bool {
	if i >= len(text) || text[i] != token.Sigil {
		return false
	}
	if _, ok := DirectiveAt(text, i); ok {
		return true
	}
	name, _ := identAt(text, i+1)
	return name != ""
}

// IdentAt returns the identifier starting at text[i] and its byte length.
func IdentAt(text string, i int) (string, int) {
	return identAt(text, i)
}

func identAt(text string, i int) (string, int) {
	if i >= len(text) {
		return "", 0
	}
	r, size := utf8.DecodeRuneInString(text[i:])
	if !token.IsIdentStart(r) {
		return "", 0
	}
	n := size
	for i+n < len(text) {
		r, size := utf8.DecodeRuneInString(text[i+n:])
		if !token.IsIdentChar(r) {
			break
		}
		n += size
	}
	return text[i : i+n], n
}

// matchParen returns the offset of the ")" closing the "(" at text[open],
// or -1 if the parentheses never balance.
func matchParen(text string, open int) int {
	depth := 0
	for k := open; k < len(text); k++ {
		switch text[k] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}
