// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides a Unicode-aware lexer for chatvar conditions and
// a scanner for @-directives in free text.
package scanner

import (
	"unicode"
	"unicode/utf8"

	"nickandperla.net/chatvar/internal/token"
)

// Scanner tokenizes a condition rune-by-rune.
type Scanner struct {
	src    string
	pos    int
	peeked *Item
}

// Item represents a scanned token with its value and source span.
type Item struct {
	Token token.Token
	Value string
	Pos   int // Byte offset of the first rune
	End   int // Byte offset just past the token
}

// New creates a new Scanner over src.
func New(src string) *Scanner {
	return &Scanner{src: src}
}

// Source returns the text being scanned.
func (s *Scanner) Source() string {
	return s.src
}

// Peek returns the next item without consuming it.
func (s *Scanner) Peek() *Item {
	if s.peeked == nil {
		s.peeked = s.Next()
	}
	return s.peeked
}

// Next returns the next token from the input. At the end of input it keeps
// returning EOF.
func (s *Scanner) Next() *Item {
	if s.peeked != nil {
		item := s.peeked
		s.peeked = nil
		return item
	}

	s.skipSpace()
	start := s.pos
	if start >= len(s.src) {
		return &Item{Token: token.EOF, Pos: start, End: start}
	}
	rest := s.src[start:]

	switch rest[0] {
	case '(':
		return s.emit(token.LPAREN, 1)
	case ')':
		return s.emit(token.RPAREN, 1)
	}

	if n := token.MatchWord(rest, token.AndWords); n > 0 {
		return s.emit(token.AND, n)
	}
	if n := token.MatchWord(rest, token.OrWords); n > 0 {
		return s.emit(token.OR, n)
	}
	// Comparisons before NOT so "!=" never lexes as "!".
	if op, n := token.MatchComparison(rest); n > 0 {
		return s.emit(op, n)
	}
	if n := s.notMarker(rest); n > 0 {
		return s.emit(token.NOT, n)
	}

	r, size := utf8.DecodeRuneInString(rest)
	if token.IsIdentStart(r) {
		n := size
		for n < len(rest) {
			if s.breaksWord(rest[n:]) {
				break
			}
			r, size := utf8.DecodeRuneInString(rest[n:])
			if !token.IsIdentChar(r) {
				break
			}
			n += size
		}
		return s.emit(token.IDENT, n)
	}

	// Anything else is literal text up to the next space or operator.
	n := size
	for n < len(rest) {
		r, size := utf8.DecodeRuneInString(rest[n:])
		if unicode.IsSpace(r) || r == '(' || r == ')' || r == '!' || s.breaksWord(rest[n:]) {
			break
		}
		if _, k := token.MatchComparison(rest[n:]); k > 0 {
			break
		}
		n += size
	}
	return s.emit(token.TEXT, n)
}

// All scans the remaining input and returns every item before EOF.
func (s *Scanner) All() []Item {
	var items []Item
	for {
		item := s.Next()
		if item.Token == token.EOF {
			return items
		}
		items = append(items, *item)
	}
}

// Tokenize is shorthand for New(src).All().
func Tokenize(src string) []Item {
	return New(src).All()
}

func (s *Scanner) emit(t token.Token, n int) *Item {
	item := &Item{Token: t, Value: s.src[s.pos : s.pos+n], Pos: s.pos, End: s.pos + n}
	s.pos += n
	return item
}

func (s *Scanner) skipSpace() {
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		s.pos += size
	}
}

// breaksWord reports whether an AND/OR marker starts at rest. Marker words
// split runs of Han characters, so 好感度>80且等级>10 lexes as two comparisons.
func (s *Scanner) breaksWord(rest string) bool {
	return token.MatchWord(rest, token.AndWords) > 0 || token.MatchWord(rest, token.OrWords) > 0
}

// notMarker returns the length of a negation marker at the start of rest.
// "!" always negates; the word forms only count when a "(" follows, so
// identifiers such as 非常 stay identifiers.
func (s *Scanner) notMarker(rest string) int {
	n := token.MatchWord(rest, token.NotWords)
	if n == 0 {
		return 0
	}
	if rest[:n] == "!" {
		return n
	}
	for _, r := range rest[n:] {
		if r == '(' {
			return n
		}
		if !unicode.IsSpace(r) {
			return 0
		}
	}
	return 0
}
