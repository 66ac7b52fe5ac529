// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines the token kinds of chatvar conditions and directives,
// plus the identifier character classes shared by every pass.
package token

import (
	"strings"
	"unicode"
)

// Token represents a condition or directive token type.
type Token int

const (
	EOF Token = iota
	TEXT

	IDENT // variable name

	// Comparison operators
	EQ // ==
	NE // !=
	GE // >=
	LE // <=
	GT // >
	LT // <

	// Logical operators
	AND // && 且 并且
	OR  // || 或 或者
	NOT // ! 非 不是

	LPAREN
	RPAREN

	// Directives
	IF     // @if(cond):
	ELSEIF // @elseif(cond):
	ELSE   // @else:
	END    // @end
)

// Directive sigil and keywords.
const (
	Sigil = '@'

	KeywordIf     = "if"
	KeywordElseIf = "elseif"
	KeywordElse   = "else"
	KeywordEnd    = "end"
)

// Natural-language markers, longest first so 并且 wins over 且.
var (
	AndWords = []string{"&&", "并且", "且"}
	OrWords  = []string{"||", "或者", "或"}
	NotWords = []string{"不是", "非", "!"}
)

// Comparison operators, two-character forms first so ">=" never lexes as ">".
var comparisons = []struct {
	text string
	tok  Token
}{
	{">=", GE},
	{"<=", LE},
	{"==", EQ},
	{"!=", NE},
	{">", GT},
	{"<", LT},
}

// MatchComparison returns the comparison operator at the start of s and its
// byte length, or (TEXT, 0) if s does not start with one.
func MatchComparison(s string) (Token, int) {
	for _, c := range comparisons {
		if strings.HasPrefix(s, c.text) {
			return c.tok, len(c.text)
		}
	}
	return TEXT, 0
}

// MatchWord returns the length of the first word in words that prefixes s,
// or 0 when none does.
func MatchWord(s string, words []string) int {
	for _, w := range words {
		if strings.HasPrefix(s, w) {
			return len(w)
		}
	}
	return 0
}

// IsReserved reports whether name is a directive keyword.
func IsReserved(name string) bool {
	switch name {
	case KeywordIf, KeywordElseIf, KeywordElse, KeywordEnd:
		return true
	}
	return false
}

// IsIdentStart reports whether r may begin an identifier: an ASCII letter,
// underscore, or Han ideograph.
func IsIdentStart(r rune) bool {
	return r == '_' || (r < unicode.MaxASCII && unicode.IsLetter(r)) || unicode.Is(unicode.Han, r)
}

// IsIdentChar reports whether r may continue an identifier.
func IsIdentChar(r rune) bool {
	return IsIdentStart(r) || ('0' <= r && r <= '9')
}

// IsHorizontalSpace reports whether r is whitespace other than a line break.
func IsHorizontalSpace(r rune) bool {
	return r != '\n' && r != '\r' && unicode.IsSpace(r)
}

// String returns the string representation of a token.
func (t Token) String() string {
	switch t {
	case EOF:
		return "EOF"
	case TEXT:
		return "TEXT"
	case IDENT:
		return "IDENT"
	case EQ:
		return "=="
	case NE:
		return "!="
	case GE:
		return ">="
	case LE:
		return "<="
	case GT:
		return ">"
	case LT:
		return "<"
	case AND:
		return "&&"
	case OR:
		return "||"
	case NOT:
		return "!"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	case IF:
		return "@if"
	case ELSEIF:
		return "@elseif"
	case ELSE:
		return "@else"
	case END:
		return "@end"
	}
	return "UNKNOWN"
}

// IsComparison returns true if the token is one of the six comparison operators.
func (t Token) IsComparison() bool {
	switch t {
	case EQ, NE, GE, LE, GT, LT:
		return true
	}
	return false
}

// IsDirective returns true if the token is a block directive.
func (t Token) IsDirective() bool {
	switch t {
	case IF, ELSEIF, ELSE, END:
		return true
	}
	return false
}

// HasCondition returns true if the directive carries a parenthesized condition.
func (t Token) HasCondition() bool {
	return t == IF || t == ELSEIF
}
