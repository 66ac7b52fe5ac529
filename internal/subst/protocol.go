// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package subst

import "regexp"

// Kind distinguishes set and get tokens.
type Kind int

const (
	Set Kind = iota
	Get
)

func (k Kind) String() string {
	if k == Set {
		return "setvar"
	}
	return "getvar"
}

// Token is one protocol token found in text.
type Token struct {
	Kind  Kind
	Name  string
	Value string // Set only
	Pos   int
	End   int
}

// String renders the token in protocol form.
func (t Token) String() string {
	if t.Kind == Set {
		return SetToken(t.Name, t.Value)
	}
	return GetToken(t.Name)
}

// SetToken returns {{setvar::name::value}}.
func SetToken(name, value string) string {
	return "{{setvar::" + name + "::" + value + "}}"
}

// GetToken returns {{getvar::name}}.
func GetToken(name string) string {
	return "{{getvar::" + name + "}}"
}

var tokenRE = regexp.MustCompile(`\{\{setvar::([^:{}]+)::([^{}]*)\}\}|\{\{getvar::([^:{}]+)\}\}`)

// Tokens returns the set and get tokens in text in source order.
func Tokens(text string) []Token {
	matches := tokenRE.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Token, 0, len(matches))
	for _, m := range matches {
		if m[2] >= 0 {
			out = append(out, Token{Kind: Set, Name: text[m[2]:m[3]], Value: text[m[4]:m[5]], Pos: m[0], End: m[1]})
			continue
		}
		out = append(out, Token{Kind: Get, Name: text[m[6]:m[7]], Pos: m[0], End: m[1]})
	}
	return out
}

// FirstSet returns the value of the first set token for name in text that
// carries a non-empty value.
func FirstSet(text, name string) (string, bool) {
	for _, t := range Tokens(text) {
		if t.Kind == Set && t.Name == name && t.Value != "" {
			return t.Value, true
		}
	}
	return "", false
}
