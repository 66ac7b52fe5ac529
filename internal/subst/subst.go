// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package subst rewrites @name = value assignments and @name references into
// the variable-store protocol, and parses that protocol back out of text.
package subst

import (
	"strings"
	"unicode/utf8"

	"nickandperla.net/chatvar/internal/scanner"
	"nickandperla.net/chatvar/internal/token"
)

// Assignment is one @name = value found in text.
type Assignment struct {
	Name  string
	Value string // Trimmed
	Pos   int    // Byte offset of the '@'
	End   int    // Byte offset where the value run stops (next '@', newline or end)
}

// Rewrite replaces every assignment with a set token and every remaining
// reference with a get token. Assignments take precedence at any position,
// so an assignment's name is never read as a reference.
func Rewrite(text string) string {
	if strings.IndexByte(text, token.Sigil) < 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	i := 0
	for {
		j := strings.IndexByte(text[i:], token.Sigil)
		if j < 0 {
			break
		}
		i += j
		if a, ok := AssignmentAt(text, i); ok {
			b.WriteString(text[prev:i])
			b.WriteString(SetToken(a.Name, a.Value))
			prev, i = a.End, a.End
			continue
		}
		if name, end, ok := ReferenceAt(text, i); ok {
			b.WriteString(text[prev:i])
			b.WriteString(GetToken(name))
			prev, i = end, end
			continue
		}
		i++
	}
	if prev == 0 {
		return text
	}
	b.WriteString(text[prev:])
	return b.String()
}

// Assignments returns every assignment in text in source order.
func Assignments(text string) []Assignment {
	var out []Assignment
	i := 0
	for {
		j := strings.IndexByte(text[i:], token.Sigil)
		if j < 0 {
			return out
		}
		i += j
		if a, ok := AssignmentAt(text, i); ok {
			out = append(out, a)
			i = a.End
			continue
		}
		i++
	}
}

// Extract returns the assignments in text as a map. Later assignments to
// the same name win.
func Extract(text string) map[string]string {
	vars := make(map[string]string)
	for _, a := range Assignments(text) {
		vars[a.Name] = a.Value
	}
	return vars
}

// AssignmentAt parses "@name = value" at text[i]. Only horizontal space is
// allowed around '=', "==" is a comparison rather than an assignment, and an
// empty value is not an assignment.
func AssignmentAt(text string, i int) (Assignment, bool) {
	if i >= len(text) || text[i] != token.Sigil {
		return Assignment{}, false
	}
	name, n := scanner.IdentAt(text, i+1)
	if name == "" {
		return Assignment{}, false
	}
	p := skipHorizontal(text, i+1+n)
	if p >= len(text) || text[p] != '=' || (p+1 < len(text) && text[p+1] == '=') {
		return Assignment{}, false
	}
	start := p + 1
	end := start
	for end < len(text) && text[end] != token.Sigil && text[end] != '\n' && text[end] != '\r' {
		end++
	}
	value := strings.TrimSpace(text[start:end])
	if value == "" {
		return Assignment{}, false
	}
	return Assignment{Name: name, Value: value, Pos: i, End: end}, true
}

// ReferenceAt parses a bare "@name" at text[i] and returns the name and the
// offset just past it. Directive keywords, names followed by '=' and names
// followed by '(' are not references.
func ReferenceAt(text string, i int) (string, int, bool) {
	if i >= len(text) || text[i] != token.Sigil {
		return "", 0, false
	}
	name, n := scanner.IdentAt(text, i+1)
	if name == "" || token.IsReserved(name) {
		return "", 0, false
	}
	end := i + 1 + n
	p := skipHorizontal(text, end)
	if p < len(text) && (text[p] == '=' || text[p] == '(') {
		return "", 0, false
	}
	return name, end, true
}

func skipHorizontal(text string, i int) int {
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !token.IsHorizontalSpace(r) {
			break
		}
		i += size
	}
	return i
}
