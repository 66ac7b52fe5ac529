// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package expr defines chatvar condition trees and scalar comparison.
package expr

import (
	"strings"

	"nickandperla.net/chatvar/internal/token"
)

// Lookup resolves a variable name. ok is false when the variable is unknown.
type Lookup func(name string) (value string, ok bool)

// Cond is the interface all condition nodes implement.
type Cond interface {
	// String returns a canonical, fully parenthesized rendering.
	String() string
	// Eval reports whether the condition holds under lookup.
	Eval(lookup Lookup) bool
}

// Not negates its operand.
type Not struct {
	X Cond
}

func (n Not) String() string          { return "!(" + n.X.String() + ")" }
func (n Not) Eval(lookup Lookup) bool { return !n.X.Eval(lookup) }

// And holds when both sides hold. Both sides are always evaluated.
type And struct {
	L, R Cond
}

func (a And) String() string { return "(" + a.L.String() + " && " + a.R.String() + ")" }
func (a And) Eval(lookup Lookup) bool {
	l := a.L.Eval(lookup)
	r := a.R.Eval(lookup)
	return l && r
}

// Or holds when either side holds. Both sides are always evaluated.
type Or struct {
	L, R Cond
}

func (o Or) String() string { return "(" + o.L.String() + " || " + o.R.String() + ")" }
func (o Or) Eval(lookup Lookup) bool {
	l := o.L.Eval(lookup)
	r := o.R.Eval(lookup)
	return l || r
}

// Comparison compares a variable against a literal right-hand side.
type Comparison struct {
	Name  string
	Op    token.Token
	Value string
}

func (c Comparison) String() string {
	return c.Name + " " + c.Op.String() + " " + c.Value
}

// Eval is false when Name is unresolved; otherwise it delegates to Compare.
func (c Comparison) Eval(lookup Lookup) bool {
	if lookup == nil {
		return false
	}
	v, ok := lookup(c.Name)
	if !ok {
		return false
	}
	return Compare(v, c.Op, c.Value)
}

// Invalid is a condition that could not be parsed. It is always false.
type Invalid struct {
	Src string
}

func (i Invalid) String() string          { return "invalid(" + strings.TrimSpace(i.Src) + ")" }
func (i Invalid) Eval(lookup Lookup) bool { return false }

// Names returns the variable names a condition references, in source order.
func Names(c Cond) []string {
	switch n := c.(type) {
	case Not:
		return Names(n.X)
	case And:
		return append(Names(n.L), Names(n.R)...)
	case Or:
		return append(Names(n.L), Names(n.R)...)
	case Comparison:
		return []string{n.Name}
	}
	return nil
}

// MapLookup adapts a plain map to a Lookup.
func MapLookup(m map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}
