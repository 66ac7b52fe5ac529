// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package expr

import (
	"math"
	"strconv"
	"strings"

	"nickandperla.net/chatvar/internal/token"
)

// Compare evaluates left op right. When both sides parse as finite decimal
// numbers the comparison is numeric; otherwise it is a string comparison in
// code-point order. Unknown operators are false.
func Compare(left string, op token.Token, right string) bool {
	if l, ok := ParseNumber(left); ok {
		if r, ok := ParseNumber(right); ok {
			return compareOrdered(l, op, r)
		}
	}
	return compareOrdered(left, op, right)
}

func compareOrdered[T float64 | string](l T, op token.Token, r T) bool {
	switch op {
	case token.EQ:
		return l == r
	case token.NE:
		return l != r
	case token.GT:
		return l > r
	case token.LT:
		return l < r
	case token.GE:
		return l >= r
	case token.LE:
		return l <= r
	}
	return false
}

// ParseNumber parses s as a plain decimal float ("12", "-3.5", "1e3", ".5").
// Hex, underscore separators, Inf and NaN are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !isDecimal(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// isDecimal accepts [+-]digits[.digits][(e|E)[+-]digits] with at least one
// mantissa digit.
func isDecimal(s string) bool {
	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}
