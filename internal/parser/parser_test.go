// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickandperla.net/chatvar/internal/expr"
	"nickandperla.net/chatvar/internal/token"
)

func TestEvalExamples(t *testing.T) {
	vars := expr.MapLookup(map[string]string{"好感度": "85", "等级": "15"})

	assert.True(t, Eval("好感度 > 80 && 等级 >= 10", vars))
	assert.True(t, Eval("!(等级 < 5)", vars))
	assert.True(t, Eval("好感度>80且等级>=10", vars))
	assert.True(t, Eval("好感度 > 90 或者 等级 == 15", vars))
	assert.False(t, Eval("好感度 > 90 || 等级 != 15", vars))
	assert.True(t, Eval("非(好感度 > 90)", vars))
	assert.True(t, Eval("不是 (好感度 > 90)", vars))
}

func TestParseTree(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a > 1", "a > 1"},
		{"  a >= 10  ", "a >= 10"},
		{"a>=1", "a >= 1"},
		{"a <= 1", "a <= 1"},
		{"!(a == 1)", "!(a == 1)"},
		{"((a != b))", "a != b"},
		{"a > 1 && b < 2", "(a > 1 && b < 2)"},
		{"a > 1 || b < 2", "(a > 1 || b < 2)"},
		{"a > 1 && b > 2 && c > 3", "(a > 1 && (b > 2 && c > 3))"},
		{"(a > 1 || b > 2) && c > 3", "((a > 1 || b > 2) && c > 3)"},
		{"(a > 1 && b > 2) || c > 3", "(a > 1 && (b > 2 || c > 3))"},
		{"a > 1 || (b > 2 && c > 3)", "((a > 1 || b > 2) && c > 3)"},
		{"a == (x)", "a == (x)"},
		{"!(a > 1) && b > 2", "(!(a > 1) && b > 2)"},
		{"状态 == 战斗 中", "状态 == 战斗 中"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Parse(tt.src).String(), tt.src)
	}
}

// AND is tried before OR over the whole range, so a mixed expression without
// parentheses groups as "(a || b) && c" rather than "a || (b && c)".
func TestAndBeforeOrTryOrder(t *testing.T) {
	c := Parse("a > 1 || b > 1 && c > 1")
	require.IsType(t, expr.And{}, c)
	assert.Equal(t, "((a > 1 || b > 1) && c > 1)", c.String())

	vars := expr.MapLookup(map[string]string{"a": "2", "b": "0", "c": "0"})
	assert.False(t, c.Eval(vars))
}

// Markers split at their first occurrence even inside parentheses; the
// leftover "(" and ")" are ignored by the comparisons on either side.
func TestMarkersInsideParentheses(t *testing.T) {
	vars := expr.MapLookup(map[string]string{"a": "0", "b": "0", "c": "5"})

	c := Parse("(a > 1 && b > 1) || c > 1")
	require.IsType(t, expr.And{}, c)
	assert.Equal(t, "(a > 1 && (b > 1 || c > 1))", c.String())
	assert.False(t, c.Eval(vars))

	c = Parse("a > 1 || (b > 1 && c > 1)")
	assert.Equal(t, "((a > 1 || b > 1) && c > 1)", c.String())
	assert.False(t, c.Eval(expr.MapLookup(map[string]string{"a": "2", "b": "0", "c": "0"})))

	assert.True(t, Eval("(c > 1)) && (a == 0", vars))
}

func TestNotNeedsWholeRange(t *testing.T) {
	// "!(a > 1) || b > 1" is not a NOT over the whole string; OR applies first.
	c := Parse("!(a > 1) || b > 1")
	require.IsType(t, expr.Or{}, c)
}

func TestUnparseableIsFalse(t *testing.T) {
	vars := expr.MapLookup(map[string]string{"a": "1"})
	for _, src := range []string{"", "   ", "10 > 5", "a", "a ==", "()", "!()", "&& a > 1 &&", "hello world"} {
		c := Parse(src)
		assert.False(t, c.Eval(vars), "%q parsed as %s", src, c)
	}
	assert.IsType(t, expr.Invalid{}, Parse("10 > 5"))
}

func TestMissingVariable(t *testing.T) {
	vars := expr.MapLookup(map[string]string{"a": "1"})
	assert.False(t, Eval("missing > 0", vars))
	assert.False(t, Eval("missing == ", vars))
	assert.True(t, Eval("!(missing > 0)", vars))
	assert.True(t, Eval("missing > 0 || a == 1", vars))
}

func TestComparisonFields(t *testing.T) {
	c, ok := Parse("生命值 >= 50").(expr.Comparison)
	require.True(t, ok)
	assert.Equal(t, "生命值", c.Name)
	assert.Equal(t, token.GE, c.Op)
	assert.Equal(t, "50", c.Value)
}
