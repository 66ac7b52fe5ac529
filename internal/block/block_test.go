// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"nickandperla.net/chatvar/internal/expr"
)

func vars(kv ...string) expr.Lookup {
	m := make(map[string]string)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return expr.MapLookup(m)
}

const nested = "@if(状态 == 战斗): @if(生命值 > 50): 继续战斗！ @else: 快逃跑！ @end @else: 平静的一天 @end"

func TestNestedBlocks(t *testing.T) {
	assert.Equal(t, "快逃跑！", Reduce(nested, vars("状态", "战斗", "生命值", "30")))
	assert.Equal(t, "继续战斗！", Reduce(nested, vars("状态", "战斗", "生命值", "80")))
	assert.Equal(t, "平静的一天", Reduce(nested, vars("状态", "平静", "生命值", "80")))
	assert.Equal(t, "平静的一天", Reduce(nested, nil))
}

func TestMultiLineShapes(t *testing.T) {
	chain := "@if(x > 10): big\n@elseif(x > 5): mid\n@else: small\n@end"
	tests := []struct {
		name string
		text string
		x    string
		want string
	}{
		{"elseif first", chain, "11", "big"},
		{"elseif second", chain, "7", "mid"},
		{"elseif else", chain, "1", "small"},
		{"if else true", "@if(x == 1): yes @else: no @end", "1", "yes"},
		{"if else false", "@if(x == 1): yes @else: no @end", "2", "no"},
		{"if only true", "前 @if(x > 1): A @end 后", "2", "前 A 后"},
		{"if only false", "前 @if(x > 1): A @end 后", "0", "前  后"},
		{"no else none true", "@if(x > 10): a @elseif(x > 5): b @end", "1", ""},
		{"spaces around parts", "@if (x > 1) : ok @else : no @end", "2", "ok"},
		{"grouped condition", "@if((x > 1 || x < -1) && x != 5): ok @end", "-3", "ok"},
		{"two blocks one pass", "@if(x > 1): A @end and @if(x < 1): B @end", "2", "A and "},
		{"references kept", "@if(x > 1): hello @name @end", "2", "hello @name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reduce(tt.text, vars("x", tt.x)))
		})
	}
}

func TestSingleLine(t *testing.T) {
	const text = "@if(好感度 > 90): 关系很好 @else: 关系一般"
	assert.Equal(t, "关系很好", Reduce(text, vars("好感度", "100")))
	assert.Equal(t, "关系一般", Reduce(text, vars("好感度", "50")))
	assert.Equal(t, "关系一般", Reduce(text, vars()), "missing variable routes to else")

	tests := []struct {
		name string
		text string
		x    string
		want string
	}{
		{"ends at newline", "@if(x > 1): yes\nnext line", "0", "\nnext line"},
		{"ends at newline true", "@if(x > 1): yes\nnext line", "2", "yes\nnext line"},
		{"ends at carriage return", "@if(x > 1): yes\r\nnext line", "0", "\r\nnext line"},
		{"ends at carriage return true", "@if(x > 1): yes\r\nnext line", "2", "yes\r\nnext line"},
		{"else ends at carriage return", "@if(x > 1): A @else: B\r\ntail", "0", "B\r\ntail"},
		{"ends at reference", "@if(x > 1): hi @name rest", "2", "hi @name rest"},
		{"elseif chain", "@if(x > 10): a @elseif(x > 5): b @else: c", "7", "b"},
		{"elseif chain else", "@if(x > 10): a @elseif(x > 5): b @else: c", "0", "c"},
		{"per line", "@if(x > 1): A\n@if(x > 5): B\ntail", "3", "A\n\ntail"},
		{"else ends construct", "@if(x > 1): A @else: B @other", "0", "B @other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reduce(tt.text, vars("x", tt.x)))
		})
	}
}

func TestMalformedLeftVerbatim(t *testing.T) {
	for _, text := range []string{
		"@else: orphan @end",
		"@if(x > 1 : broken",
		"@if(): empty",
		"@if x > 1: no parens",
		"@elseif(x > 1): stray",
		"plain @mention and mail@example.com",
		"no directives at all",
	} {
		assert.Equal(t, text, Reduce(text, vars("x", "2")), text)
	}
}

func TestUnparseableConditionIsFalse(t *testing.T) {
	assert.Equal(t, "no", Reduce("@if(10 > 5): yes @else: no @end", vars()))
}

func TestPassLimit(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	got := Reduce(nested, vars("状态", "战斗", "生命值", "30"),
		WithMaxPasses(1), WithLogger(zap.New(core)))

	// One pass resolves the inner block; the outer block is then read as a
	// single-line construct that stops before the dangling @end.
	assert.Equal(t, "快逃跑！ @end", got)
	assert.Equal(t, 1, logs.FilterMessage("conditional pass limit reached").Len())
}

func TestDefaultLimitIsEnough(t *testing.T) {
	text := "@if(a > 0): @if(a > 1): @if(a > 2): @if(a > 3): deep @end @end @end @end"
	core, logs := observer.New(zapcore.WarnLevel)
	assert.Equal(t, "deep", Reduce(text, vars("a", "9"), WithLogger(zap.New(core))))
	assert.Zero(t, logs.Len())
}

func TestDebugLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Reduce("@if(x > 1): yes @else: no @end", vars("x", "2"), WithLogger(zap.New(core)))

	entries := logs.FilterMessage("condition evaluated").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "x > 1", fields["cond"])
		assert.Equal(t, true, fields["result"])
	}
}
