// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package lint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckClean(t *testing.T) {
	tests := []string{
		"",
		"plain text",
		"@if(a > 1):\n  x\n@elseif(b == 2): y\n@else: z\n@end",
		"@if(a > 1): x @else: y",
		"@if(好感度 >= 90 且 非(状态 == 生气)): 好",
		"@x = 1 @x",
		"email@example.com",
	}
	for _, text := range tests {
		assert.Empty(t, Check(text), text)
	}
}

func TestCheckIssues(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Issue
	}{
		{
			name: "stray end",
			text: "hello\n  @end",
			want: []Issue{{2, 3, "@end without matching @if"}},
		},
		{
			name: "bare name condition",
			text: "@if(a): x @end",
			want: []Issue{{1, 1, `condition "a" cannot be parsed and is always false`}},
		},
		{
			name: "dangling and",
			text: "x\n@elseif(a > 1 &&): y",
			want: []Issue{{2, 1, `condition "a > 1 &&" cannot be parsed and is always false`}},
		},
		{
			name: "missing parens",
			text: "好 @if a > 1: x",
			want: []Issue{{1, 3, "malformed @if: expected @if(condition):"}},
		},
		{
			name: "else without colon",
			text: "@else then",
			want: []Issue{{1, 1, "malformed @else: expected @else:"}},
		},
		{
			name: "second else",
			text: "@if(a == 1): x @else: y @else: z @end",
			want: []Issue{{1, 25, "second @else leaves the block as text"}},
		},
		{
			name: "elseif after else",
			text: "@if(a == 1): x @else: y @elseif(b == 1): z @end",
			want: []Issue{{1, 25, "@elseif after @else leaves the block as text"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.text))
		})
	}
}

func TestIssueString(t *testing.T) {
	assert.Equal(t, "line 3:7: oops", Issue{Line: 3, Col: 7, Msg: "oops"}.String())
}
