// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI runs the CLI with an isolated config and database.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	base := []string{"--config", filepath.Join(dir, "none.yaml"), "--env-file", filepath.Join(dir, "none.env")}
	var out, errOut bytes.Buffer
	err := run(append(base, args...), strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func TestSyntax(t *testing.T) {
	out, err := runCLI(t, "", "syntax")
	require.NoError(t, err)
	assert.Contains(t, out, "@if(")
	assert.Contains(t, out, "@elseif")
}

func TestEval(t *testing.T) {
	out, err := runCLI(t, "", "--memory", "eval", "@好感度", "=", "95")
	require.NoError(t, err)
	assert.Equal(t, "{{setvar::好感度::95}}\n", out)

	out, err = runCLI(t, "@x = 2\n@if(x > 1): big @else: small", "--memory", "eval")
	require.NoError(t, err)
	assert.Equal(t, "{{setvar::x::2}}\nbig\n", out)
}

func TestEvalNoConditionals(t *testing.T) {
	out, err := runCLI(t, "", "--memory", "--no-conditionals", "eval", "@if(x == 1): a")
	require.NoError(t, err)
	assert.Equal(t, "@if(x == 1): a\n", out)
}

func TestInvalidFlags(t *testing.T) {
	_, err := runCLI(t, "", "--log-format", "xml", "eval", "x")
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = runCLI(t, "", "--memory", "process", "--in-place")
	assert.ErrorContains(t, err, "--in-place")
}

const chatJSONL = `{"user_name":"User","character_name":"Bot"}
{"name":"User","is_user":true,"mes":"@hp = 10"}
{"name":"Bot","is_user":false,"mes":"@if(hp < 20): 危险 @else: 安全"}
`

func TestProcessStdout(t *testing.T) {
	out, err := runCLI(t, chatJSONL, "--memory", "process")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `{"user_name":"User","character_name":"Bot"}`, lines[0])
	assert.Equal(t, `{"name":"User","is_user":true,"mes":"{{setvar::hp::10}}"}`, lines[1])
	assert.Equal(t, `{"name":"Bot","is_user":false,"mes":"危险"}`, lines[2])
}

func TestProcessInPlaceAndRender(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat.jsonl")
	db := filepath.Join(dir, "vars.db")
	require.NoError(t, os.WriteFile(path, []byte(chatJSONL), 0o644))

	_, err := runCLI(t, "", "--db", db, "process", "--in-place", "--render", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mes":""`)
	assert.Contains(t, string(data), `"mes":"危险"`)

	out, err := runCLI(t, "", "--db", db, "vars", "get", "hp")
	require.NoError(t, err)
	assert.Equal(t, "10\n", out)
}

func TestProcessOutputFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "chat.json")
	outPath := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(in, []byte(`[{"mes":"@a = 1"},{"mes":"@a"}]`), 0o644))

	_, err := runCLI(t, "", "--memory", "process", "-o", outPath, in)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"mes":"{{setvar::a::1}}"},{"mes":"{{getvar::a}}"}]`, string(data))

	orig, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, `[{"mes":"@a = 1"},{"mes":"@a"}]`, string(orig))
}

func TestVarsCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vars.db")
	cv := func(args ...string) string {
		t.Helper()
		out, err := runCLI(t, "", append([]string{"--db", db}, args...)...)
		require.NoError(t, err)
		return out
	}

	cv("vars", "set", "名字", "小明")
	cv("vars", "set", "hp", "1")
	cv("vars", "set", "hp", "2")
	assert.Equal(t, "小明\n", cv("vars", "get", "名字"))

	list := cv("vars", "list")
	assert.Contains(t, list, "hp")
	assert.Contains(t, list, "小明")

	hist := strings.Split(strings.TrimSpace(cv("vars", "history", "hp")), "\n")
	require.Len(t, hist, 2)
	assert.True(t, strings.HasPrefix(hist[0], "2"))
	assert.True(t, strings.HasSuffix(hist[0], "2"))

	assert.Equal(t, "hp=2 名字=小明\n", cv("render", "hp={{getvar::hp}} 名字={{getvar::名字}}"))

	cv("vars", "rm", "hp")
	_, err := runCLI(t, "", "--db", db, "vars", "get", "hp")
	assert.ErrorContains(t, err, "not found")
}

func TestRender(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vars.db")
	out, err := runCLI(t, "", "--db", db, "render", "{{setvar::hp::7}}hp={{getvar::hp}}")
	require.NoError(t, err)
	assert.Equal(t, "hp=7\n", out)

	out, err = runCLI(t, "", "--db", db, "eval", "@if(hp == 7): stored @else: missing")
	require.NoError(t, err)
	assert.Equal(t, "stored\n", out)
}

func TestReplBasic(t *testing.T) {
	stdin := "@x = 1\n" +
		"@if(x == 1): one @else: two\n" +
		":vars\n" +
		"first \\\n" +
		"second @x\n"
	out, err := runCLI(t, stdin, "--memory", "repl")
	require.NoError(t, err)

	assert.Contains(t, out, "chatvar REPL")
	assert.Contains(t, out, ">>> {{setvar::x::1}}\n")
	assert.Contains(t, out, ">>> one\n")
	assert.Contains(t, out, "x = 1\n")
	assert.Contains(t, out, "... first \nsecond {{getvar::x}}\n")
}

func TestEditor(t *testing.T) {
	var out bytes.Buffer
	// "好a", Left, Alt+n, Ctrl+A, Delete, Ctrl+E, "!", Enter
	in := "好a\x1b[D\x1bn\x01\x1b[3~\x05!\r"
	ed := &editor{in: strings.NewReader(in), out: &out}
	line, eof := ed.readLine()
	assert.False(t, eof)
	assert.Equal(t, "@enda!", line)

	_, eof = ed.readLine()
	assert.True(t, eof)
}

func TestWidth(t *testing.T) {
	assert.Equal(t, 3, width([]rune("abc")))
	assert.Equal(t, 4, width([]rune("好感")))
	assert.Equal(t, 2, width([]rune("！")))
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.jsonl")
	bad := filepath.Join(dir, "sub", "bad.json")
	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(bad), 0o755))
	require.NoError(t, os.WriteFile(good, []byte(chatJSONL), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`[{"mes":"fine"},{"mes":"x\n@end"}]`), 0o644))
	require.NoError(t, os.WriteFile(notes, []byte("@if(a): b"), 0o644))

	out, err := runCLI(t, "", "check", "--dir", dir, notes)
	assert.ErrorContains(t, err, "2 of 3 files have issues")
	assert.Contains(t, out, "FAIL "+notes+"\n     line 1:1: condition \"a\" cannot be parsed")
	assert.Contains(t, out, "OK   "+good+"\n")
	assert.Contains(t, out, "FAIL "+bad+"\n     message 1: line 2:1: @end without matching @if\n")
	assert.Contains(t, out, "Failed: 2\n")

	out, err = runCLI(t, "", "check", good)
	require.NoError(t, err)
	assert.Contains(t, out, "Passed: 1\n")
}
