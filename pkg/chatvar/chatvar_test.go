// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package chatvar

import (
	"path/filepath"
	"reflect"
	"testing"
)

func newRuntime(t *testing.T, opts ...Option) *Runtime {
	t.Helper()
	r, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestProcessChat(t *testing.T) {
	r := newRuntime(t)
	msgs := TextMessages("@好感度 = 95", "@if(好感度 > 90): 关系很好 @else: 关系一般", "平常的一句话")

	res := r.ProcessChat(msgs)

	want := []string{"{{setvar::好感度::95}}", "关系很好", "平常的一句话"}
	for i, m := range msgs {
		if m.Content() != want[i] {
			t.Errorf("message %d: expected %q, got %q", i, want[i], m.Content())
		}
	}
	if !reflect.DeepEqual(res.Changed, []int{0, 1}) {
		t.Errorf("expected changed [0 1], got %v", res.Changed)
	}
	if res.Variables["好感度"] != "95" {
		t.Errorf("expected 好感度=95, got %v", res.Variables)
	}
}

func TestStoreFallback(t *testing.T) {
	r := newRuntime(t, WithMemoryStore(map[string]string{"名字": "小明"}))
	if got := r.ProcessText("@if(名字 == 小明): hi @else: bye"); got != "hi" {
		t.Errorf("expected 'hi', got '%s'", got)
	}
}

func TestHistoryLookup(t *testing.T) {
	texts := []string{"{{setvar::hp::10}}", "@if(hp < 20): 危险 @else: 安全"}

	r := newRuntime(t)
	msgs := TextMessages(texts...)
	res := r.ProcessChat(msgs)
	if got := msgs[1].Content(); got != "危险" {
		t.Errorf("expected '危险', got '%s'", got)
	}
	if !reflect.DeepEqual(res.Changed, []int{1}) {
		t.Errorf("expected changed [1], got %v", res.Changed)
	}

	r = newRuntime(t, WithNoHistory())
	msgs = TextMessages(texts...)
	r.ProcessChat(msgs)
	if got := msgs[1].Content(); got != "安全" {
		t.Errorf("expected '安全' without history, got '%s'", got)
	}
}

func TestStaticVariables(t *testing.T) {
	r := newRuntime(t,
		WithMemoryStore(map[string]string{"a": "store"}),
		WithVariables(map[string]string{"a": "static", "b": "static"}))

	if got := r.ProcessText("@if(a == store): yes @else: no"); got != "yes" {
		t.Errorf("store should beat static variables, got '%s'", got)
	}
	if got := r.ProcessText("@if(b == static): yes @else: no"); got != "yes" {
		t.Errorf("expected static fallback, got '%s'", got)
	}
}

func TestCustomPrelude(t *testing.T) {
	r := newRuntime(t, WithPrelude("@mood = happy"))
	if got := r.ProcessText("@if(mood == happy): 笑 @else: 哭"); got != "笑" {
		t.Errorf("expected prelude default, got '%s'", got)
	}
}

func TestNoPreludeOption(t *testing.T) {
	r := newRuntime(t, WithPrelude("@mood = happy"), WithNoPrelude())
	if got := r.ProcessText("@if(mood == happy): 笑 @else: 哭"); got != "哭" {
		t.Errorf("expected no prelude, got '%s'", got)
	}
}

func TestPreludeIsLastFallback(t *testing.T) {
	r := newRuntime(t,
		WithMemoryStore(map[string]string{"mood": "sad"}),
		WithPrelude("@mood = happy"))
	if got := r.ProcessText("@if(mood == happy): 笑 @else: 哭"); got != "哭" {
		t.Errorf("store should override prelude, got '%s'", got)
	}
}

func TestDatabasePreludeOverride(t *testing.T) {
	r := newRuntime(t,
		WithMemoryStore(map[string]string{PreludeKey: "@mood = happy"}),
		WithPrelude("@mood = sad"))
	if got := r.ProcessText("@if(mood == happy): 笑 @else: 哭"); got != "笑" {
		t.Errorf("expected stored prelude, got '%s'", got)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vars.db")

	r, err := New(WithSQLiteStore(path))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, writes, err := r.Render("{{setvar::a::1}}ok")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "ok" || len(writes) != 1 {
		t.Errorf("unexpected render: %q %v", out, writes)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	r = newRuntime(t, WithSQLiteStore(path))
	if got := r.ProcessText("@if(a == 1): yes @else: no"); got != "yes" {
		t.Errorf("expected persisted value, got '%s'", got)
	}
}

func TestSQLiteStoreError(t *testing.T) {
	if _, err := New(WithSQLiteStore("  ")); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSession(t *testing.T) {
	r := newRuntime(t)
	s := r.NewSession()

	steps := []struct{ in, out string }{
		{"@x = 1", "{{setvar::x::1}}"},
		{"@if(x == 1): one @else: other", "one"},
		{"值是 @x", "值是 {{getvar::x}}"},
	}
	for _, st := range steps {
		if got := s.Send(st.in); got != st.out {
			t.Errorf("Send(%q): expected %q, got %q", st.in, st.out, got)
		}
	}
	if s.Len() != 3 {
		t.Errorf("expected 3 messages, got %d", s.Len())
	}
	if !reflect.DeepEqual(s.Variables(), map[string]string{"x": "1"}) {
		t.Errorf("unexpected variables %v", s.Variables())
	}
}

func TestSettingsOptions(t *testing.T) {
	in := "@if(x == 1): a @else: b"

	r := newRuntime(t, WithEnabled(false))
	if got := r.ProcessText(in); got != in {
		t.Errorf("disabled runtime changed text: %q", got)
	}

	r = newRuntime(t, WithConditionals(false))
	if got := r.ProcessText(in); got != in {
		t.Errorf("expected conditionals left alone, got %q", got)
	}

	r = newRuntime(t, WithSettings(Settings{Enabled: true}), WithDebug(true), WithMaxPasses(3))
	s := r.Settings()
	if !s.Enabled || !s.Debug || s.Conditionals || s.MaxPasses != 3 {
		t.Errorf("unexpected settings %+v", s)
	}
}
