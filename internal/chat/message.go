// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Message is a chat message with mutable text.
type Message interface {
	Content() string
	SetContent(text string)
}

// TextMessage is a Message holding only text.
type TextMessage struct {
	Text string
}

func (m *TextMessage) Content() string        { return m.Text }
func (m *TextMessage) SetContent(text string) { m.Text = text }

// TextMessages wraps texts as messages.
func TextMessages(texts ...string) []Message {
	msgs := make([]Message, len(texts))
	for i, t := range texts {
		msgs[i] = &TextMessage{Text: t}
	}
	return msgs
}

// Contents returns the text of every message.
func Contents(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content()
	}
	return out
}

// Field names of a SillyTavern chat entry that chatvar reads.
const (
	FieldText   = "mes"
	FieldName   = "name"
	FieldIsUser = "is_user"
)

// Entry is one chat record. Every JSON field is kept, in its original order,
// so a rewritten chat differs from its input only in the "mes" text. A bare
// JSON string is also accepted and written back as a string.
type Entry struct {
	keys   []string
	fields map[string]json.RawMessage
	bare   bool
}

// NewEntry creates an entry with the given speaker and text.
func NewEntry(name string, isUser bool, text string) *Entry {
	e := &Entry{fields: make(map[string]json.RawMessage)}
	e.set(FieldName, name)
	e.set(FieldIsUser, isUser)
	e.set(FieldText, text)
	return e
}

// Content returns the entry's text, or "" when it has none. A nil entry
// (a JSON null in an array chat) has none.
func (e *Entry) Content() string {
	var s string
	if e == nil {
		return s
	}
	if raw, ok := e.fields[FieldText]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// SetContent replaces the entry's text.
func (e *Entry) SetContent(text string) {
	e.set(FieldText, text)
}

// HasContent reports whether the entry carries a text field.
func (e *Entry) HasContent() bool {
	_, ok := e.fields[FieldText]
	return ok
}

// Name returns the speaker name, if any.
func (e *Entry) Name() string {
	var s string
	if raw, ok := e.fields[FieldName]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// IsUser reports whether the user wrote the entry.
func (e *Entry) IsUser() bool {
	var b bool
	if raw, ok := e.fields[FieldIsUser]; ok {
		_ = json.Unmarshal(raw, &b)
	}
	return b
}

// Field returns a raw field value.
func (e *Entry) Field(key string) (json.RawMessage, bool) {
	raw, ok := e.fields[key]
	return raw, ok
}

func (e *Entry) set(key string, v any) {
	raw, err := marshal(v)
	if err != nil {
		return
	}
	if e.fields == nil {
		e.fields = make(map[string]json.RawMessage)
	}
	if _, ok := e.fields[key]; !ok {
		e.keys = append(e.keys, key)
	}
	e.fields[key] = raw
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	e.keys, e.fields, e.bare = nil, make(map[string]json.RawMessage), false

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		e.bare = true
		e.set(FieldText, s)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("chat entry: expected object or string, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errors.New("chat entry: non-string key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("chat entry field %q: %w", key, err)
		}
		if _, dup := e.fields[key]; !dup {
			e.keys = append(e.keys, key)
		}
		e.fields[key] = raw
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (e *Entry) MarshalJSON() ([]byte, error) {
	if e.bare {
		return marshal(e.Content())
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range e.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(e.fields[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshal encodes v without HTML escaping, so comparison operators in
// message text survive a round trip byte for byte.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
