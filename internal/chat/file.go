// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package chat

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Format is the on-disk shape of a chat.
type Format int

const (
	// JSONL is SillyTavern's native format: one entry per line, optionally
	// preceded by a metadata header line that has no "mes" field.
	JSONL Format = iota
	// JSONArray is a single JSON array of entries.
	JSONArray
)

func (f Format) String() string {
	if f == JSONArray {
		return "json"
	}
	return "jsonl"
}

// Chat is a parsed chat file.
type Chat struct {
	Format  Format
	Header  *Entry // JSONL metadata line; nil when absent
	Entries []*Entry
}

// Messages returns the entries as Messages, sharing storage with the chat.
func (c *Chat) Messages() []Message {
	msgs := make([]Message, len(c.Entries))
	for i, e := range c.Entries {
		msgs[i] = e
	}
	return msgs
}

// ReadChat parses a chat in either format. The format is chosen by the first
// non-space byte: '[' selects JSONArray, anything else JSONL.
func ReadChat(r io.Reader) (*Chat, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return &Chat{Format: JSONL}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read chat: %w", err)
	}

	if first == '[' {
		var entries []*Entry
		if err := json.NewDecoder(br).Decode(&entries); err != nil {
			return nil, fmt.Errorf("read chat: %w", err)
		}
		return &Chat{Format: JSONArray, Entries: entries}, nil
	}

	c := &Chat{Format: JSONL}
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		e := new(Entry)
		if err := json.Unmarshal(b, e); err != nil {
			return nil, fmt.Errorf("read chat: line %d: %w", line, err)
		}
		if c.Header == nil && len(c.Entries) == 0 && !e.HasContent() {
			c.Header = e
			continue
		}
		c.Entries = append(c.Entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read chat: %w", err)
	}
	return c, nil
}

// WriteChat writes c in its own format.
func WriteChat(w io.Writer, c *Chat) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if c.Format == JSONArray {
		entries := c.Entries
		if entries == nil {
			entries = []*Entry{}
		}
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("write chat: %w", err)
		}
		return nil
	}

	if c.Header != nil {
		if err := enc.Encode(c.Header); err != nil {
			return fmt.Errorf("write chat header: %w", err)
		}
	}
	for i, e := range c.Entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("write chat entry %d: %w", i, err)
		}
	}
	return nil
}

// ReadChatFile reads a chat from path.
func ReadChatFile(path string) (*Chat, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadChat(f)
}

// WriteChatFile writes c to path, replacing it atomically.
func WriteChatFile(path string, c *Chat) error {
	var buf bytes.Buffer
	if err := WriteChat(&buf, c); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
