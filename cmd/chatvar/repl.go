// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nickandperla.net/chatvar/internal/store"
	"nickandperla.net/chatvar/pkg/chatvar"
)

// Alt+key sends ESC (0x1b) followed by the key byte.
var altKeyMappings = map[byte]string{
	'i': "@if(",
	'e': "@elseif(",
	'l': "@else: ",
	'n': "@end",
	'&': " && ",
	'|': " || ",
	'!': "!(",
}

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Chat interactively; each entry is one message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.runtime()
			if err != nil {
				return err
			}
			s := rt.NewSession()
			out := cmd.OutOrStdout()

			if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				return runRawREPL(s, f, out)
			}
			runBasicREPL(s, cmd.InOrStdin(), out)
			return nil
		},
	}
}

func printBanner(out io.Writer, nl string) {
	lines := []string{
		"chatvar REPL (Ctrl+D to exit, :vars lists variables)",
		"",
		"Directives (use Alt+key):",
		"  Alt+i → @if(      Alt+e → @elseif(",
		"  Alt+l → @else:    Alt+n → @end",
		"  Alt+& → &&        Alt+| → ||        Alt+! → !(",
		"End a line with \\ to continue the message.",
		"",
	}
	for _, l := range lines {
		fmt.Fprint(out, l, nl)
	}
}

// repl feeds each entry to s and prints the rewritten message.
func repl(s *chatvar.Session, readLine func() (string, bool), out io.Writer, nl string) {
	var multiline strings.Builder
	for {
		if multiline.Len() > 0 {
			fmt.Fprint(out, "... ")
		} else {
			fmt.Fprint(out, ">>> ")
		}
		line, eof := readLine()
		if eof {
			fmt.Fprint(out, nl)
			return
		}

		if strings.HasSuffix(line, "\\") {
			multiline.WriteString(strings.TrimSuffix(line, "\\"))
			multiline.WriteString("\n")
			continue
		}
		multiline.WriteString(line)
		text := multiline.String()
		multiline.Reset()

		switch strings.TrimSpace(text) {
		case "":
			continue
		case ":vars":
			vars := s.Variables()
			for _, name := range store.Names(vars) {
				fmt.Fprintf(out, "%s = %s%s", name, vars[name], nl)
			}
			continue
		case ":quit", ":q":
			return
		}

		result := s.Send(text)
		fmt.Fprint(out, strings.ReplaceAll(result, "\n", nl), nl)
	}
}

// runBasicREPL handles non-TTY input.
func runBasicREPL(s *chatvar.Session, in io.Reader, out io.Writer) {
	printBanner(out, "\n")
	reader := bufio.NewReader(in)
	repl(s, func() (string, bool) {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", true
		}
		return strings.TrimRight(line, "\r\n"), false
	}, out, "\n")
}

// runRawREPL handles TTY input with Alt+key support.
func runRawREPL(s *chatvar.Session, f *os.File, out io.Writer) error {
	fd := int(f.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set raw mode: %v\n", err)
		runBasicREPL(s, f, out)
		return nil
	}
	defer term.Restore(fd, oldState)

	printBanner(out, "\r\n")
	ed := &editor{in: f, out: out}
	repl(s, ed.readLine, out, "\r\n")
	return nil
}

// editor reads one line in raw mode.
type editor struct {
	in     io.Reader
	out    io.Writer
	line   []rune
	cursor int // Index into line
}

func (e *editor) readByte() (byte, bool) {
	var b [1]byte
	n, err := e.in.Read(b[:])
	if err != nil || n == 0 {
		return 0, false
	}
	return b[0], true
}

// readLine returns the line and whether input ended.
func (e *editor) readLine() (string, bool) {
	e.line, e.cursor = e.line[:0], 0
	for {
		b, ok := e.readByte()
		if !ok {
			return string(e.line), true
		}

		switch b {
		case 0x04: // Ctrl+D
			if len(e.line) == 0 {
				return "", true
			}
			e.deleteAt()

		case 0x03: // Ctrl+C
			fmt.Fprint(e.out, "^C\r\n")
			e.line = e.line[:0]
			return "", false

		case 0x0d, 0x0a:
			fmt.Fprint(e.out, "\r\n")
			return string(e.line), false

		case 0x7f, 0x08: // Backspace
			if e.cursor > 0 {
				e.moveLeft(1)
				e.deleteAt()
			}

		case 0x01: // Ctrl+A
			e.moveLeft(e.cursor)

		case 0x05: // Ctrl+E
			e.moveRight(len(e.line) - e.cursor)

		case 0x0b: // Ctrl+K
			e.line = e.line[:e.cursor]
			fmt.Fprint(e.out, "\x1b[K")

		case 0x15: // Ctrl+U
			n := e.cursor
			e.moveLeft(n)
			e.line = append(e.line[:0], e.line[n:]...)
			e.redraw()

		case 0x1b:
			e.escape()

		default:
			if b < 0x20 {
				continue
			}
			e.insert(e.readRune(b))
		}
	}
}

// escape handles arrow keys, Delete and Alt+key after an ESC byte.
func (e *editor) escape() {
	next, ok := e.readByte()
	if !ok {
		return
	}
	if next != '[' {
		if op, ok := altKeyMappings[next]; ok {
			e.insert([]rune(op)...)
		}
		return
	}
	key, ok := e.readByte()
	if !ok {
		return
	}
	switch key {
	case 'C':
		e.moveRight(1)
	case 'D':
		e.moveLeft(1)
	case '3': // Delete: ESC [ 3 ~
		if tilde, ok := e.readByte(); ok && tilde == '~' {
			e.deleteAt()
		}
	}
}

// readRune completes a UTF-8 sequence that starts with b.
func (e *editor) readRune(b byte) rune {
	buf := []byte{b}
	for !utf8.FullRune(buf) {
		next, ok := e.readByte()
		if !ok {
			break
		}
		buf = append(buf, next)
	}
	r, _ := utf8.DecodeRune(buf)
	return r
}

func (e *editor) insert(rs ...rune) {
	tail := append([]rune(nil), e.line[e.cursor:]...)
	e.line = append(append(e.line[:e.cursor], rs...), tail...)
	e.cursor += len(rs)
	fmt.Fprint(e.out, string(rs))
	if e.cursor < len(e.line) {
		e.redraw()
	}
}

func (e *editor) deleteAt() {
	if e.cursor >= len(e.line) {
		return
	}
	e.line = append(e.line[:e.cursor], e.line[e.cursor+1:]...)
	e.redraw()
}

// redraw repaints the line from the cursor and puts the cursor back.
func (e *editor) redraw() {
	fmt.Fprint(e.out, "\x1b[K", string(e.line[e.cursor:]))
	if w := width(e.line[e.cursor:]); w > 0 {
		fmt.Fprintf(e.out, "\x1b[%dD", w)
	}
}

func (e *editor) moveLeft(n int) {
	n = min(n, e.cursor)
	if n == 0 {
		return
	}
	fmt.Fprintf(e.out, "\x1b[%dD", width(e.line[e.cursor-n:e.cursor]))
	e.cursor -= n
}

func (e *editor) moveRight(n int) {
	n = min(n, len(e.line)-e.cursor)
	if n == 0 {
		return
	}
	fmt.Fprintf(e.out, "\x1b[%dC", width(e.line[e.cursor:e.cursor+n]))
	e.cursor += n
}

// width returns the terminal columns rs occupies; CJK and fullwidth forms
// take two.
func width(rs []rune) int {
	w := 0
	for _, r := range rs {
		switch {
		case r >= 0x1100 && r <= 0x115F,
			r >= 0x2E80 && r <= 0xA4CF,
			r >= 0xAC00 && r <= 0xD7A3,
			r >= 0xF900 && r <= 0xFAFF,
			r >= 0xFE30 && r <= 0xFE4F,
			r >= 0xFF00 && r <= 0xFF60,
			r >= 0xFFE0 && r <= 0xFFE6:
			w += 2
		default:
			w++
		}
	}
	return w
}
