// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package chatvar

import (
	"nickandperla.net/chatvar/internal/chat"
	"nickandperla.net/chatvar/internal/eval"
	"nickandperla.net/chatvar/internal/store"
)

// Session is a chat fed one message at a time. Variables assigned in one
// message stay visible to the following ones. A Session is not safe for
// concurrent use.
type Session struct {
	history *store.History
	table   *eval.Table
	orch    *chat.Orchestrator
}

// NewSession starts an empty chat.
func (r *Runtime) NewSession() *Session {
	h := store.NewHistory()
	return &Session{
		history: h,
		table:   eval.NewTable(),
		orch:    chat.NewOrchestrator(r.evaluator(h)),
	}
}

// Send processes the next message and returns its rewritten text.
func (s *Session) Send(text string) string {
	s.history.Append(text)
	msg := &chat.TextMessage{Text: text}
	s.orch.Run([]Message{msg}, s.table)
	return msg.Text
}

// Variables returns the variables assigned so far.
func (s *Session) Variables() map[string]string {
	return s.table.Map()
}

// Len returns the number of messages sent.
func (s *Session) Len() int {
	return s.history.Len()
}
