// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package chat applies the chatvar pipeline across a conversation and reads
// and writes SillyTavern chat files.
package chat

import (
	"go.uber.org/zap"

	"nickandperla.net/chatvar/internal/eval"
)

// Result reports what a run did.
type Result struct {
	// Changed lists the indexes of messages whose text was replaced.
	Changed []int `json:"changed"`
	// Variables is the variable table after the last message.
	Variables map[string]string `json:"variables"`
}

// Orchestrator walks messages in order, threading the variable table forward.
type Orchestrator struct {
	eval *eval.Evaluator
	log  *zap.Logger
}

// NewOrchestrator creates an Orchestrator driving e.
func NewOrchestrator(e *eval.Evaluator) *Orchestrator {
	return &Orchestrator{eval: e, log: e.Logger()}
}

// Process runs msgs with a fresh table.
func (o *Orchestrator) Process(msgs []Message) Result {
	return o.Run(msgs, eval.NewTable())
}

// Run processes msgs in order against table, which keeps growing across
// messages (and across calls, if the caller reuses it). For each message the
// assignments in its original text are merged into the table before its
// conditionals are evaluated; the text is replaced only when it changed.
// Earlier messages are never revisited.
func (o *Orchestrator) Run(msgs []Message, table *eval.Table) Result {
	var res Result
	if !o.eval.Settings().Enabled {
		o.log.Debug("processing disabled")
		res.Variables = table.Map()
		return res
	}

	for i, m := range msgs {
		if m == nil {
			continue
		}
		text := m.Content()
		if text == "" {
			continue
		}
		out := o.eval.Step(text, table)
		if out == text {
			continue
		}
		m.SetContent(out)
		res.Changed = append(res.Changed, i)
		o.log.Debug("message rewritten", zap.Int("index", i), zap.Int("before", len(text)), zap.Int("after", len(out)))
	}
	res.Variables = table.Map()
	o.log.Debug("chat processed",
		zap.Int("messages", len(msgs)),
		zap.Int("changed", len(res.Changed)),
		zap.Int("variables", len(res.Variables)))
	return res
}
