// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package chatvar provides the chatvar runtime: it rewrites @-variables and
// @if blocks in chat messages into {{setvar}}/{{getvar}} macros.
package chatvar

import (
	"errors"

	"go.uber.org/zap"

	"nickandperla.net/chatvar/internal/chat"
	"nickandperla.net/chatvar/internal/eval"
	"nickandperla.net/chatvar/internal/render"
	"nickandperla.net/chatvar/internal/store"
	"nickandperla.net/chatvar/internal/subst"
)

// Runtime processes chats against a persistent variable store.
type Runtime struct {
	store     store.Store
	lookups   []store.Getter
	variables map[string]string
	settings  eval.Settings
	log       *zap.Logger
	prelude   string
	noPrelude bool
	noHistory bool
	defaults  map[string]string // Assignments from the prelude
	renderer  *render.Renderer
	err       error
}

// New creates a runtime. Without a store option the runtime keeps its
// variables in memory.
func New(opts ...Option) (*Runtime, error) {
	r := &Runtime{
		settings:  eval.DefaultSettings(),
		log:       zap.NewNop(),
		variables: map[string]string{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.err != nil {
		if r.store != nil {
			r.err = errors.Join(r.err, r.store.Close())
		}
		return nil, r.err
	}
	if r.store == nil {
		r.store = store.NewMemory()
	}
	r.renderer = render.New(r.store, render.WithLogger(r.log))

	if !r.noPrelude {
		prelude := r.prelude
		if prelude == "" {
			prelude = DefaultPrelude
		}
		// Check for database override
		v, ok, err := r.store.Get(PreludeKey)
		switch {
		case err != nil:
			r.log.Warn("prelude lookup failed", zap.Error(err))
		case ok && v != "":
			prelude = v
		}
		r.defaults = subst.Extract(prelude)
	}
	return r, nil
}

// evaluator builds an evaluator whose fallback chain is: the chat's
// {{setvar}} history, the store, extra lookups, static variables and
// prelude defaults.
func (r *Runtime) evaluator(history *store.History) *eval.Evaluator {
	var chain store.Chain
	if history != nil && !r.noHistory {
		chain = append(chain, history)
	}
	chain = append(chain, r.store)
	chain = append(chain, r.lookups...)
	chain = append(chain, store.Map(r.variables), store.Map(r.defaults))
	return eval.New(
		eval.WithStore(chain),
		eval.WithLogger(r.log),
		eval.WithSettings(r.settings))
}

// ProcessChat rewrites msgs in place and reports which ones changed.
func (r *Runtime) ProcessChat(msgs []Message) Result {
	history := store.NewHistory(chat.Contents(msgs)...)
	return chat.NewOrchestrator(r.evaluator(history)).Process(msgs)
}

// ProcessText runs a single message with no chat around it.
func (r *Runtime) ProcessText(text string) string {
	msg := &chat.TextMessage{Text: text}
	r.ProcessChat([]Message{msg})
	return msg.Text
}

// Render applies the {{setvar}}/{{getvar}} macros in text to the store and
// returns the text a reader would see.
func (r *Runtime) Render(text string) (string, []Write, error) {
	return r.renderer.Render(text)
}

// Store returns the runtime's persistent store.
func (r *Runtime) Store() Store {
	return r.store
}

// Settings returns the pipeline settings.
func (r *Runtime) Settings() Settings {
	return r.settings
}

// Logger returns the runtime's logger.
func (r *Runtime) Logger() *zap.Logger {
	return r.log
}

// Close releases resources.
func (r *Runtime) Close() error {
	return r.store.Close()
}
