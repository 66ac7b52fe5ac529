// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package chatvar

import (
	"maps"

	"go.uber.org/zap"

	"nickandperla.net/chatvar/internal/chat"
	"nickandperla.net/chatvar/internal/eval"
	"nickandperla.net/chatvar/internal/render"
	"nickandperla.net/chatvar/internal/store"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithSQLiteStore configures SQLite persistence at the given path. An open
// failure is returned by New.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		s, err := store.NewSQLite(path)
		if err != nil {
			r.err = err
			return
		}
		r.store = s
	}
}

// WithMemoryStore configures an in-memory store, optionally seeded.
func WithMemoryStore(vars ...map[string]string) Option {
	return func(r *Runtime) {
		r.store = store.NewMemory(vars...)
	}
}

// WithStore uses a custom store.
func WithStore(s Store) Option {
	return func(r *Runtime) {
		r.store = s
	}
}

// WithLookup adds a read-only source consulted after the store.
func WithLookup(g Getter) Option {
	return func(r *Runtime) {
		r.lookups = append(r.lookups, g)
	}
}

// WithVariables adds static variables, consulted after every store.
func WithVariables(vars map[string]string) Option {
	return func(r *Runtime) {
		maps.Copy(r.variables, vars)
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.log = l
		}
	}
}

// WithSettings replaces all pipeline settings.
func WithSettings(s Settings) Option {
	return func(r *Runtime) {
		r.settings = s
	}
}

// WithEnabled turns processing on or off.
func WithEnabled(on bool) Option {
	return func(r *Runtime) {
		r.settings.Enabled = on
	}
}

// WithDebug enables debug logging of lookups and condition results.
func WithDebug(on bool) Option {
	return func(r *Runtime) {
		r.settings.Debug = on
	}
}

// WithConditionals turns @if handling on or off.
func WithConditionals(on bool) Option {
	return func(r *Runtime) {
		r.settings.Conditionals = on
	}
}

// WithMaxPasses caps the multi-line block passes. Zero picks a bound from
// the input.
func WithMaxPasses(n int) Option {
	return func(r *Runtime) {
		r.settings.MaxPasses = n
	}
}

// WithNoHistory stops lookups from reading {{setvar}} macros already in the
// chat.
func WithNoHistory() Option {
	return func(r *Runtime) {
		r.noHistory = true
	}
}

// WithPrelude sets the prelude: text whose @assignments give default values.
// If not set, DefaultPrelude is used.
func WithPrelude(source string) Option {
	return func(r *Runtime) {
		r.prelude = source
	}
}

// WithNoPrelude disables the prelude.
func WithNoPrelude() Option {
	return func(r *Runtime) {
		r.noPrelude = true
	}
}

// Store is a persistent variable store.
type Store = store.Store

// Version is one recorded value of a variable.
type Version = store.Version

// NewMemoryStore returns an in-memory Store, optionally seeded.
func NewMemoryStore(vars ...map[string]string) Store {
	return store.NewMemory(vars...)
}

// Getter is a read-only variable source.
type Getter = store.Getter

// Settings are the pipeline switches.
type Settings = eval.Settings

// DefaultSettings returns the settings a fresh runtime uses.
func DefaultSettings() Settings {
	return eval.DefaultSettings()
}

// Message is a chat message with mutable text.
type Message = chat.Message

// Result reports what ProcessChat did.
type Result = chat.Result

// Write is a variable assignment made by Render.
type Write = render.Write

// TextMessages wraps texts as messages.
func TextMessages(texts ...string) []Message {
	return chat.TextMessages(texts...)
}
