// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package eval runs the chatvar pipeline over one text: conditional blocks
// first, then variable substitution.
package eval

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"nickandperla.net/chatvar/internal/block"
	"nickandperla.net/chatvar/internal/expr"
	"nickandperla.net/chatvar/internal/store"
	"nickandperla.net/chatvar/internal/subst"
)

// Settings are the switches the pipeline honours.
type Settings struct {
	// Enabled turns the whole pipeline on or off.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Debug enables diagnostic logging. It never changes output.
	Debug bool `yaml:"debug" json:"debug"`
	// Conditionals enables @if block reduction.
	Conditionals bool `yaml:"conditionals" json:"conditionals"`
	// MaxPasses caps multi-line block passes; zero picks a bound from the input.
	MaxPasses int `yaml:"max_passes" json:"max_passes"`
}

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings() Settings {
	return Settings{Enabled: true, Conditionals: true}
}

// Evaluator applies the pipeline to message text.
type Evaluator struct {
	store    store.Getter
	log      *zap.Logger
	settings Settings
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithStore sets the fallback store consulted for names missing from the table.
func WithStore(s store.Getter) Option {
	return func(e *Evaluator) { e.store = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.log = l
		}
	}
}

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(e *Evaluator) { e.settings = s }
}

// New creates a new Evaluator with the given options.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		log:      zap.NewNop(),
		settings: DefaultSettings(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if !e.settings.Debug && e.log.Core().Enabled(zapcore.DebugLevel) {
		e.log = e.log.WithOptions(zap.IncreaseLevel(zapcore.InfoLevel))
	}
	return e
}

// Settings returns the evaluator's settings.
func (e *Evaluator) Settings() Settings {
	return e.settings
}

// Logger returns the evaluator's logger, with debug output already gated.
func (e *Evaluator) Logger() *zap.Logger {
	return e.log
}

// Lookup resolves names from table first, then from the store. Store
// failures are logged and read as "absent".
func (e *Evaluator) Lookup(table *Table) expr.Lookup {
	return func(name string) (string, bool) {
		if table != nil {
			if v, ok := table.Get(name); ok {
				e.log.Debug("variable resolved", zap.String("var", name), zap.String("source", "table"))
				return v, true
			}
		}
		if e.store != nil {
			v, ok, err := e.store.Get(name)
			if err != nil {
				e.log.Warn("store lookup failed", zap.String("var", name), zap.Error(err))
				return "", false
			}
			if ok {
				e.log.Debug("variable resolved", zap.String("var", name), zap.String("source", "store"))
				return v, true
			}
		}
		e.log.Debug("variable missing", zap.String("var", name))
		return "", false
	}
}

// Process reduces conditional blocks in text, then rewrites assignments and
// references into protocol tokens. With Enabled off the text is returned as is.
func (e *Evaluator) Process(text string, table *Table) string {
	if !e.settings.Enabled {
		return text
	}
	out := text
	if e.settings.Conditionals {
		out = block.Reduce(out, e.Lookup(table),
			block.WithMaxPasses(e.settings.MaxPasses),
			block.WithLogger(e.log))
	}
	return subst.Rewrite(out)
}

// Step runs one message through the pipeline the way a chat run does: the
// message's assignments are merged into table first, so its conditionals can
// see them, then the text is processed.
func (e *Evaluator) Step(text string, table *Table) string {
	if !e.settings.Enabled {
		return text
	}
	if vars := subst.Extract(text); len(vars) > 0 {
		table.Merge(vars)
		e.log.Debug("assignments extracted", zap.Int("count", len(vars)))
	}
	return e.Process(text, table)
}
