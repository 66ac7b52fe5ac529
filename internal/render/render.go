// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package render applies {{setvar}} and {{getvar}} tokens against a store,
// the way a host chat does when it shows a processed message.
package render

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"nickandperla.net/chatvar/internal/store"
	"nickandperla.net/chatvar/internal/subst"
)

// Write is one variable assignment a render performed.
type Write struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Renderer resolves protocol tokens against a store.
type Renderer struct {
	store store.Store
	log   *zap.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// New creates a Renderer writing to and reading from s.
func New(s store.Store, opts ...Option) *Renderer {
	r := &Renderer{store: s, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render walks the tokens in text left to right. A set token stores its
// value and renders as nothing; a get token renders the current value, or
// nothing when the variable is unknown. Text outside tokens is kept.
func (r *Renderer) Render(text string) (string, []Write, error) {
	toks := subst.Tokens(text)
	if len(toks) == 0 {
		return text, nil, nil
	}

	var (
		b      strings.Builder
		writes []Write
		prev   int
	)
	b.Grow(len(text))
	for _, t := range toks {
		b.WriteString(text[prev:t.Pos])
		prev = t.End

		switch t.Kind {
		case subst.Set:
			if err := r.store.Put(t.Name, t.Value); err != nil {
				return "", writes, fmt.Errorf("render: set %q: %w", t.Name, err)
			}
			writes = append(writes, Write{Name: t.Name, Value: t.Value})
			r.log.Debug("variable set", zap.String("var", t.Name), zap.String("value", t.Value))
		case subst.Get:
			v, ok, err := r.store.Get(t.Name)
			if err != nil {
				return "", writes, fmt.Errorf("render: get %q: %w", t.Name, err)
			}
			if !ok {
				r.log.Debug("variable unset", zap.String("var", t.Name))
			}
			b.WriteString(v)
		}
	}
	b.WriteString(text[prev:])
	return b.String(), writes, nil
}
