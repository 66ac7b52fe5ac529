// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import "nickandperla.net/chatvar/internal/subst"

// History resolves variables from chat text the way a host chat does: the
// newest message holding a {{setvar::name::value}} wins, and within that
// message the first such token wins.
type History struct {
	texts []string // Oldest first
}

// NewHistory creates a History over message texts in chat order.
func NewHistory(texts ...string) *History {
	return &History{texts: texts}
}

// Append adds a newer message.
func (h *History) Append(text string) {
	h.texts = append(h.texts, text)
}

// Len returns the number of messages.
func (h *History) Len() int {
	return len(h.texts)
}

// Get implements Getter.
func (h *History) Get(name string) (string, bool, error) {
	for i := len(h.texts) - 1; i >= 0; i-- {
		if v, ok := subst.FirstSet(h.texts[i], name); ok {
			return v, true, nil
		}
	}
	return "", false, nil
}
