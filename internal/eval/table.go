// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package eval

import (
	"sort"
	"sync"
)

// Table is the variable table accumulated during one processing run.
type Table struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewTable creates a new empty table.
func NewTable() *Table {
	return &Table{vars: make(map[string]string)}
}

// Get retrieves a variable by name.
func (t *Table) Get(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.vars[name]
	return v, ok
}

// Set stores a variable, overwriting any earlier value.
func (t *Table) Set(name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.vars[name] = value
}

// Has returns true if the name exists in the table.
func (t *Table) Has(name string) bool {
	_, ok := t.Get(name)
	return ok
}

// Merge copies vars into the table; vars wins on conflict.
func (t *Table) Merge(vars map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, v := range vars {
		t.vars[k] = v
	}
}

// Len returns the number of variables.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.vars)
}

// Names returns the variable names in sorted order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.vars))
	for k := range t.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Map returns a copy of the table contents.
func (t *Table) Map() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]string, len(t.vars))
	for k, v := range t.vars {
		out[k] = v
	}
	return out
}

// Clone creates a copy of the table.
func (t *Table) Clone() *Table {
	c := NewTable()
	c.vars = t.Map()
	return c
}
