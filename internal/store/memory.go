// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"sync"
	"time"
)

// Memory is an in-memory variable store with version history.
type Memory struct {
	mu       sync.RWMutex
	data     map[string]string
	versions map[string][]Version // Oldest first
	closed   bool
}

// NewMemory creates a new in-memory store, optionally seeded with vars.
func NewMemory(vars ...map[string]string) *Memory {
	m := &Memory{
		data:     make(map[string]string),
		versions: make(map[string][]Version),
	}
	for _, vs := range vars {
		for name, value := range vs {
			m.put(name, value)
		}
	}
	return m
}

// Get retrieves a variable by name.
func (m *Memory) Get(name string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.data[name]
	return v, ok, nil
}

// Put stores a variable. Writing the current value again is a no-op.
func (m *Memory) Put(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.put(name, value)
	return nil
}

func (m *Memory) put(name, value string) {
	if cur, ok := m.data[name]; ok && cur == value {
		return
	}
	m.data[name] = value
	vs := m.versions[name]
	m.versions[name] = append(vs, Version{
		Version: len(vs) + 1,
		Value:   value,
		Ts:      time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Delete removes a variable and all of its versions.
func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.data, name)
	delete(m.versions, name)
	return nil
}

// List returns a copy of every variable.
func (m *Memory) List() (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out, nil
}

// Versions returns the history of name, newest first.
func (m *Memory) Versions(name string, limit int) ([]Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	vs := m.versions[name]
	if len(vs) == 0 {
		return nil, nil
	}
	n := len(vs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Version, 0, n)
	for i := len(vs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, vs[i])
	}
	return out, nil
}

// Close marks the store closed. Later calls return ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
