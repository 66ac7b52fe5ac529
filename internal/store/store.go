// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package store provides lookup and persistence for chat variables.
package store

import (
	"errors"
	"sort"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("store: closed")

// Getter resolves a variable by name. ok is false when the variable is not
// known; err reports a failure of the backing store itself.
type Getter interface {
	Get(name string) (value string, ok bool, err error)
}

// Store is a writable variable store.
type Store interface {
	Getter
	// Put stores a value by name, overwriting if it exists.
	Put(name, value string) error
	// Delete removes a variable by name. Deleting an unknown name is not an error.
	Delete(name string) error
	// Close releases resources.
	Close() error
}

// Lister enumerates every variable in a store.
type Lister interface {
	List() (map[string]string, error)
}

// Version is one historical value of a variable.
type Version struct {
	Version int    `db:"version" json:"version"`
	Value   string `db:"value" json:"value"`
	Ts      string `db:"ts" json:"ts"`
}

// Versioned stores keep every distinct value a variable has held.
type Versioned interface {
	// Versions returns up to limit versions, newest first. limit <= 0 means all.
	// An unknown name returns nil.
	Versions(name string, limit int) ([]Version, error)
}

// Map is a read-only Getter over a fixed set of variables.
type Map map[string]string

// Get implements Getter.
func (m Map) Get(name string) (string, bool, error) {
	v, ok := m[name]
	return v, ok, nil
}

// Chain tries each Getter in order and returns the first hit. Errors from
// individual getters do not stop the search; they are returned only when no
// getter has the name.
type Chain []Getter

// Get implements Getter.
func (c Chain) Get(name string) (string, bool, error) {
	var errs []error
	for _, g := range c {
		if g == nil {
			continue
		}
		v, ok, err := g.Get(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ok {
			return v, true, nil
		}
	}
	return "", false, errors.Join(errs...)
}

// Names returns the sorted keys of vars.
func Names(vars map[string]string) []string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
