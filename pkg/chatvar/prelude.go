// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package chatvar

// DefaultPrelude holds the default variable assignments loaded unless
// WithNoPrelude is given. Prelude values are the last fallback, so any other
// source overrides them.
const DefaultPrelude = ``

// PreludeKey is the store variable that, when set, replaces the prelude.
const PreludeKey = "__prelude__"
