// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package stdlib embeds the chatvar reference documents.
package stdlib

import _ "embed"

// Syntax is the user-facing syntax reference.
//
//go:embed SYNTAX.md
var Syntax string
