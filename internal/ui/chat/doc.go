// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive chat surface for parley.
//
// The package follows the bubbletea Model/Update/View split:
//
//   - model.go    - application state and construction
//   - update.go   - state transitions per message and key press
//   - view.go     - rendering (transcript, sidebar, overlays)
//   - commands.go - asynchronous work returned as tea.Cmd
//   - keys.go     - keyboard bindings
//
// One completion may be in flight at a time; the input is disabled while
// waiting. All store mutations persist before the UI reflects them.
package chat
