// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/morganforge/parley/internal/llm"
	"github.com/morganforge/parley/internal/telemetry"
)

// =============================================================================
// BUBBLETEA MESSAGES
// =============================================================================

// completionMsg carries the outcome of a completion command back into Update.
type completionMsg struct {
	reply *llm.Reply
	err   error
}

// statsMsg carries ledger aggregates for the stats overlay.
type statsMsg struct {
	conversation telemetry.Totals
	allTime      telemetry.Totals
	err          error
}
