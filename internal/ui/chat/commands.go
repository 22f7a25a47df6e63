// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/parley/internal/model"
)

// =============================================================================
// ASYNC COMMANDS
// =============================================================================

// completeCmd performs one blocking completion call off the update loop.
// history is the transcript window captured before the new prompt was
// appended; the client adds the prompt as the final user message itself.
func (m *Model) completeCmd(persona string, history []model.Message, prompt, modelID string) tea.Cmd {
	client := m.client
	timeout := m.cfg.RequestTimeout()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		reply, err := client.Complete(ctx, persona, history, prompt, modelID)
		return completionMsg{reply: reply, err: err}
	}
}

// statsCmd loads ledger aggregates for the stats overlay.
func (m *Model) statsCmd(conversationID int) tea.Cmd {
	ledger := m.ledger

	return func() tea.Msg {
		conv, err := ledger.ConversationTotals(conversationID)
		if err != nil {
			return statsMsg{err: err}
		}
		all, err := ledger.AllTimeTotals()
		if err != nil {
			return statsMsg{err: err}
		}
		return statsMsg{conversation: conv, allTime: all}
	}
}
