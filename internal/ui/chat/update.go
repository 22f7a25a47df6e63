// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/parley/internal/config"
	"github.com/morganforge/parley/internal/llm"
	"github.com/morganforge/parley/internal/model"
	"github.com/morganforge/parley/internal/pricing"
	"github.com/morganforge/parley/internal/telemetry"
	"github.com/morganforge/parley/internal/util"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case completionMsg:
		return m.handleCompletion(msg)

	case statsMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			m.state = stateChat
			return m, nil
		}
		m.convTotals = msg.conversation
		m.allTimeTotals = msg.allTime
		m.state = stateStats
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateWidgets(msg)
}

// handleKey dispatches a key press to the handler for the current state.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.state {
	case stateAPIKey:
		return m.handleAPIKeyState(msg)
	case stateChat:
		return m.handleChatState(msg)
	case stateConversations:
		return m.handleConversationsState(msg)
	case stateRename:
		return m.handleRenameState(msg)
	case statePersona:
		return m.handlePersonaState(msg)
	case stateConfirmDelete:
		return m.handleConfirmDeleteState(msg)
	case stateModels:
		return m.handleModelsState(msg)
	case stateStats:
		m.state = stateChat
		return m, nil
	}
	return m, nil
}

// =============================================================================
// CREDENTIAL ENTRY
// =============================================================================

func (m *Model) handleAPIKeyState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		entered := strings.TrimSpace(m.keyInput.Value())
		if !llm.ValidateAPIKey(entered) {
			m.errMsg = "invalid API key: expected an sk-... key"
			return m, nil
		}
		m.applyKey(entered)
		m.errMsg = ""
		m.state = stateChat
		m.input.Focus()
		m.refreshViewport()
		return m, nil
	}

	var cmd tea.Cmd
	m.keyInput, cmd = m.keyInput.Update(msg)
	return m, cmd
}

// =============================================================================
// CHAT
// =============================================================================

func (m *Model) handleChatState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.sendPrompt()

	case key.Matches(msg, m.keys.NewConv):
		if m.waiting {
			return m, nil
		}
		// New conversations inherit the current persona
		conv, err := m.store.Create(m.conv.Personality)
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.setConversation(conv)
		return m, nil

	case key.Matches(msg, m.keys.Conversations):
		m.refreshSummaries()
		m.selected = 0
		m.errMsg = ""
		m.state = stateConversations
		return m, nil

	case key.Matches(msg, m.keys.Rename):
		m.nameInput.CharLimit = 200
		m.nameInput.SetValue(m.conv.Name)
		m.nameInput.CursorEnd()
		m.nameInput.Focus()
		m.state = stateRename
		return m, nil

	case key.Matches(msg, m.keys.Persona):
		m.nameInput.CharLimit = m.cfg.MaxPersonalityLen
		m.nameInput.SetValue(m.conv.Personality)
		m.nameInput.CursorEnd()
		m.nameInput.Focus()
		m.state = statePersona
		return m, nil

	case key.Matches(msg, m.keys.Models):
		m.selected = indexOf(pricing.Models(), m.modelID)
		m.state = stateModels
		return m, nil

	case key.Matches(msg, m.keys.Stats):
		return m, m.statsCmd(m.conv.ID)

	case key.Matches(msg, m.keys.ClearKey):
		m.clearKey()
		return m, nil
	}

	return m.updateWidgets(msg)
}

// sendPrompt starts one completion turn. The user message is persisted
// before the call, so a failed completion leaves an unanswered user message
// in the transcript.
func (m *Model) sendPrompt() (tea.Model, tea.Cmd) {
	if m.waiting {
		return m, nil
	}
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return m, nil
	}
	if m.client == nil {
		m.errMsg = "no API key configured"
		return m, nil
	}

	// Capture the history window before the prompt joins the transcript
	window := m.conv.Window(model.HistoryWindow)
	history := make([]model.Message, len(window))
	copy(history, window)

	m.conv.AddUserMessage(prompt)
	if err := m.store.ReplaceMessages(m.conv.ID, m.conv.Messages); err != nil {
		m.errMsg = err.Error()
		return m, nil
	}

	m.input.Reset()
	m.errMsg = ""
	m.waiting = true
	m.refreshViewport()

	return m, tea.Batch(
		m.spinner.Tick,
		m.completeCmd(m.conv.Personality, history, prompt, m.modelID),
	)
}

// handleCompletion lands the result of a completion command.
func (m *Model) handleCompletion(msg completionMsg) (tea.Model, tea.Cmd) {
	m.waiting = false

	if msg.err != nil {
		m.errMsg = msg.err.Error()
		return m, nil
	}

	m.conv.AddAssistantMessage(msg.reply.Content, msg.reply.Usage)
	if err := m.store.ReplaceMessages(m.conv.ID, m.conv.Messages); err != nil {
		m.errMsg = err.Error()
		return m, nil
	}

	if err := m.ledger.Record(telemetry.Exchange{
		ConversationID:   m.conv.ID,
		Model:            m.modelID,
		PromptTokens:     msg.reply.Usage.PromptTokens,
		CompletionTokens: msg.reply.Usage.CompletionTokens,
		TotalTokens:      msg.reply.Usage.TotalTokens,
		CostUSD:          pricing.CostUSD(msg.reply.Usage, m.modelID),
	}); err != nil {
		m.errMsg = err.Error()
	}

	m.refreshViewport()
	return m, nil
}

// =============================================================================
// CONVERSATION PICKER
// =============================================================================

func (m *Model) handleConversationsState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.state = stateChat
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.summaries)-1 {
			m.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if len(m.summaries) == 0 {
			return m, nil
		}
		m.deleteTarget = m.summaries[m.selected].ID
		m.state = stateConfirmDelete
		return m, nil

	case msg.Type == tea.KeyEnter:
		if len(m.summaries) == 0 {
			m.state = stateChat
			return m, nil
		}
		conv, err := m.store.SwitchActive(m.summaries[m.selected].ID)
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.setConversation(conv)
		m.state = stateChat
		return m, nil
	}
	return m, nil
}

func (m *Model) handleConfirmDeleteState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		if err := m.store.Delete(m.deleteTarget); err != nil {
			m.errMsg = err.Error()
			m.state = stateConversations
			return m, nil
		}
		if err := m.ledger.PurgeConversation(m.deleteTarget); err != nil {
			m.errMsg = err.Error()
		}
		m.refreshSummaries()
		m.state = stateConversations
		return m, nil
	case key.Matches(msg, m.keys.Deny):
		m.state = stateConversations
		return m, nil
	}
	return m, nil
}

// =============================================================================
// RENAME / PERSONA PROMPTS
// =============================================================================

func (m *Model) handleRenameState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.state = stateChat
		return m, nil

	case msg.Type == tea.KeyEnter:
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			m.errMsg = "name must not be empty"
			return m, nil
		}
		if err := m.store.Rename(m.conv.ID, name); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.conv.Name = name
		m.errMsg = ""
		m.refreshSummaries()
		m.state = stateChat
		return m, nil
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *Model) handlePersonaState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.state = stateChat
		return m, nil

	case msg.Type == tea.KeyEnter:
		persona := util.ClampRunes(strings.TrimSpace(m.nameInput.Value()), m.cfg.MaxPersonalityLen)
		if persona == "" {
			persona = model.DefaultPersonality
		}
		if err := m.store.SetPersonality(m.conv.ID, persona); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.conv.Personality = persona
		m.errMsg = ""
		m.state = stateChat
		return m, nil
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

// =============================================================================
// MODEL PICKER
// =============================================================================

func (m *Model) handleModelsState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	models := pricing.Models()
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.state = stateChat
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(models)-1 {
			m.selected++
		}
		return m, nil

	case msg.Type == tea.KeyEnter:
		m.modelID = models[m.selected]
		m.state = stateChat
		// Remember the choice across sessions
		m.cfg.DefaultModel = m.modelID
		if err := config.Save(m.cfg); err != nil {
			m.errMsg = err.Error()
		}
		return m, nil
	}
	return m, nil
}

// =============================================================================
// WIDGET PLUMBING
// =============================================================================

// updateWidgets forwards messages to the focused widgets. In the chat
// state, paging keys scroll the transcript; every other key belongs to
// the input so typing never scrolls the viewport.
func (m *Model) updateWidgets(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch m.state {
	case stateChat:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.Type {
			case tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd:
				m.viewport, cmd = m.viewport.Update(msg)
			default:
				m.input, cmd = m.input.Update(msg)
			}
			cmds = append(cmds, cmd)
			break
		}
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	case stateAPIKey:
		m.keyInput, cmd = m.keyInput.Update(msg)
		cmds = append(cmds, cmd)
	case stateRename, statePersona:
		m.nameInput, cmd = m.nameInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// indexOf returns the position of v in items, or 0 when absent.
func indexOf(items []string, v string) int {
	for i, item := range items {
		if item == v {
			return i
		}
	}
	return 0
}
