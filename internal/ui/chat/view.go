// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/morganforge/parley/internal/model"
	"github.com/morganforge/parley/internal/pricing"
	"github.com/morganforge/parley/internal/telemetry"
	"github.com/morganforge/parley/internal/util"
)

const sidebarWidth = 28

// =============================================================================
// LAYOUT
// =============================================================================

// resize recomputes the layout after a terminal size change.
func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	chatWidth := width - sidebarWidth - 2
	if chatWidth < 20 {
		chatWidth = 20
	}

	// Header (2) + input (4) + status bar (1)
	viewportHeight := height - 7
	if viewportHeight < 5 {
		viewportHeight = 5
	}

	m.viewport.Width = chatWidth
	m.viewport.Height = viewportHeight
	m.input.SetWidth(width - 2)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(chatWidth-2),
	)
	if err == nil {
		m.renderer = renderer
	}

	m.refreshViewport()
}

// refreshViewport re-renders the transcript and scrolls to the bottom.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	switch m.state {
	case stateAPIKey:
		return m.viewAPIKey()
	case stateConversations:
		return m.viewConversations()
	case stateConfirmDelete:
		return m.viewConfirmDelete()
	case stateRename:
		return m.viewPrompt("Rename conversation", "New name:")
	case statePersona:
		return m.viewPrompt("Edit persona", fmt.Sprintf("System prompt (max %d chars):", m.cfg.MaxPersonalityLen))
	case stateModels:
		return m.viewModels()
	case stateStats:
		return m.viewStats()
	}
	return m.viewChat()
}

func (m *Model) viewChat() string {
	header := m.theme.HeaderTitle.Render("parley") + "  " +
		m.theme.StatusBar.Render(m.conv.Name+" | "+m.modelID)

	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.viewport.View(),
		m.renderSidebar(),
	)

	var status string
	switch {
	case m.errMsg != "":
		status = m.theme.StatusError.Render("error: " + m.errMsg)
	case m.waiting:
		status = m.theme.Spinner.Render(m.spinner.View()) + m.theme.StatusBar.Render(" waiting for reply...")
	default:
		status = m.renderShortHelp()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.theme.Header.Width(m.width).Render(header),
		body,
		m.theme.InputContainer.Width(m.width).Render(m.input.View()),
		status,
	)
}

// renderTranscript formats every message in the active conversation.
// Assistant replies render as markdown; user messages stay verbatim.
func (m *Model) renderTranscript() string {
	if m.conv.IsEmpty() {
		return m.theme.StatusBar.Render("No messages yet. Say something.")
	}

	var sb strings.Builder
	for _, msg := range m.conv.Messages {
		switch msg.Role {
		case model.RoleUser:
			sb.WriteString(m.theme.UserLabel.Render(msg.Role.DisplayName()))
			sb.WriteString("\n")
			sb.WriteString(msg.Content)
			sb.WriteString("\n\n")
		case model.RoleAssistant:
			sb.WriteString(m.theme.AssistantLabel.Render(msg.Role.DisplayName()))
			sb.WriteString("\n")
			sb.WriteString(m.renderMarkdown(msg.Content))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m *Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content + "\n"
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content + "\n"
	}
	return out
}

// renderSidebar shows the newest conversations and the running cost of the
// active transcript, re-estimated at the selected model on every render.
func (m *Model) renderSidebar() string {
	var sb strings.Builder

	sb.WriteString(m.theme.SidebarTitle.Render("Conversations"))
	sb.WriteString("\n")

	shown := m.summaries
	if len(shown) > sidebarListLimit {
		shown = shown[:sidebarListLimit]
	}
	for _, summary := range shown {
		name := util.TruncateString(summary.Name, sidebarWidth-6)
		line := fmt.Sprintf("%d %s", summary.ID, name)
		line = padRight(line, sidebarWidth-3)
		if summary.ID == m.store.ActiveID() {
			sb.WriteString(m.theme.SidebarActive.Render("> " + line))
		} else {
			sb.WriteString(m.theme.SidebarItem.Render("  " + line))
		}
		sb.WriteString("\n")
	}
	if len(m.summaries) > sidebarListLimit {
		sb.WriteString(m.theme.SidebarItem.Render(fmt.Sprintf("  +%d more", len(m.summaries)-sidebarListLimit)))
		sb.WriteString("\n")
	}

	usd, pln := m.costLine()
	sb.WriteString("\n")
	sb.WriteString(m.theme.SidebarTitle.Render("Estimated cost"))
	sb.WriteString("\n")
	sb.WriteString(m.theme.SidebarCost.Render(usd))
	sb.WriteString("\n")
	sb.WriteString(m.theme.SidebarCost.Render(pln))

	return m.theme.Sidebar.
		Width(sidebarWidth).
		Height(m.viewport.Height).
		Render(sb.String())
}

func (m *Model) renderShortHelp() string {
	var parts []string
	for _, binding := range m.keys.ShortHelp() {
		help := binding.Help()
		parts = append(parts,
			m.theme.HelpKey.Render(help.Key)+" "+m.theme.HelpDesc.Render(help.Desc))
	}
	return strings.Join(parts, "  ")
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m *Model) viewAPIKey() string {
	var sb strings.Builder
	sb.WriteString(m.theme.OverlayTitle.Render("OpenAI API key"))
	sb.WriteString("\n\n")
	sb.WriteString("No API key found. Enter one to continue.\n")
	sb.WriteString("Keys are kept in memory for this session only.\n\n")
	sb.WriteString(m.keyInput.View())
	if m.errMsg != "" {
		sb.WriteString("\n\n")
		sb.WriteString(m.theme.StatusError.Render(m.errMsg))
	}
	return m.centerOverlay(sb.String())
}

func (m *Model) viewConversations() string {
	var sb strings.Builder
	sb.WriteString(m.theme.OverlayTitle.Render("Conversations"))
	sb.WriteString("\n\n")

	if len(m.summaries) == 0 {
		sb.WriteString("No conversations.")
	}
	for i, summary := range m.summaries {
		marker := "  "
		if summary.ID == m.store.ActiveID() {
			marker = "* "
		}
		line := fmt.Sprintf("%s%d  %s", marker, summary.ID, util.TruncateString(summary.Name, 50))
		if i == m.selected {
			sb.WriteString(m.theme.ListSelected.Render("> " + line))
		} else {
			sb.WriteString(m.theme.ListItem.Render("  " + line))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.theme.HelpDesc.Render("enter switch | d delete | esc back"))
	if m.errMsg != "" {
		sb.WriteString("\n")
		sb.WriteString(m.theme.StatusError.Render(m.errMsg))
	}
	return m.centerOverlay(sb.String())
}

func (m *Model) viewConfirmDelete() string {
	var sb strings.Builder
	sb.WriteString(m.theme.OverlayTitle.Render("Delete conversation"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Delete conversation %d? This cannot be undone.\n\n", m.deleteTarget))
	sb.WriteString(m.theme.HelpDesc.Render("y confirm | n cancel"))
	return m.centerOverlay(sb.String())
}

func (m *Model) viewPrompt(title, label string) string {
	var sb strings.Builder
	sb.WriteString(m.theme.OverlayTitle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(label)
	sb.WriteString("\n")
	sb.WriteString(m.nameInput.View())
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.HelpDesc.Render("enter save | esc cancel"))
	if m.errMsg != "" {
		sb.WriteString("\n")
		sb.WriteString(m.theme.StatusError.Render(m.errMsg))
	}
	return m.centerOverlay(sb.String())
}

func (m *Model) viewModels() string {
	var sb strings.Builder
	sb.WriteString(m.theme.OverlayTitle.Render("Select model"))
	sb.WriteString("\n\n")

	for i, id := range pricing.Models() {
		price, _ := pricing.Lookup(id)
		line := fmt.Sprintf("%s  ($%.2f/M in, $%.2f/M out)",
			padRight(id, 14),
			price.InputPerToken*1_000_000,
			price.OutputPerToken*1_000_000)
		marker := "  "
		if id == m.modelID {
			marker = "* "
		}
		if i == m.selected {
			sb.WriteString(m.theme.ListSelected.Render("> " + marker + line))
		} else {
			sb.WriteString(m.theme.ListItem.Render("  " + marker + line))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.theme.HelpDesc.Render("enter select | esc back"))
	return m.centerOverlay(sb.String())
}

func (m *Model) viewStats() string {
	var sb strings.Builder
	sb.WriteString(m.theme.OverlayTitle.Render("Usage"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("%s (this conversation)\n", m.conv.Name))
	sb.WriteString(formatTotalsLine(m.convTotals))
	sb.WriteString("\n\nAll time\n")
	sb.WriteString(formatTotalsLine(m.allTimeTotals))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.HelpDesc.Render("any key to close"))
	return m.centerOverlay(sb.String())
}

func formatTotalsLine(t telemetry.Totals) string {
	return fmt.Sprintf("  %d exchanges | %d prompt + %d completion tokens | %s",
		t.Exchanges, t.PromptTokens, t.CompletionTokens,
		pricing.FormatUSD(t.CostUSD))
}

// centerOverlay places boxed content in the middle of the screen.
func (m *Model) centerOverlay(content string) string {
	box := m.theme.OverlayBox.Render(content)
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// padRight pads s with spaces to the given display width. Uses runewidth so
// wide characters line up.
func padRight(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
