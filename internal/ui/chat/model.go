// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/morganforge/parley/internal/config"
	"github.com/morganforge/parley/internal/llm"
	"github.com/morganforge/parley/internal/model"
	"github.com/morganforge/parley/internal/pricing"
	"github.com/morganforge/parley/internal/storage"
	"github.com/morganforge/parley/internal/telemetry"
	"github.com/morganforge/parley/internal/ui/styles"
)

// sidebarListLimit caps how many conversations the sidebar shows.
const sidebarListLimit = 5

// =============================================================================
// STATE MACHINE
// =============================================================================

type state int

const (
	// stateAPIKey prompts for a credential when none resolves.
	stateAPIKey state = iota
	// stateChat is the main transcript and input surface.
	stateChat
	// stateConversations is the conversation picker overlay.
	stateConversations
	// stateRename prompts for a new conversation name.
	stateRename
	// statePersona edits the active conversation's system prompt.
	statePersona
	// stateConfirmDelete asks before removing a conversation.
	stateConfirmDelete
	// stateModels is the model picker overlay.
	stateModels
	// stateStats shows ledger totals.
	stateStats
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the bubbletea model for the whole application.
type Model struct {
	cfg    *config.Config
	store  *storage.Store
	ledger *telemetry.Ledger
	theme  *styles.Theme
	keys   KeyMap

	// Credential and API client. client is nil until a key resolves.
	sessionKey string
	client     *llm.Client

	// Active conversation and selected model.
	conv    *model.Conversation
	modelID string

	// UI state
	state     state
	waiting   bool
	errMsg    string
	width     int
	height    int
	summaries []storage.Summary
	selected  int

	// Pending delete target (stateConfirmDelete)
	deleteTarget int

	// Ledger aggregates (stateStats)
	convTotals    telemetry.Totals
	allTimeTotals telemetry.Totals

	// Widgets
	input     textarea.Model
	keyInput  textinput.Model
	nameInput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer
}

// New builds the application model. conv is the bootstrapped active
// conversation; apiKey may be empty, in which case the credential prompt
// is shown first.
func New(cfg *config.Config, store *storage.Store, ledger *telemetry.Ledger, conv *model.Conversation, apiKey string) *Model {
	input := textarea.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 0
	input.SetHeight(3)
	input.ShowLineNumbers = false
	input.Focus()

	keyInput := textinput.New()
	keyInput.Placeholder = "sk-..."
	keyInput.EchoMode = textinput.EchoPassword
	keyInput.EchoCharacter = '*'

	nameInput := textinput.New()
	nameInput.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(80, 20)

	m := &Model{
		cfg:       cfg,
		store:     store,
		ledger:    ledger,
		theme:     styles.NewTheme(),
		keys:      DefaultKeyMap(),
		conv:      conv,
		modelID:   cfg.DefaultModel,
		input:     input,
		keyInput:  keyInput,
		nameInput: nameInput,
		viewport:  vp,
		spinner:   sp,
	}

	if _, ok := pricing.Lookup(m.modelID); !ok {
		m.modelID = pricing.DefaultModel()
	}

	if apiKey != "" {
		m.sessionKey = apiKey
		m.client = llm.NewClient(apiKey, cfg.BaseURL, cfg.RequestTimeout())
		m.state = stateChat
	} else {
		m.state = stateAPIKey
		m.keyInput.Focus()
	}

	m.refreshSummaries()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// =============================================================================
// STATE HELPERS
// =============================================================================

// refreshSummaries reloads the conversation list after a store mutation.
// List failures are surfaced inline and leave the previous list in place.
func (m *Model) refreshSummaries() {
	summaries, err := m.store.List()
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.summaries = summaries
	if m.selected >= len(m.summaries) {
		m.selected = len(m.summaries) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

// setConversation switches the model to a different active conversation.
func (m *Model) setConversation(conv *model.Conversation) {
	m.conv = conv
	m.errMsg = ""
	m.refreshSummaries()
	m.refreshViewport()
}

// applyKey installs a validated credential and builds the API client.
func (m *Model) applyKey(key string) {
	m.sessionKey = key
	m.client = llm.NewClient(key, m.cfg.BaseURL, m.cfg.RequestTimeout())
}

// clearKey drops the session credential. If the environment still provides
// a key, the client is rebuilt from it; otherwise the credential prompt
// returns.
func (m *Model) clearKey() {
	m.sessionKey = ""
	m.client = nil
	if envKey := llm.ResolveAPIKey(""); envKey != "" {
		m.client = llm.NewClient(envKey, m.cfg.BaseURL, m.cfg.RequestTimeout())
		return
	}
	m.keyInput.SetValue("")
	m.keyInput.Focus()
	m.state = stateAPIKey
}

// costLine renders the running estimate for the active transcript in both
// display currencies, re-priced at the selected model on every call.
func (m *Model) costLine() (usd, pln string) {
	estimate := pricing.EstimateUSD(m.conv.Messages, m.modelID)
	return pricing.FormatUSD(estimate), pricing.FormatPLN(pricing.ToPLN(estimate))
}
