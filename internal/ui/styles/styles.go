// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the parley TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette. Kept small: adaptive colors so both dark and light
// terminals stay readable.
var (
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	ColorAccent  = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00B8D4"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6C6C6C", Dark: "#8A8A8A"}
	ColorError   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF6B6B"}
	ColorOK      = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#7BCB7F"}
)

// Theme holds the styled components for the application.
type Theme struct {
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style

	Sidebar        lipgloss.Style
	SidebarTitle   lipgloss.Style
	SidebarItem    lipgloss.Style
	SidebarActive  lipgloss.Style
	SidebarCost    lipgloss.Style

	InputContainer lipgloss.Style
	StatusBar      lipgloss.Style
	StatusError    lipgloss.Style
	Spinner        lipgloss.Style

	OverlayBox     lipgloss.Style
	OverlayTitle   lipgloss.Style
	ListItem       lipgloss.Style
	ListSelected   lipgloss.Style
	HelpKey        lipgloss.Style
	HelpDesc       lipgloss.Style
}

// NewTheme builds the default theme.
func NewTheme() *Theme {
	return &Theme{
		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(ColorMuted),
		HeaderTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent),
		AssistantLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),

		Sidebar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(ColorMuted).
			PaddingLeft(1),
		SidebarTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorMuted),
		SidebarItem: lipgloss.NewStyle().
			Foreground(ColorMuted),
		SidebarActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent),
		SidebarCost: lipgloss.NewStyle().
			Foreground(ColorOK),

		InputContainer: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(ColorMuted),
		StatusBar: lipgloss.NewStyle().
			Foreground(ColorMuted),
		StatusError: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError),
		Spinner: lipgloss.NewStyle().
			Foreground(ColorAccent),

		OverlayBox: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2),
		OverlayTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary),
		ListItem: lipgloss.NewStyle(),
		ListSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent),
		HelpKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent),
		HelpDesc: lipgloss.NewStyle().
			Foreground(ColorMuted),
	}
}
