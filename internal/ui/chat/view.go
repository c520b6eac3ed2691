// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/jeranaias/parley/internal/ui/components"
)

// =============================================================================
// VIEW
// =============================================================================

var shortcuts = []components.Shortcut{
	{Key: "enter", Desc: "send"},
	{Key: "^P", Desc: "photo"},
	{Key: "^L", Desc: "logout"},
	{Key: "^C", Desc: "quit"},
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.alert.Visible() {
		return m.alert.Render(m.theme, m.width, m.height)
	}

	var b strings.Builder
	b.WriteString(m.theme.Header.Width(m.width).Render("parley"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.composerView())
	b.WriteString("\n")
	b.WriteString(components.RenderStatusBar(m.theme, m.width, m.account, m.connected, shortcuts))
	return b.String()
}

func (m Model) composerView() string {
	if m.mode == modePhotoPrompt {
		return m.theme.InputContainer.Width(m.width).Render(
			m.theme.InputPrompt.Render("photo ") + m.photoInput.View())
	}
	return m.theme.InputContainer.Width(m.width).Render(
		m.theme.InputPrompt.Render("> ") + m.input.View())
}
