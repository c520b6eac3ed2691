// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the parley TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley/internal/ui/styles"
)

// =============================================================================
// ALERT
// =============================================================================

// Alert is a blocking notice rendered over the active view. Failed
// sign-ins, rejected sends, and dropped subscriptions surface through
// it; the parent view dismisses it on the next key press.
type Alert struct {
	Title   string
	Message string
	visible bool
}

// Show populates the alert and makes it visible.
func (a *Alert) Show(title, message string) {
	a.Title = title
	a.Message = message
	a.visible = true
}

// Dismiss hides the alert.
func (a *Alert) Dismiss() {
	a.visible = false
}

// Visible reports whether the alert should be rendered.
func (a *Alert) Visible() bool {
	return a.visible
}

// Render draws the alert box centered in the given area. Returns the
// empty string when the alert is hidden.
func (a *Alert) Render(theme *styles.Theme, width, height int) string {
	if !a.visible {
		return ""
	}

	maxWidth := 60
	if width > 0 && width-8 < maxWidth {
		maxWidth = width - 8
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	var body strings.Builder
	body.WriteString(theme.AlertTitle.Render(a.Title))
	body.WriteString("\n\n")
	body.WriteString(theme.AlertMessage.Render(wrapText(a.Message, maxWidth-6)))
	body.WriteString("\n\n")
	body.WriteString(theme.ShortcutDesc.Render("press any key to dismiss"))

	box := theme.AlertBox.MaxWidth(maxWidth).Render(body.String())
	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

// wrapText performs simple word wrapping.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var lines []string
	var line strings.Builder
	for _, word := range words {
		switch {
		case line.Len() == 0:
			line.WriteString(word)
		case line.Len()+1+len(word) <= maxWidth:
			line.WriteString(" ")
			line.WriteString(word)
		default:
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(word)
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
