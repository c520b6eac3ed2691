// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/parley/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// Shortcut is one key hint shown in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// RenderStatusBar draws the bottom bar: connection state, the signed-in
// account on the left, key hints on the right.
func RenderStatusBar(theme *styles.Theme, width int, account string, connected bool, shortcuts []Shortcut) string {
	var left string
	if connected {
		left = theme.Connected.Render("● live")
	} else {
		left = theme.Reconnecting.Render("◌ reconnecting")
	}
	if account != "" {
		left += theme.ShortcutDesc.Render("  " + account)
	}

	hints := make([]string, 0, len(shortcuts))
	for _, sc := range shortcuts {
		hints = append(hints, theme.ShortcutKey.Render(sc.Key)+" "+theme.ShortcutDesc.Render(sc.Desc))
	}
	right := strings.Join(hints, "  ")

	// UNICODE: pad by cell width so wide glyphs don't misalign the bar.
	gap := width - runewidth.StringWidth(stripANSI(left)) - runewidth.StringWidth(stripANSI(right)) - 2
	if gap < 1 {
		gap = 1
	}
	return theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

// stripANSI removes escape sequences for width measurement.
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
