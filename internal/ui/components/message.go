// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/parley/internal/model"
	"github.com/jeranaias/parley/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLES
// =============================================================================

// maxAuthorWidth caps the rendered display name so one long name cannot
// distort the feed layout.
const maxAuthorWidth = 24

// RenderBubble renders one message as a chat bubble. Messages from the
// signed-in account render right-aligned in the own-bubble style,
// everyone else's left-aligned.
func RenderBubble(theme *styles.Theme, msg model.Message, own bool, width int) string {
	bubbleWidth := width - 10
	if bubbleWidth > 70 {
		bubbleWidth = 70
	}
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	// UNICODE: truncate by display cell width, not bytes.
	author := runewidth.Truncate(msg.User, maxAuthorWidth, "…")
	header := theme.BubbleAuthor.Render(author)
	if !msg.CreatedAt.IsZero() {
		header += " " + theme.BubbleTime.Render(msg.CreatedAt.Local().Format("15:04"))
	}

	var body strings.Builder
	body.WriteString(header)
	body.WriteString("\n")
	body.WriteString(wrapText(msg.Text, bubbleWidth-4))
	if msg.HasImage() {
		body.WriteString("\n")
		body.WriteString(theme.BubbleImage.Render(imageLabel(msg)))
	}

	style := theme.OtherBubble
	align := lipgloss.Left
	if own {
		style = theme.OwnBubble
		align = lipgloss.Right
	}
	bubble := style.MaxWidth(bubbleWidth).Render(body.String())
	if width > 0 {
		return lipgloss.PlaceHorizontal(width, align, bubble)
	}
	return bubble
}

// RenderFeed renders the full message list, oldest first.
func RenderFeed(theme *styles.Theme, msgs []model.Message, ownUser string, width int) string {
	if len(msgs) == 0 {
		return theme.FeedEmpty.Render("No messages yet. Say hello!")
	}

	parts := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		parts = append(parts, RenderBubble(theme, msg, msg.User == ownUser, width))
	}
	return strings.Join(parts, "\n")
}

// imageLabel describes an inline image attachment without rendering it.
func imageLabel(msg model.Message) string {
	size := msg.ImageBytes()
	switch {
	case size >= 1024*1024:
		return fmt.Sprintf("[image, %.1f MB]", float64(size)/(1024*1024))
	case size >= 1024:
		return fmt.Sprintf("[image, %d KB]", size/1024)
	default:
		return fmt.Sprintf("[image, %d B]", size)
	}
}
