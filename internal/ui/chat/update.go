// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley/internal/backend"
	"github.com/jeranaias/parley/internal/model"
	"github.com/jeranaias/parley/internal/picker"
	"github.com/jeranaias/parley/internal/ui/components"
)

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// UPDATE
// =============================================================================

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.resize(msg), nil

	case FeedMsg:
		return m.applyFeed(msg), nil

	case sendResultMsg:
		if msg.err != nil {
			// Write failures get a generic notice; server detail is only
			// surfaced for authentication errors.
			m.alert.Show("Send failed", sendFailedMessage)
			return m, nil
		}
		// Clear the composer only if the sent text is still in it, so a
		// message typed while the send was in flight survives.
		if m.input.Value() == msg.text {
			m.input.Reset()
		}
		return m, nil

	case signOutResultMsg:
		if msg.err != nil && !errors.Is(msg.err, backend.ErrNotSignedIn) {
			m.alert.Show("Sign out failed", backend.UserMessage(msg.err))
		}
		return m, nil

	case photoPickedMsg:
		switch {
		case errors.Is(msg.err, picker.ErrCancelled):
			return m, nil
		case msg.err != nil:
			m.alert.Show("Photo failed", backend.UserMessage(msg.err))
			return m, nil
		default:
			return m, m.sendCmd(photoCaption, msg.data)
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.routeInput(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.alert.Visible() {
		m.alert.Dismiss()
		return m, nil
	}

	if m.mode == modePhotoPrompt {
		switch msg.String() {
		case "enter":
			return m.submitPhotoPath()
		case "esc":
			m.exitPhotoPrompt()
			return m, nil
		}
		return m.routeInput(msg)
	}

	switch msg.String() {
	case "enter":
		return m.submitText()
	case "ctrl+p":
		m.enterPhotoPrompt()
		return m, nil
	case "ctrl+l":
		return m, m.signOutCmd()
	case "pgup", "pgdown", "home", "end":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m.routeInput(msg)
}

func (m Model) routeInput(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.mode == modePhotoPrompt {
		m.photoInput, cmd = m.photoInput.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// FEED
// =============================================================================

// applyFeed replaces the rendered list with the delivered snapshot.
// Deliveries are full replacements; nothing is merged client-side.
func (m Model) applyFeed(update FeedMsg) Model {
	if update.Err != nil {
		m.connected = false
		return m
	}

	m.messages = update.Messages
	if !update.FromCache {
		m.connected = true
	}
	m.refreshViewport()
	return m
}

func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(components.RenderFeed(m.theme, m.messages, m.account, m.viewport.Width))
	if atBottom {
		m.viewport.GotoBottom()
	}
}

func (m Model) resize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	// Header, composer, and status bar each take one line plus the
	// composer border.
	viewportHeight := msg.Height - 4
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(msg.Width, viewportHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
	}
	m.input.Width = msg.Width - 4
	m.photoInput.Width = msg.Width - 4
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m
}

// =============================================================================
// COMPOSING
// =============================================================================

// submitText sends the composer content. Whitespace-only input is a
// no-op; the composer never inserts into the feed locally.
func (m Model) submitText() (Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	return m, m.sendCmd(text, "")
}

func (m Model) sendCmd(text, image string) tea.Cmd {
	sender := m.sender
	account := m.account
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), backend.DefaultTimeout)
		defer cancel()
		_, err := sender.Append(ctx, model.Message{Text: text, User: account, Image: image})
		return sendResultMsg{err: err, text: text}
	}
}

func (m *Model) enterPhotoPrompt() {
	m.mode = modePhotoPrompt
	m.input.Blur()
	m.photoInput.Reset()
	m.photoInput.Focus()
}

func (m *Model) exitPhotoPrompt() {
	m.mode = modeCompose
	m.photoInput.Blur()
	m.input.Focus()
}

// submitPhotoPath encodes the file at the entered path and sends it.
// An empty path cancels, mirroring a dismissed system picker.
func (m Model) submitPhotoPath() (Model, tea.Cmd) {
	path := strings.TrimSpace(m.photoInput.Value())
	m.exitPhotoPrompt()
	if path == "" {
		return m, nil
	}

	opts := m.pickerOpts
	return m, func() tea.Msg {
		data, err := picker.PickPhoto(path, opts)
		return photoPickedMsg{data: data, err: err}
	}
}

// =============================================================================
// SIGN OUT
// =============================================================================

func (m Model) signOutCmd() tea.Cmd {
	identity := m.identity
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), backend.DefaultTimeout)
		defer cancel()
		return signOutResultMsg{err: identity.SignOut(ctx)}
	}
}
