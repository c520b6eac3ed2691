// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the message feed screen.
package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/jeranaias/parley/internal/feed"
	"github.com/jeranaias/parley/internal/model"
	"github.com/jeranaias/parley/internal/picker"
	"github.com/jeranaias/parley/internal/ui/components"
	"github.com/jeranaias/parley/internal/ui/styles"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Sender appends a message to the shared collection.
type Sender interface {
	Append(ctx context.Context, msg model.Message) (string, error)
}

// SignOuter ends the current session.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

// photoCaption is the text carried by image messages.
const photoCaption = "📷 Photo"

// sendFailedMessage is the generic notice for a failed append.
const sendFailedMessage = "Failed to send message. Please try again."

// =============================================================================
// MESSAGES
// =============================================================================

// FeedMsg is one feed controller update bridged into the program.
type FeedMsg feed.Update

// sendResultMsg reports the outcome of an append.
type sendResultMsg struct {
	err  error
	text string
}

// signOutResultMsg reports a failed sign-out. Successful sign-out is
// observed through the session watcher, not here.
type signOutResultMsg struct {
	err error
}

// photoPickedMsg carries an encoded image, or the reason there is none.
type photoPickedMsg struct {
	data string
	err  error
}

// =============================================================================
// MODEL
// =============================================================================

// mode selects what the composer line is editing.
type mode int

const (
	modeCompose mode = iota
	modePhotoPrompt
)

// Model is the Bubble Tea model for the chat screen: the live message
// feed in a viewport, a one-line composer, and a status bar. The feed
// is render-only; every mutation round-trips through the backend and
// arrives back as a FeedMsg.
type Model struct {
	theme    *styles.Theme
	sender   Sender
	identity SignOuter
	account  string

	messages  []model.Message
	connected bool

	viewport   viewport.Model
	input      textinput.Model
	photoInput textinput.Model
	mode       mode

	pickerOpts picker.Options
	alert      components.Alert

	width  int
	height int
	ready  bool
}

// New builds the chat screen for the signed-in account.
func New(theme *styles.Theme, sender Sender, identity SignOuter, account string, pickerOpts picker.Options) Model {
	input := textinput.New()
	input.Placeholder = "Type a message"
	input.CharLimit = 2000
	input.Focus()

	photoInput := textinput.New()
	photoInput.Placeholder = "path to image (empty to cancel)"
	photoInput.CharLimit = 1024

	return Model{
		theme:      theme,
		sender:     sender,
		identity:   identity,
		account:    account,
		input:      input,
		photoInput: photoInput,
		pickerOpts: pickerOpts,
	}
}

// Account returns the display name messages are attributed to.
func (m Model) Account() string {
	return m.account
}

// Messages returns the currently rendered feed.
func (m Model) Messages() []model.Message {
	return m.messages
}
