// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login implements the sign-in and registration screen.
package login

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley/internal/backend"
	"github.com/jeranaias/parley/internal/ui/components"
	"github.com/jeranaias/parley/internal/ui/styles"
)

// =============================================================================
// AUTHENTICATOR
// =============================================================================

// Authenticator is the slice of the identity client the login screen
// needs.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) error
	CreateAccount(ctx context.Context, email, password string) error
}

// ResultMsg reports the outcome of a sign-in or registration attempt.
type ResultMsg struct {
	Err        error
	Registered bool
}

// =============================================================================
// MODEL
// =============================================================================

type field int

const (
	fieldEmail field = iota
	fieldPassword
)

// Model is the Bubble Tea model for the login screen: an email field, a
// masked password field, and two actions (sign in, create account).
// Successful sign-in is not handled here; the session watcher notifies
// the root model, which swaps to the chat view.
type Model struct {
	theme *styles.Theme
	auth  Authenticator

	email    textinput.Model
	password textinput.Model
	focus    field

	busy    bool
	spinner components.Spinner
	alert   components.Alert

	width  int
	height int
}

// New builds the login screen.
func New(theme *styles.Theme, auth Authenticator) Model {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	return Model{
		theme:    theme,
		auth:     auth,
		email:    email,
		password: password,
		spinner:  components.NewSpinner("Signing in"),
	}
}

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
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ResultMsg:
		m.busy = false
		m.spinner.Stop()
		if msg.Err != nil {
			title := "Sign in failed"
			if msg.Registered {
				title = "Registration failed"
			}
			m.alert.Show(title, backend.UserMessage(msg.Err))
		}
		return m, nil

	case tea.KeyMsg:
		// An open alert swallows the next key press.
		if m.alert.Visible() {
			m.alert.Dismiss()
			return m, nil
		}
		if m.busy {
			return m, nil
		}

		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.toggleFocus()
			return m, nil
		case "enter":
			return m.submit(false)
		case "ctrl+r":
			return m.submit(true)
		}
	}

	var cmd tea.Cmd
	if spinCmd := m.spinner.Update(msg); spinCmd != nil {
		return m, spinCmd
	}
	if m.focus == fieldEmail {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == fieldEmail {
		m.focus = fieldPassword
		m.email.Blur()
		m.password.Focus()
	} else {
		m.focus = fieldEmail
		m.password.Blur()
		m.email.Focus()
	}
}

// submit kicks off a sign-in, or registration followed by sign-in.
func (m Model) submit(register bool) (Model, tea.Cmd) {
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()
	if email == "" || password == "" {
		m.alert.Show("Missing fields", "Please enter both email and password.")
		return m, nil
	}

	m.busy = true
	if register {
		m.spinner.SetMessage("Creating account")
	} else {
		m.spinner.SetMessage("Signing in")
	}
	return m, tea.Batch(m.spinner.Start(), m.authCmd(register, email, password))
}

// authCmd performs the network call off the update loop. Registration
// signs in immediately after the account is created, so a fresh account
// lands directly in the chat.
func (m Model) authCmd(register bool, email, password string) tea.Cmd {
	auth := m.auth
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), backend.DefaultTimeout)
		defer cancel()

		if register {
			if err := auth.CreateAccount(ctx, email, password); err != nil {
				return ResultMsg{Err: err, Registered: true}
			}
			return ResultMsg{Err: auth.SignIn(ctx, email, password), Registered: true}
		}
		return ResultMsg{Err: auth.SignIn(ctx, email, password)}
	}
}

// =============================================================================
// VIEW
// =============================================================================

func (m Model) View() string {
	theme := m.theme

	var b strings.Builder
	b.WriteString(theme.LoginTitle.Render("parley"))
	b.WriteString("\n")
	b.WriteString(theme.HeaderSubtitle.Render("terminal chat"))
	b.WriteString("\n\n")
	b.WriteString(theme.LoginLabel.Render("Email"))
	b.WriteString("\n")
	b.WriteString(m.email.View())
	b.WriteString("\n\n")
	b.WriteString(theme.LoginLabel.Render("Password"))
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	if m.busy {
		b.WriteString(m.spinner.View(theme))
	} else {
		b.WriteString(theme.LoginHint.Render("enter sign in · ctrl+r create account · ctrl+c quit"))
	}

	box := theme.LoginBox.Render(b.String())
	view := box
	if m.width > 0 && m.height > 0 {
		view = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	if m.alert.Visible() {
		return m.alert.Render(theme, m.width, m.height)
	}
	return view
}
