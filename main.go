// parley - a terminal chat client with offline-first sync.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley/internal/backend"
	"github.com/jeranaias/parley/internal/config"
	"github.com/jeranaias/parley/internal/feed"
	"github.com/jeranaias/parley/internal/picker"
	"github.com/jeranaias/parley/internal/session"
	"github.com/jeranaias/parley/internal/storage"
	"github.com/jeranaias/parley/internal/ui/chat"
	"github.com/jeranaias/parley/internal/ui/components"
	"github.com/jeranaias/parley/internal/ui/login"
	"github.com/jeranaias/parley/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global program reference for async deliveries into the update loop
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

// post sends a message into the running program, if any.
func post(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.parley/config.toml)")
	backendURL := flag.String("backend", "", "backend base URL override")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("parley %s (%s, %s)\n", Version, GitCommit, BuildDate)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(1)
	}
	if *backendURL != "" {
		cfg.Backend.BaseURL = *backendURL
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "parley: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.Cache.Dir, 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	// The terminal owns stdout; logs go to a file in the state dir.
	logFile, err := os.OpenFile(filepath.Join(cfg.Cache.Dir, "parley.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	store, err := storage.Open(cfg.Cache.Dir)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer store.Close()

	identity := backend.NewIdentityClient(cfg.Backend.BaseURL, cfg.Cache.Dir)
	collection := backend.NewCollectionClient(cfg.Backend.BaseURL, identity)

	app := newApp(cfg, identity, collection, store)
	defer app.teardown()

	p := tea.NewProgram(app, tea.WithAltScreen())
	programMu.Lock()
	programRef = p
	programMu.Unlock()

	_, err = p.Run()
	return err
}

// =============================================================================
// ROOT NAVIGATOR
// =============================================================================

// appState selects which screen is mounted.
type appState int

const (
	stateInitializing appState = iota // session restore pending
	stateLogin
	stateChat
)

// sessionChangedMsg is a session transition delivered by the watcher.
type sessionChangedMsg struct {
	session session.Session
}

// feedClosedMsg means the feed controller's channel closed.
type feedClosedMsg struct{}

// app is the root model: it owns the session watcher and swaps between
// the login and chat screens as the session changes. The chat screen's
// feed controller is created on mount and stopped on unmount, so there
// is never more than one live subscription.
type app struct {
	cfg        *config.Config
	theme      *styles.Theme
	identity   *backend.IdentityClient
	collection *backend.CollectionClient
	store      *storage.SnapshotStore
	watcher    *session.Watcher

	state      appState
	login      login.Model
	chat       chat.Model
	controller *feed.Controller
	spinner    components.Spinner

	width  int
	height int
}

func newApp(cfg *config.Config, identity *backend.IdentityClient, collection *backend.CollectionClient, store *storage.SnapshotStore) *app {
	theme := styles.NewTheme()
	a := &app{
		cfg:        cfg,
		theme:      theme,
		identity:   identity,
		collection: collection,
		store:      store,
		state:      stateInitializing,
		login:      login.New(theme, identity),
		spinner:    components.NewSpinner("Restoring session"),
	}
	a.watcher = session.NewWatcher(func(s session.Session) {
		post(sessionChangedMsg{session: s})
	})
	return a
}

// teardown releases everything the app holds across screens.
func (a *app) teardown() {
	a.watcher.Stop()
	if a.controller != nil {
		a.controller.Stop()
	}
}

func (a *app) Init() tea.Cmd {
	return tea.Batch(a.spinner.Start(), a.login.Init(), a.startWatcher)
}

// startWatcher runs as a command so the watcher's immediate first
// delivery is posted to a program that is already consuming messages.
// The watcher fires with the restored session right away, and again on
// every sign-in and sign-out; all navigation happens on the update loop.
func (a *app) startWatcher() tea.Msg {
	a.watcher.Start(a.identity)
	return nil
}

// =============================================================================
// UPDATE
// =============================================================================

func (a *app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.theme.SetSize(msg.Width, msg.Height)
		// Both screens track the size so switching never renders stale
		// dimensions.
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		cmds = append(cmds, cmd)
		if a.state == stateChat {
			a.chat, cmd = a.chat.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case sessionChangedMsg:
		return a.applySession(msg.session)

	case feedClosedMsg:
		// Controller stopped; nothing to re-arm.
		return a, nil
	}

	return a.route(msg)
}

// applySession navigates to the screen matching the session state.
func (a *app) applySession(s session.Session) (tea.Model, tea.Cmd) {
	if s.SignedIn() {
		if a.state == stateChat {
			return a, nil
		}
		return a.mountChat(s.DisplayName)
	}

	if a.state == stateChat {
		a.unmountChat()
	}
	a.spinner.Stop()
	a.state = stateLogin
	a.login = login.New(a.theme, a.identity)
	var cmd tea.Cmd
	if a.width > 0 {
		a.login, cmd = a.login.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	}
	return a, tea.Batch(a.login.Init(), cmd)
}

// mountChat builds the chat screen and starts its feed controller.
func (a *app) mountChat(account string) (tea.Model, tea.Cmd) {
	a.spinner.Stop()
	a.state = stateChat

	opts := picker.DefaultOptions()
	if q := a.cfg.UI.ImageQuality; q > 0 {
		opts.Quality = q
	}
	a.chat = chat.New(a.theme, a.collection, a.identity, account, opts)

	a.controller = feed.NewController(liveCollection{a.collection}, a.store)
	a.controller.Start()

	cmds := []tea.Cmd{a.chat.Init(), waitForFeed(a.controller.Updates())}
	if a.width > 0 {
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

// unmountChat stops the feed controller. A fresh controller is created
// on the next mount; controllers are single-use.
func (a *app) unmountChat() {
	if a.controller != nil {
		a.controller.Stop()
		a.controller = nil
	}
}

// route forwards a message to the mounted screen.
func (a *app) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch a.state {
	case stateLogin:
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd
	case stateChat:
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(msg)
		if _, ok := msg.(chat.FeedMsg); ok {
			// Re-arm the bridge for the next controller delivery.
			if a.controller != nil {
				return a, tea.Batch(cmd, waitForFeed(a.controller.Updates()))
			}
		}
		return a, cmd
	default:
		return a, a.spinner.Update(msg)
	}
}

// =============================================================================
// VIEW
// =============================================================================

func (a *app) View() string {
	switch a.state {
	case stateLogin:
		return a.login.View()
	case stateChat:
		return a.chat.View()
	default:
		view := a.spinner.View(a.theme)
		if a.width > 0 && a.height > 0 {
			return a.theme.Container.Render(view)
		}
		return view
	}
}

// =============================================================================
// FEED BRIDGE
// =============================================================================

// waitForFeed blocks on the controller channel and delivers the next
// update as a message. The route handler re-arms it after each one.
func waitForFeed(updates <-chan feed.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return feedClosedMsg{}
		}
		return chat.FeedMsg(u)
	}
}

// liveCollection adapts the backend client to the feed controller's
// Collection interface; the concrete *backend.Subscription satisfies
// feed.Subscription.
type liveCollection struct {
	client *backend.CollectionClient
}

func (l liveCollection) LiveQuery(ctx context.Context) (feed.Subscription, error) {
	sub, err := l.client.LiveQuery(ctx)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
