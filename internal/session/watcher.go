// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the client's view of the signed-in identity.
package session

import "sync"

// =============================================================================
// SESSION SOURCE
// =============================================================================

// Source is the identity service surface the watcher observes. The returned
// cancel function deregisters the callback. Implementations must invoke the
// callback once immediately with the current session and again on every
// subsequent sign-in or sign-out.
type Source interface {
	WatchSession(fn func(Session)) (cancel func())
}

// =============================================================================
// SESSION WATCHER
// =============================================================================

// Watcher observes session state transitions from the identity service and
// reports the latest value to a single consumer (the root navigator).
//
// The watcher starts in StateUnknown. The first delivery from the source
// permanently clears the initializing flag, no matter how many transitions
// follow; the UI uses the flag to avoid flashing the login screen for an
// already-signed-in user.
type Watcher struct {
	mu sync.Mutex

	current      Session
	initializing bool

	notify func(Session)
	cancel func()
}

// NewWatcher creates a watcher that forwards every session delivery to
// notify. The watcher is inert until Start is called.
func NewWatcher(notify func(Session)) *Watcher {
	return &Watcher{
		current:      Session{State: StateUnknown},
		initializing: true,
		notify:       notify,
	}
}

// Start registers exactly one callback with the source. The source fires the
// callback immediately, so the consumer learns the restored session before
// any frame is rendered.
func (w *Watcher) Start(src Source) {
	w.mu.Lock()
	if w.cancel != nil {
		// Already watching; one callback per watcher lifetime.
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	cancel := src.WatchSession(w.deliver)

	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
}

// Stop deregisters the callback. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Current returns the latest session value.
func (w *Watcher) Current() Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Initializing reports whether the first delivery is still pending.
func (w *Watcher) Initializing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.initializing
}

// deliver records a session transition and forwards it to the consumer.
func (w *Watcher) deliver(s Session) {
	w.mu.Lock()
	w.current = s
	w.initializing = false
	notify := w.notify
	w.mu.Unlock()

	if notify != nil {
		notify(s)
	}
}
