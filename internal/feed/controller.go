// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feed synchronizes the chat view with the remote message collection.
package feed

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jeranaias/parley/internal/model"
	"github.com/jeranaias/parley/internal/storage"
)

// DefaultResubscribeDelay is how long the controller waits before reopening
// a failed subscription.
const DefaultResubscribeDelay = 5 * time.Second

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// Subscription is an open live query yielding full ordered snapshots.
// The channel closes when the subscription ends; Err explains why.
type Subscription interface {
	Snapshots() <-chan []model.Message
	Err() error
	Close() error
}

// Collection opens live queries against the remote message collection.
type Collection interface {
	LiveQuery(ctx context.Context) (Subscription, error)
}

// Cache is the local snapshot store used for offline display.
// *storage.SnapshotStore implements it.
type Cache interface {
	LoadMessages() ([]model.Message, error)
	SaveMessages([]model.Message) error
}

// =============================================================================
// UPDATES
// =============================================================================

// Update is one delivery from the controller to the chat view.
type Update struct {
	// Messages is the full ordered message list. Consumers replace their
	// list wholesale; an Update is never a diff to merge.
	Messages []model.Message

	// FromCache marks the initial offline snapshot, delivered before the
	// live subscription has connected.
	FromCache bool

	// Err is set instead of Messages when the live subscription failed.
	// The controller keeps retrying; the consumer keeps its current list.
	Err error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the message list synchronization for one mounted chat
// view: it paints the cached snapshot immediately, then mirrors every live
// snapshot into both the consumer and the cache.
//
// Exactly one subscription is open per Start/Stop cycle. If the remote end
// never delivers, the consumer simply stays on the cached snapshot; there is
// no timeout and no staleness indicator.
type Controller struct {
	coll  Collection
	cache Cache

	// ResubscribeDelay is the fixed wait between subscription attempts
	// after a failure.
	ResubscribeDelay time.Duration

	updates chan Update

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewController creates a controller. The controller is inert until Start.
func NewController(coll Collection, cache Cache) *Controller {
	return &Controller{
		coll:             coll,
		cache:            cache,
		ResubscribeDelay: DefaultResubscribeDelay,
		updates:          make(chan Update, 8),
		done:             make(chan struct{}),
	}
}

// Updates returns the delivery channel. It closes after Stop (or a terminal
// context cancellation), signalling the consumer the controller is gone.
func (c *Controller) Updates() <-chan Update {
	return c.updates
}

// Start begins synchronization. Safe to call once per controller; further
// calls, and calls after Stop, are no-ops.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.stopped {
		return
	}
	c.started = true

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(ctx)
}

// Stop ends synchronization and closes the open subscription. Safe to call
// more than once, and before Start.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	started := c.started
	cancel := c.cancel
	c.mu.Unlock()

	if started {
		cancel()
		<-c.done
	} else {
		// Never started; nothing to wait for.
		close(c.updates)
	}
}

// =============================================================================
// SYNC LOOP
// =============================================================================

// run is the controller goroutine: cache paint, then subscribe/mirror until
// the context is cancelled.
func (c *Controller) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.updates)

	// Step 1: best-effort cache read for instant paint. Never touches the
	// network. A miss or corrupt snapshot leaves the list empty.
	if cached, err := c.cache.LoadMessages(); err == nil {
		c.emit(ctx, Update{Messages: cached, FromCache: true})
	} else if !errors.Is(err, storage.ErrNotFound) {
		log.Printf("feed: ignoring unreadable cache snapshot: %v", err)
	}

	// Step 2: live subscription loop. Each delivered snapshot replaces the
	// consumer's list wholesale and is persisted unconditionally.
	for {
		sub, err := c.coll.LiveQuery(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.emit(ctx, Update{Err: err})
			if !c.sleep(ctx) {
				return
			}
			continue
		}

		for msgs := range sub.Snapshots() {
			c.emit(ctx, Update{Messages: msgs})

			// Fire-and-forget persistence: failure is logged, never
			// surfaced to the user.
			if err := c.cache.SaveMessages(msgs); err != nil {
				log.Printf("feed: failed to cache snapshot: %v", err)
			}
		}

		if ctx.Err() != nil {
			return
		}

		// The subscription died underneath us: tell the consumer once,
		// keep the last list showing, and retry after a fixed delay.
		c.emit(ctx, Update{Err: sub.Err()})
		if !c.sleep(ctx) {
			return
		}
	}
}

// emit delivers an update unless the controller is stopping.
func (c *Controller) emit(ctx context.Context, u Update) {
	select {
	case c.updates <- u:
	case <-ctx.Done():
	}
}

// sleep waits the resubscribe delay; false means the controller is stopping.
func (c *Controller) sleep(ctx context.Context) bool {
	t := time.NewTimer(c.ResubscribeDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
