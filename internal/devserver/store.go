// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jeranaias/parley/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrAccountExists is returned when registering an email twice.
	ErrAccountExists = errors.New("account already exists")

	// ErrBadCredentials is returned for unknown emails and wrong passwords
	// alike, so the two cases are indistinguishable to a caller.
	ErrBadCredentials = errors.New("invalid email or password")
)

// =============================================================================
// IN-MEMORY STORE
// =============================================================================

// memStore holds accounts and the message collection. Everything lives in
// process memory; parleyd is a development backend, not a durable one.
type memStore struct {
	mu       sync.Mutex
	accounts map[string][]byte // email -> bcrypt hash
	messages []model.Message
	subs     map[chan []model.Message]struct{}
}

func newMemStore() *memStore {
	return &memStore{
		accounts: make(map[string][]byte),
		subs:     make(map[chan []model.Message]struct{}),
	}
}

// =============================================================================
// ACCOUNTS
// =============================================================================

// CreateAccount registers an email/password pair.
func (s *memStore) CreateAccount(email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[email]; exists {
		return ErrAccountExists
	}
	s.accounts[email] = hash
	return nil
}

// VerifyAccount checks credentials against the stored hash.
func (s *memStore) VerifyAccount(email, password string) error {
	s.mu.Lock()
	hash, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok {
		return ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrBadCredentials
	}
	return nil
}

// =============================================================================
// MESSAGE COLLECTION
// =============================================================================

// Append adds a document with a server-assigned ID and timestamp, then
// broadcasts the new full snapshot to every subscriber.
func (s *memStore) Append(msg model.Message) model.Message {
	msg.ID = "doc_" + uuid.NewString()
	msg.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	// The server clock assigns ascending timestamps, but sort anyway so
	// the ordering invariant never depends on it.
	model.SortByCreated(s.messages)
	snapshot := s.snapshotLocked()
	subs := make([]chan []model.Message, 0, len(s.subs))
	for ch := range s.subs {
		subs = append(subs, ch)
	}
	s.mu.Unlock()

	for _, ch := range subs {
		// Latest wins: when a slow subscriber's buffer is full, evict the
		// oldest queued snapshot and retry. Every snapshot is the full
		// collection, so dropping stale ones loses nothing.
	deliver:
		for {
			select {
			case ch <- snapshot:
				break deliver
			default:
				select {
				case <-ch:
				default:
				}
			}
		}
	}
	return msg
}

// Snapshot returns the full ordered message list.
func (s *memStore) Snapshot() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *memStore) snapshotLocked() []model.Message {
	snapshot := make([]model.Message, len(s.messages))
	copy(snapshot, s.messages)
	return snapshot
}

// Subscribe registers a snapshot channel. The returned cancel function
// deregisters it.
func (s *memStore) Subscribe() (<-chan []model.Message, func()) {
	ch := make(chan []model.Message, 8)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
}
