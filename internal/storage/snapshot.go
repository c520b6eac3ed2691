// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local offline cache for the parley client.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/parley/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// FeedSnapshotKey is the fixed key under which the last-known message
	// list is stored. There is exactly one snapshot; each write fully
	// overwrites the prior one.
	FeedSnapshotKey = "feed_snapshot"

	// dbFileName is the SQLite database file inside the state directory.
	dbFileName = "cache.db"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when no value exists for a key.
	ErrNotFound = errors.New("cache key not found")

	// ErrCorrupt is returned when a cached snapshot cannot be decoded.
	// Callers treat this as a cache miss, never as a fatal error.
	ErrCorrupt = errors.New("cached snapshot is corrupt")
)

// =============================================================================
// SNAPSHOT STORE
// =============================================================================

// SnapshotStore is a small key-value persistent store backed by SQLite.
// It holds a single serialized copy of the last-known message list so the
// chat view can paint instantly while offline.
type SnapshotStore struct {
	db *sql.DB
}

// Open opens (or creates) the cache database inside dir.
func Open(dir string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, err
	}

	// Single connection: the store has one writer (the feed controller)
	// and SQLite serializes access anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`); err != nil {
		db.Close()
		return nil, err
	}

	return &SnapshotStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// KEY-VALUE OPERATIONS
// =============================================================================

// Get returns the raw value stored under key, or ErrNotFound.
func (s *SnapshotStore) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set stores value under key, fully overwriting any prior value.
func (s *SnapshotStore) Set(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	return err
}

// =============================================================================
// FEED SNAPSHOT OPERATIONS
// =============================================================================

// SaveMessages persists the full message list as the feed snapshot.
// The write replaces the prior snapshot unconditionally; there is no
// versioning and no merge.
func (s *SnapshotStore) SaveMessages(msgs []model.Message) error {
	if msgs == nil {
		msgs = []model.Message{}
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return s.Set(FeedSnapshotKey, data)
}

// LoadMessages returns the last persisted message list.
// Returns ErrNotFound when no snapshot has ever been written, and ErrCorrupt
// when the stored blob does not decode.
func (s *SnapshotStore) LoadMessages() ([]model.Message, error) {
	data, err := s.Get(FeedSnapshotKey)
	if err != nil {
		return nil, err
	}

	var msgs []model.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, ErrCorrupt
	}
	return msgs, nil
}
