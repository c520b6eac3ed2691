// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local offline cache for the parley client.
//
// The cache is a single-key snapshot store: the last message list delivered
// by the live subscription is serialized as JSON and written under a fixed
// key, fully overwriting the prior snapshot. On startup the chat view reads
// it back for instant paint before the subscription reconnects.
//
// The store is backed by SQLite (modernc.org/sqlite, pure Go, no cgo) so a
// partially written snapshot can never be observed.
package storage
