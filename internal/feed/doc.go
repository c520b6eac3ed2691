// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feed synchronizes the chat view with the remote message collection.
//
// The Controller implements the client's offline-first sync flow: on start
// it paints the cached snapshot (local only, instant), then opens one live
// subscription and mirrors every delivered snapshot into both the consumer
// and the cache. Deliveries are always full replacements; the client never
// merges partial updates.
//
// The composer never goes through this package: sends write straight to the
// remote collection, and the new message only becomes visible when the
// subscription redelivers the collection including it.
package feed
