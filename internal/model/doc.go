// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the shared message feed.
//
// The central type is Message, a document in the hosted message collection.
// The in-memory message list held by the feed controller is always a full,
// ordered replica of the remote collection as of the last subscription
// delivery; it is never a partial or client-mutated view.
package model
