// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the clients for the hosted identity service and
// message collection.
//
// IdentityClient covers account creation, credential verification, sign-out,
// and session observation, persisting the signed-in session to disk so a
// restart auto-restores it. CollectionClient covers append-only writes and
// the ordered live query, delivered as full snapshots over a websocket.
//
// All remote calls take a context and return explicit errors; nothing in
// this package retries automatically.
package backend
