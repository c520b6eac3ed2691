// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package devserver implements parleyd, the local development backend
// for the parley client.
//
// It serves the full wire API in a single process with an in-memory
// store: account registration with bcrypt password hashing, JWT session
// tokens, message append with server-assigned document IDs and
// timestamps, and a websocket live query that pushes the full ordered
// message snapshot on connect and after every append.
//
// Nothing persists across restarts. parleyd exists so the client can be
// developed and demoed without a hosted backend.
package devserver
