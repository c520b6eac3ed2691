// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the client's view of the signed-in identity.
//
// Session is a single-writer, multi-reader observable value with three
// states: unknown (still restoring), absent, and present. The identity
// client is the only writer; the root navigator and screens read the latest
// value through a Watcher. The initial unknown state is deliberately
// distinct from absent so "still checking" never renders as "logged out".
package session
