// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the message feed screen: a viewport of
// chat bubbles fed by the feed controller, a one-line composer, and a
// status bar showing connection state.
//
// The screen never mutates the feed locally. Sends go to the backend
// and the resulting message arrives back through the live query as part
// of the next full snapshot, so the rendered list is always exactly the
// last snapshot delivered. Keyboard surface: enter sends, ctrl+p
// prompts for an image path, ctrl+l signs out.
package chat
