// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable UI components for the parley
// TUI: message bubbles, the status bar, a loading spinner, and blocking
// alerts. Components render with the styles.Theme passed in so the
// whole application shares one palette.
package components
