// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles defines the parley color palette and Lip Gloss styles.
//
// Colors are AdaptiveColor pairs so the same theme reads well on light
// and dark terminals. Theme detects the terminal's color profile via
// termenv at startup and exposes one Style per visual element: message
// bubbles, the composer, the login form, the status bar, and alerts.
package styles
