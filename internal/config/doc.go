// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for parley.
//
// Configuration is TOML at ~/.parley/config.toml with built-in defaults and
// PARLEY_* environment overrides. The same file configures both the client
// and the parleyd development backend.
package config
