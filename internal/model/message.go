// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for the shared message feed.
package model

import (
	"sort"
	"strings"
	"time"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single document in the remote message collection.
//
// The field layout mirrors the wire format of the hosted collection: ID and
// CreatedAt are assigned server-side on append and are immutable. A zero
// CreatedAt marks a document the server has accepted but not yet confirmed;
// this client never renders unconfirmed documents because it only displays
// what the live subscription delivers.
type Message struct {
	// Identity (server-assigned)
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt,omitempty"`

	// Content
	Text string `json:"text"`
	User string `json:"user"`

	// Image is an optional inline attachment encoded as a data URI
	// ("data:image/jpeg;base64,..."). Present only for picked-image messages.
	Image string `json:"image,omitempty"`
}

// HasImage reports whether the message carries an inline image attachment.
func (m *Message) HasImage() bool {
	return m.Image != ""
}

// ImageBytes returns the approximate decoded size of the inline image in
// bytes. Base64 expands data by 4/3, so the decoded size is len*3/4.
func (m *Message) ImageBytes() int {
	if m.Image == "" {
		return 0
	}
	idx := strings.Index(m.Image, ",")
	if idx < 0 {
		return 0
	}
	return (len(m.Image) - idx - 1) * 3 / 4
}

// Preview returns a truncated preview of the message text.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	runes := []rune(m.Text)
	if len(runes) <= maxLen {
		return m.Text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// MESSAGE LIST HELPERS
// =============================================================================

// SortByCreated orders messages ascending by CreatedAt. Unconfirmed messages
// (zero CreatedAt) sort last, matching the ordering the hosted query applies.
// The sort is stable so documents with equal timestamps keep delivery order.
func SortByCreated(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		a, b := msgs[i].CreatedAt, msgs[j].CreatedAt
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.Before(b)
	})
}

// IsOrdered reports whether the list is ascending by CreatedAt.
func IsOrdered(msgs []Message) bool {
	for i := 1; i < len(msgs); i++ {
		prev, cur := msgs[i-1].CreatedAt, msgs[i].CreatedAt
		if cur.IsZero() {
			continue
		}
		if prev.IsZero() || prev.After(cur) {
			return false
		}
	}
	return true
}
