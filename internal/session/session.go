// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the client's view of the signed-in identity.
package session

// =============================================================================
// SESSION VALUE
// =============================================================================

// State is the authentication state of the client.
type State int

const (
	// StateUnknown means the identity service has not yet reported the
	// restored session. Distinct from StateAbsent so the UI can suppress
	// the login screen until the true state is known.
	StateUnknown State = iota

	// StateAbsent means no identity is signed in.
	StateAbsent

	// StatePresent means an identity is signed in.
	StatePresent
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePresent:
		return "present"
	default:
		return "unknown"
	}
}

// Session is the current view of whether, and as whom, the user is
// authenticated. It is a value type: consumers receive copies and never
// mutate shared state.
type Session struct {
	State State

	// DisplayName is the email-like name of the signed-in identity.
	// Empty unless State is StatePresent.
	DisplayName string
}

// Absent returns the signed-out session value.
func Absent() Session {
	return Session{State: StateAbsent}
}

// Present returns a signed-in session value for the given display name.
func Present(displayName string) Session {
	return Session{State: StatePresent, DisplayName: displayName}
}

// SignedIn reports whether an identity is present.
func (s Session) SignedIn() bool {
	return s.State == StatePresent
}
