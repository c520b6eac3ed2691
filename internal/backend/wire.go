// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the clients for the hosted identity service and
// message collection.
package backend

import "github.com/jeranaias/parley/internal/model"

// =============================================================================
// WIRE TYPES
// =============================================================================
// Shared request/response shapes for the backend HTTP API. The development
// server (internal/devserver) implements the other side of this contract.

// CredentialsRequest carries email/password for account creation and sign-in.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned on successful sign-in.
type SessionResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// AccountResponse is returned on successful account creation.
type AccountResponse struct {
	Email string `json:"email"`
}

// AppendRequest carries the client-supplied fields of a new document.
// ID and createdAt are server-assigned and therefore absent here.
type AppendRequest struct {
	Text  string `json:"text"`
	User  string `json:"user"`
	Image string `json:"image,omitempty"`
}

// AppendResponse is returned on successful append.
type AppendResponse struct {
	ID string `json:"id"`
}

// SnapshotPayload is one delivery of the live query: the full ordered
// content of the message collection, never a diff.
type SnapshotPayload struct {
	Messages []model.Message `json:"messages"`
}

// ErrorResponse is the error body for any non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
