// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the clients for the hosted identity service and
// message collection.
package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error variables for common backend failures.
var (
	// ErrUnauthorized indicates missing, invalid, or expired credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotSignedIn indicates an operation that requires a session was
	// attempted without one.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrMessageTooLarge indicates the backend rejected an append because
	// the document payload exceeded its size limit.
	ErrMessageTooLarge = errors.New("message payload too large")

	// ErrSubscriptionClosed indicates the live subscription was closed
	// locally before the remote end delivered anything further.
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// APIError represents an error response from the backend.
type APIError struct {
	Status  int    // HTTP status code
	Message string // Server-supplied message, shown to the user verbatim

	// sentinel maps well-known statuses onto the error variables above so
	// callers can use errors.Is without inspecting status codes.
	sentinel error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// Unwrap exposes the sentinel for errors.Is.
func (e *APIError) Unwrap() error {
	return e.sentinel
}

// UserMessage returns the text to show in a user-facing alert: the
// server-supplied message when the failure is an APIError, otherwise the
// plain error text.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// parseErrorResponse converts a non-2xx response into an error. The body is
// expected to be an ErrorResponse; anything else degrades to a bare status.
func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))

	apiErr := &APIError{Status: resp.StatusCode}
	var parsed ErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		apiErr.Message = parsed.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		apiErr.sentinel = ErrUnauthorized
	case http.StatusRequestEntityTooLarge:
		apiErr.sentinel = ErrMessageTooLarge
	}
	return apiErr
}
