// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the clients for the hosted identity service and
// message collection.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/jeranaias/parley/internal/model"
)

// =============================================================================
// COLLECTION CLIENT
// =============================================================================

// TokenSource supplies the bearer token for authenticated calls.
// *IdentityClient implements it.
type TokenSource interface {
	Token() string
}

// CollectionClient talks to the hosted message collection: append-only
// writes over HTTP and an ordered live query over a websocket.
type CollectionClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewCollectionClient creates a collection client for the given backend
// base URL.
func NewCollectionClient(baseURL string, tokens TokenSource) *CollectionClient {
	return &CollectionClient{
		baseURL: baseURL,
		http:    sharedHTTPClient,
		tokens:  tokens,
	}
}

// Append adds one document to the remote collection. The document ID and
// createdAt timestamp are assigned server-side; the returned ID is the only
// confirmation the client gets: the document itself arrives through the
// live subscription round trip.
func (c *CollectionClient) Append(ctx context.Context, msg model.Message) (string, error) {
	token := c.tokens.Token()
	if token == "" {
		return "", ErrNotSignedIn
	}

	body, err := json.Marshal(AppendRequest{Text: msg.Text, User: msg.User, Image: msg.Image})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("append failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", parseErrorResponse(resp)
	}

	var ar AppendResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return "", fmt.Errorf("failed to decode append response: %w", err)
	}
	return ar.ID, nil
}

// =============================================================================
// LIVE QUERY
// =============================================================================

// Subscription is one open live query against the message collection. The
// remote end pushes a full ordered snapshot on connect and after every
// change; Snapshots never yields a diff.
type Subscription struct {
	conn *websocket.Conn

	snapshots chan []model.Message
	done      chan struct{}

	mu        sync.Mutex
	err       error
	closeOnce sync.Once
}

// LiveQuery opens the ordered live subscription. The query is ordered
// ascending by createdAt server-side; the client imposes no further
// ordering. Closing the context closes the subscription.
func (c *CollectionClient) LiveQuery(ctx context.Context) (*Subscription, error) {
	token := c.tokens.Token()
	if token == "" {
		return nil, ErrNotSignedIn
	}

	wsURL, err := websocketURL(c.baseURL, "/v1/messages/subscribe")
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			return nil, parseErrorResponse(resp)
		}
		return nil, fmt.Errorf("subscribe failed: %w", err)
	}

	sub := &Subscription{
		conn:      conn,
		snapshots: make(chan []model.Message, 1),
		done:      make(chan struct{}),
	}

	go sub.readLoop()
	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// readLoop decodes snapshot frames until the connection dies.
func (s *Subscription) readLoop() {
	defer close(s.snapshots)
	defer close(s.done)

	for {
		var payload SnapshotPayload
		if err := s.conn.ReadJSON(&payload); err != nil {
			s.mu.Lock()
			if s.err == nil {
				s.err = err
			}
			s.mu.Unlock()
			return
		}

		msgs := payload.Messages
		if msgs == nil {
			msgs = []model.Message{}
		}

		// Only the latest snapshot matters: drop a stale buffered one
		// rather than blocking the reader.
		select {
		case s.snapshots <- msgs:
		default:
			select {
			case <-s.snapshots:
			default:
			}
			s.snapshots <- msgs
		}
	}
}

// Snapshots returns the channel of full-collection snapshots. The channel
// closes when the subscription ends; Err explains why.
func (s *Subscription) Snapshots() <-chan []model.Message {
	return s.snapshots
}

// Err returns the terminal error of the subscription, if any.
// ErrSubscriptionClosed means Close was called locally.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close tears down the subscription. Safe to call more than once; exactly
// one websocket is closed per subscription.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		if s.err == nil {
			s.err = ErrSubscriptionClosed
		}
		s.mu.Unlock()

		// Best-effort close frame, then drop the connection; the read
		// loop exits on the resulting read error.
		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = s.conn.Close()
	})
	return nil
}

// websocketURL converts the HTTP base URL into the websocket endpoint URL.
func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid backend URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
		// Already a websocket URL
	default:
		return "", fmt.Errorf("invalid backend URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	return u.String(), nil
}
