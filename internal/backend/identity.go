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
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jeranaias/parley/internal/session"
	"github.com/jeranaias/parley/internal/util"
)

// Configuration constants for the backend API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// maxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	maxResponseSize = 10 * 1024 * 1024 // 10MB

	// sessionFileName stores the restored-session state inside the state
	// directory, mirroring the hosted SDK's on-device persistence.
	sessionFileName = "session.json"
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared HTTP client with connection pooling for all backend requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	Timeout: DefaultTimeout,
}

// =============================================================================
// IDENTITY CLIENT
// =============================================================================

// persistedSession is the on-disk session state.
type persistedSession struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// IdentityClient talks to the hosted identity service and is the single
// writer of the observable Session value.
//
// The signed-in session is persisted to disk so a restart restores it
// without asking for credentials again. Watchers registered through
// WatchSession receive the current session immediately and every
// transition afterwards.
type IdentityClient struct {
	baseURL string
	http    *http.Client

	stateFile string

	mu       sync.Mutex
	current  session.Session
	token    string
	watchers map[int]func(session.Session)
	nextID   int
}

// NewIdentityClient creates an identity client for the given backend base
// URL, restoring any persisted session from stateDir.
func NewIdentityClient(baseURL, stateDir string) *IdentityClient {
	c := &IdentityClient{
		baseURL:   baseURL,
		http:      sharedHTTPClient,
		stateFile: filepath.Join(stateDir, sessionFileName),
		current:   session.Absent(),
		watchers:  make(map[int]func(session.Session)),
	}
	c.restore()
	return c
}

// restore loads the persisted session, if any. A missing or unreadable file
// simply means no restored session; the token is only validated when the
// first authenticated call is made.
func (c *IdentityClient) restore() {
	data, err := os.ReadFile(c.stateFile)
	if err != nil {
		return
	}

	var ps persistedSession
	if err := json.Unmarshal(data, &ps); err != nil || ps.Token == "" {
		log.Printf("identity: discarding unreadable session state: %v", err)
		return
	}

	c.current = session.Present(ps.Email)
	c.token = ps.Token
}

// =============================================================================
// SESSION OBSERVATION
// =============================================================================

// WatchSession registers a callback that fires once immediately with the
// current session and again on every subsequent sign-in or sign-out. The
// returned function deregisters the callback.
func (c *IdentityClient) WatchSession(fn func(session.Session)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = fn
	current := c.current
	c.mu.Unlock()

	fn(current)

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

// Token returns the current bearer token, or empty when signed out.
func (c *IdentityClient) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Current returns the latest session value.
func (c *IdentityClient) Current() session.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// setSession swaps the session value and notifies every watcher.
func (c *IdentityClient) setSession(s session.Session, token string) {
	c.mu.Lock()
	c.current = s
	c.token = token
	watchers := make([]func(session.Session), 0, len(c.watchers))
	for _, fn := range c.watchers {
		watchers = append(watchers, fn)
	}
	c.mu.Unlock()

	for _, fn := range watchers {
		fn(s)
	}
}

// =============================================================================
// ACCOUNT OPERATIONS
// =============================================================================

// CreateAccount registers a new email/password account. It does not sign
// the new account in; the caller signs in explicitly afterwards.
func (c *IdentityClient) CreateAccount(ctx context.Context, email, password string) error {
	resp, err := c.postJSON(ctx, "/v1/accounts", CredentialsRequest{Email: email, Password: password}, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return parseErrorResponse(resp)
	}
	return nil
}

// SignIn verifies credentials with the identity service. On success the
// session is persisted to disk and every watcher observes the transition to
// present; the sign-in call itself performs no navigation.
func (c *IdentityClient) SignIn(ctx context.Context, email, password string) error {
	resp, err := c.postJSON(ctx, "/v1/sessions", CredentialsRequest{Email: email, Password: password}, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp)
	}

	var sr SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return fmt.Errorf("failed to decode session response: %w", err)
	}

	// Persistence is best effort: a write failure costs auto-login on the
	// next start, not this sign-in.
	data, _ := json.Marshal(persistedSession{Token: sr.Token, Email: sr.Email})
	if err := util.AtomicWriteFile(c.stateFile, data, 0600); err != nil {
		log.Printf("identity: failed to persist session: %v", err)
	}

	c.setSession(session.Present(sr.Email), sr.Token)
	return nil
}

// SignOut ends the session. Watchers observe the transition to absent,
// which is what switches the UI back to the login flow.
//
// The server revocation is best effort: a token the server no longer
// accepts means the session is already dead, and an unreachable server
// cannot make the local session more valid. Local state is cleared in
// every case so a stale or expired restored token can never wedge the
// client signed-in.
func (c *IdentityClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return ErrNotSignedIn
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/v1/sessions/current", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Printf("identity: sign-out revocation unreachable: %v", err)
	} else {
		if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
			log.Printf("identity: sign-out rejected by server: %v", parseErrorResponse(resp))
		}
		resp.Body.Close()
	}

	if err := os.Remove(c.stateFile); err != nil && !os.IsNotExist(err) {
		log.Printf("identity: failed to remove session state: %v", err)
	}

	c.setSession(session.Absent(), "")
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// postJSON posts a JSON body to path, attaching the bearer token when set.
func (c *IdentityClient) postJSON(ctx context.Context, path string, body any, token string) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	return resp, nil
}
