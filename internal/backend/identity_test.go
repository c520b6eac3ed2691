// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jeranaias/parley/internal/session"
)

// =============================================================================
// TEST SERVER
// =============================================================================

// newIdentityTestServer returns a server implementing just enough of the
// identity API for client tests.
func newIdentityTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/accounts", func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "email and password are required"})
			return
		}
		if req.Email == "taken@example.com" {
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "account already exists"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(AccountResponse{Email: req.Email})
	})

	mux.HandleFunc("POST /v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "invalid email or password"})
			return
		}
		json.NewEncoder(w).Encode(SessionResponse{Token: "tok-123", Email: req.Email})
	})

	mux.HandleFunc("DELETE /v1/sessions/current", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "invalid session"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// =============================================================================
// SIGN-IN TESTS
// =============================================================================

func TestIdentityClient_SignIn(t *testing.T) {
	srv := newIdentityTestServer(t)
	dir := t.TempDir()
	client := NewIdentityClient(srv.URL, dir)

	var seen []session.Session
	cancel := client.WatchSession(func(s session.Session) { seen = append(seen, s) })
	defer cancel()

	// Immediate delivery with the (absent) restored session.
	if len(seen) != 1 || seen[0].State != session.StateAbsent {
		t.Fatalf("initial deliveries = %+v, want one absent", seen)
	}

	if err := client.SignIn(context.Background(), "a@example.com", "hunter2"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	if len(seen) != 2 || !seen[1].SignedIn() || seen[1].DisplayName != "a@example.com" {
		t.Fatalf("deliveries after sign-in = %+v, want present a@example.com", seen)
	}
	if client.Token() != "tok-123" {
		t.Errorf("Token = %q, want tok-123", client.Token())
	}

	// Session is persisted for auto-login.
	if _, err := os.Stat(filepath.Join(dir, sessionFileName)); err != nil {
		t.Errorf("session state file missing: %v", err)
	}
}

func TestIdentityClient_SignInBadCredentials(t *testing.T) {
	srv := newIdentityTestServer(t)
	client := NewIdentityClient(srv.URL, t.TempDir())

	err := client.SignIn(context.Background(), "a@example.com", "wrong")
	if err == nil {
		t.Fatal("SignIn with bad credentials should fail")
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
	// The alert text is the server-supplied message, verbatim.
	if got := UserMessage(err); got != "invalid email or password" {
		t.Errorf("UserMessage = %q, want server message", got)
	}
	if client.Current().SignedIn() {
		t.Error("failed sign-in must not flip the session to present")
	}
}

// =============================================================================
// SESSION RESTORE TESTS
// =============================================================================

func TestIdentityClient_RestoresPersistedSession(t *testing.T) {
	srv := newIdentityTestServer(t)
	dir := t.TempDir()

	first := NewIdentityClient(srv.URL, dir)
	if err := first.SignIn(context.Background(), "a@example.com", "hunter2"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	// A fresh client over the same state dir restores the session.
	second := NewIdentityClient(srv.URL, dir)
	cur := second.Current()
	if !cur.SignedIn() || cur.DisplayName != "a@example.com" {
		t.Errorf("restored session = %+v, want present a@example.com", cur)
	}
	if second.Token() != "tok-123" {
		t.Errorf("restored token = %q, want tok-123", second.Token())
	}
}

func TestIdentityClient_CorruptSessionState(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, sessionFileName), []byte("{bad"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	client := NewIdentityClient("http://localhost:0", dir)
	if client.Current().SignedIn() {
		t.Error("corrupt session state should restore as absent")
	}
}

// =============================================================================
// SIGN-OUT TESTS
// =============================================================================

func TestIdentityClient_SignOut(t *testing.T) {
	srv := newIdentityTestServer(t)
	dir := t.TempDir()
	client := NewIdentityClient(srv.URL, dir)

	if err := client.SignIn(context.Background(), "a@example.com", "hunter2"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	var seen []session.Session
	cancel := client.WatchSession(func(s session.Session) { seen = append(seen, s) })
	defer cancel()

	if err := client.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	// Immediate delivery (present) plus the sign-out transition (absent).
	if len(seen) != 2 || seen[1].State != session.StateAbsent {
		t.Fatalf("deliveries = %+v, want [present absent]", seen)
	}
	if client.Token() != "" {
		t.Error("token should be cleared after sign-out")
	}
	if _, err := os.Stat(filepath.Join(dir, sessionFileName)); !os.IsNotExist(err) {
		t.Error("session state file should be removed on sign-out")
	}
}

func TestIdentityClient_SignOutWithoutSession(t *testing.T) {
	client := NewIdentityClient("http://localhost:0", t.TempDir())

	if err := client.SignOut(context.Background()); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("SignOut = %v, want ErrNotSignedIn", err)
	}
}

func TestIdentityClient_SignOutWithRejectedToken(t *testing.T) {
	srv := newIdentityTestServer(t)
	dir := t.TempDir()

	// A restored token the server no longer accepts, as after expiry.
	state, _ := json.Marshal(persistedSession{Token: "expired-tok", Email: "a@example.com"})
	if err := os.WriteFile(filepath.Join(dir, sessionFileName), state, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	client := NewIdentityClient(srv.URL, dir)
	if !client.Current().SignedIn() {
		t.Fatal("restored session should start present")
	}

	// The 401 from the server means the session is already dead; sign-out
	// must still clear local state instead of leaving the client wedged.
	if err := client.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut = %v, want nil when the server rejects the token", err)
	}
	if client.Current().SignedIn() {
		t.Error("session should be absent after sign-out")
	}
	if client.Token() != "" {
		t.Error("token should be cleared after sign-out")
	}
	if _, err := os.Stat(filepath.Join(dir, sessionFileName)); !os.IsNotExist(err) {
		t.Error("session state file should be removed even when revocation fails")
	}
}

func TestIdentityClient_SignOutWithUnreachableServer(t *testing.T) {
	dir := t.TempDir()
	state, _ := json.Marshal(persistedSession{Token: "tok-123", Email: "a@example.com"})
	if err := os.WriteFile(filepath.Join(dir, sessionFileName), state, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	client := NewIdentityClient("http://localhost:0", dir)
	if err := client.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut = %v, want nil when the server is unreachable", err)
	}
	if client.Current().SignedIn() {
		t.Error("session should be absent after sign-out")
	}
	if _, err := os.Stat(filepath.Join(dir, sessionFileName)); !os.IsNotExist(err) {
		t.Error("session state file should be removed")
	}
}

// =============================================================================
// ACCOUNT CREATION TESTS
// =============================================================================

func TestIdentityClient_CreateAccount(t *testing.T) {
	srv := newIdentityTestServer(t)
	client := NewIdentityClient(srv.URL, t.TempDir())

	if err := client.CreateAccount(context.Background(), "new@example.com", "hunter2"); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	// Registration does not sign in.
	if client.Current().SignedIn() {
		t.Error("CreateAccount must not sign the account in")
	}
}

func TestIdentityClient_CreateAccountConflict(t *testing.T) {
	srv := newIdentityTestServer(t)
	client := NewIdentityClient(srv.URL, t.TempDir())

	err := client.CreateAccount(context.Background(), "taken@example.com", "hunter2")
	if err == nil {
		t.Fatal("duplicate account creation should fail")
	}
	if got := UserMessage(err); got != "account already exists" {
		t.Errorf("UserMessage = %q, want server message", got)
	}
}

// =============================================================================
// WATCHER DEREGISTRATION
// =============================================================================

func TestIdentityClient_WatchCancel(t *testing.T) {
	srv := newIdentityTestServer(t)
	client := NewIdentityClient(srv.URL, t.TempDir())

	count := 0
	cancel := client.WatchSession(func(session.Session) { count++ })
	cancel()

	if err := client.SignIn(context.Background(), "a@example.com", "hunter2"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if count != 1 {
		t.Errorf("cancelled watcher saw %d deliveries, want only the immediate one", count)
	}
}
