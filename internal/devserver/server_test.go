// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jeranaias/parley/internal/backend"
	"github.com/jeranaias/parley/internal/config"
)

func testConfig() config.DevServerConfig {
	return config.DevServerConfig{
		ListenAddr:      ":0",
		JWTSecret:       "test-secret",
		MaxMessageBytes: 1 << 20,
		RateLimitPerSec: 1000,
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(testConfig())
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func register(t *testing.T, ts *httptest.Server, email, password string) {
	t.Helper()
	resp := postJSON(t, ts.URL+"/v1/accounts", "", backend.CredentialsRequest{Email: email, Password: password})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}
}

func login(t *testing.T, ts *httptest.Server, email, password string) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/v1/sessions", "", backend.CredentialsRequest{Email: email, Password: password})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	var session backend.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.Token == "" {
		t.Fatal("login returned empty token")
	}
	return session.Token
}

// =============================================================================
// ACCOUNT & SESSION TESTS
// =============================================================================

func TestRegisterAndLogin(t *testing.T) {
	_, ts := newTestServer(t)
	register(t, ts, "alice@example.com", "hunter22")
	token := login(t, ts, "alice@example.com", "hunter22")
	if token == "" {
		t.Fatal("expected a session token")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, ts := newTestServer(t)
	register(t, ts, "alice@example.com", "hunter22")

	resp := postJSON(t, ts.URL+"/v1/accounts", "", backend.CredentialsRequest{Email: "alice@example.com", Password: "hunter22"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestRegisterValidation(t *testing.T) {
	_, ts := newTestServer(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"missing at sign", "not-an-email", "hunter22"},
		{"short password", "bob@example.com", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/v1/accounts", "", backend.CredentialsRequest{Email: tt.email, Password: tt.password})
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestLoginBadCredentials(t *testing.T) {
	_, ts := newTestServer(t)
	register(t, ts, "alice@example.com", "hunter22")

	for _, creds := range []backend.CredentialsRequest{
		{Email: "alice@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "hunter22"},
	} {
		resp := postJSON(t, ts.URL+"/v1/sessions", "", creds)
		var errResp backend.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			t.Fatalf("decode error body: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
		// Unknown account and wrong password must be indistinguishable.
		if errResp.Error != "invalid email or password" {
			t.Errorf("error = %q, want %q", errResp.Error, "invalid email or password")
		}
	}
}

func TestDeleteSession(t *testing.T) {
	_, ts := newTestServer(t)
	register(t, ts, "alice@example.com", "hunter22")
	token := login(t, ts, "alice@example.com", "hunter22")

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/v1/sessions/current", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}

// =============================================================================
// TOKEN TESTS
// =============================================================================

func TestVerifyTokenRoundTrip(t *testing.T) {
	srv := New(testConfig())
	token, err := srv.issueToken("alice@example.com")
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	email, err := srv.verifyToken(token)
	if err != nil {
		t.Fatalf("verifyToken: %v", err)
	}
	if email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", email)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	srv := New(testConfig())
	token, err := srv.issueToken("alice@example.com")
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}

	other := New(config.DevServerConfig{JWTSecret: "different-secret", RateLimitPerSec: 1000})
	if _, err := other.verifyToken(token); err == nil {
		t.Error("expected verification to fail with a different secret")
	}
}

func TestVerifyTokenGarbage(t *testing.T) {
	srv := New(testConfig())
	if _, err := srv.verifyToken("not.a.token"); err == nil {
		t.Error("expected verification of garbage to fail")
	}
	if _, err := srv.verifyToken(""); err == nil {
		t.Error("expected verification of empty token to fail")
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestAppendRequiresAuth(t *testing.T) {
	_, ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/v1/messages", "", backend.AppendRequest{Text: "hi", User: "alice"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAppendMessage(t *testing.T) {
	srv, ts := newTestServer(t)
	register(t, ts, "alice@example.com", "hunter22")
	token := login(t, ts, "alice@example.com", "hunter22")

	resp := postJSON(t, ts.URL+"/v1/messages", token, backend.AppendRequest{Text: "hello there", User: "alice"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var appended backend.AppendResponse
	if err := json.NewDecoder(resp.Body).Decode(&appended); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(appended.ID, "doc_") {
		t.Errorf("ID = %q, want doc_ prefix", appended.ID)
	}

	snapshot := srv.store.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("snapshot length = %d, want 1", len(snapshot))
	}
	if snapshot[0].Text != "hello there" || snapshot[0].User != "alice" {
		t.Errorf("stored message = %+v", snapshot[0])
	}
	if snapshot[0].CreatedAt.IsZero() {
		t.Error("expected a server-assigned timestamp")
	}
}

func TestAppendEmptyText(t *testing.T) {
	_, ts := newTestServer(t)
	register(t, ts, "alice@example.com", "hunter22")
	token := login(t, ts, "alice@example.com", "hunter22")

	resp := postJSON(t, ts.URL+"/v1/messages", token, backend.AppendRequest{Text: "   ", User: "alice"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAppendPayloadTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxMessageBytes = 256
	srv := New(cfg)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	register(t, ts, "alice@example.com", "hunter22")
	token := login(t, ts, "alice@example.com", "hunter22")

	big := strings.Repeat("x", 1024)
	resp := postJSON(t, ts.URL+"/v1/messages", token, backend.AppendRequest{Text: big, User: "alice"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}

func TestMessagesSortedByTimestamp(t *testing.T) {
	srv, ts := newTestServer(t)
	register(t, ts, "alice@example.com", "hunter22")
	token := login(t, ts, "alice@example.com", "hunter22")

	for _, text := range []string{"first", "second", "third"} {
		resp := postJSON(t, ts.URL+"/v1/messages", token, backend.AppendRequest{Text: text, User: "alice"})
		resp.Body.Close()
	}

	snapshot := srv.store.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("snapshot length = %d, want 3", len(snapshot))
	}
	for i := 1; i < len(snapshot); i++ {
		if snapshot[i].CreatedAt.Before(snapshot[i-1].CreatedAt) {
			t.Errorf("snapshot out of order at %d: %v before %v", i, snapshot[i].CreatedAt, snapshot[i-1].CreatedAt)
		}
	}
}

// =============================================================================
// SUBSCRIPTION TESTS
// =============================================================================

func dialSubscribe(t *testing.T, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/messages/subscribe"
	header := http.Header{"Authorization": {"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial subscribe: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn) backend.SnapshotPayload {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var payload backend.SnapshotPayload
	if err := conn.ReadJSON(&payload); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	return payload
}

func TestSubscribeRequiresAuth(t *testing.T) {
	_, ts := newTestServer(t)
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/messages/subscribe"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected unauthenticated dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 handshake response, got %+v", resp)
	}
}

func TestSubscribeInitialSnapshot(t *testing.T) {
	_, ts := newTestServer(t)
	register(t, ts, "alice@example.com", "hunter22")
	token := login(t, ts, "alice@example.com", "hunter22")

	resp := postJSON(t, ts.URL+"/v1/messages", token, backend.AppendRequest{Text: "already here", User: "alice"})
	resp.Body.Close()

	conn := dialSubscribe(t, ts, token)
	payload := readSnapshot(t, conn)
	if len(payload.Messages) != 1 || payload.Messages[0].Text != "already here" {
		t.Errorf("initial snapshot = %+v, want the existing message", payload.Messages)
	}
}

func TestSubscribeReceivesAppends(t *testing.T) {
	_, ts := newTestServer(t)
	register(t, ts, "alice@example.com", "hunter22")
	token := login(t, ts, "alice@example.com", "hunter22")

	conn := dialSubscribe(t, ts, token)
	initial := readSnapshot(t, conn)
	if len(initial.Messages) != 0 {
		t.Fatalf("initial snapshot length = %d, want 0", len(initial.Messages))
	}

	resp := postJSON(t, ts.URL+"/v1/messages", token, backend.AppendRequest{Text: "fresh", User: "alice"})
	resp.Body.Close()

	payload := readSnapshot(t, conn)
	if len(payload.Messages) != 1 || payload.Messages[0].Text != "fresh" {
		t.Errorf("snapshot after append = %+v, want the new message", payload.Messages)
	}
}

func TestSubscribeTwoClients(t *testing.T) {
	_, ts := newTestServer(t)
	register(t, ts, "alice@example.com", "hunter22")
	token := login(t, ts, "alice@example.com", "hunter22")

	connA := dialSubscribe(t, ts, token)
	connB := dialSubscribe(t, ts, token)
	readSnapshot(t, connA)
	readSnapshot(t, connB)

	resp := postJSON(t, ts.URL+"/v1/messages", token, backend.AppendRequest{Text: "broadcast", User: "alice"})
	resp.Body.Close()

	for _, conn := range []*websocket.Conn{connA, connB} {
		payload := readSnapshot(t, conn)
		if len(payload.Messages) != 1 {
			t.Errorf("snapshot length = %d, want 1", len(payload.Messages))
		}
	}
}

// =============================================================================
// RATE LIMIT TESTS
// =============================================================================

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerSec = 1
	srv := New(cfg)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	limited := false
	for i := 0; i < 5; i++ {
		resp := postJSON(t, ts.URL+"/v1/sessions", "", backend.CredentialsRequest{Email: "a@b.c", Password: "x"})
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected a 429 after exhausting the per-IP budget")
	}
}
