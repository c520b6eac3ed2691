// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package devserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/jeranaias/parley/internal/backend"
	"github.com/jeranaias/parley/internal/config"
	"github.com/jeranaias/parley/internal/model"
)

// =============================================================================
// SERVER
// =============================================================================

// Server is the parleyd HTTP server: account registration, session
// tokens, message append, and websocket live queries, all backed by an
// in-memory store.
type Server struct {
	cfg      config.DevServerConfig
	store    *memStore
	limiter  *ipRateLimiter
	upgrader websocket.Upgrader
}

// New builds a server from the devserver configuration section.
func New(cfg config.DevServerConfig) *Server {
	return &Server{
		cfg:     cfg,
		store:   newMemStore(),
		limiter: newIPRateLimiter(cfg.RateLimitPerSec),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Local development server: accept any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(logRequests)
	r.Use(s.limitRequests)

	r.Post("/v1/accounts", s.handleCreateAccount)
	r.Post("/v1/sessions", s.handleCreateSession)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Delete("/v1/sessions/current", s.handleDeleteSession)
		r.Post("/v1/messages", s.handleAppendMessage)
		r.Get("/v1/messages/subscribe", s.handleSubscribe)
	})

	return r
}

// Run serves until the listener fails.
func (s *Server) Run() error {
	log.Printf("parleyd listening on %s", s.cfg.ListenAddr)
	return http.ListenAndServe(s.cfg.ListenAddr, s.Router())
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, backend.ErrorResponse{Error: msg})
}

// decodeJSON reads a request body into v, enforcing the configured byte
// cap.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.MaxMessageBytes))
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "message payload too large")
		} else {
			writeError(w, http.StatusBadRequest, "malformed request body")
		}
		return err
	}
	return nil
}

// =============================================================================
// ACCOUNT & SESSION HANDLERS
// =============================================================================

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req backend.CredentialsRequest
	if s.decodeJSON(w, r, &req) != nil {
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	if err := s.store.CreateAccount(req.Email, req.Password); err != nil {
		if errors.Is(err, ErrAccountExists) {
			writeError(w, http.StatusConflict, ErrAccountExists.Error())
		} else {
			writeError(w, http.StatusInternalServerError, "account creation failed")
		}
		return
	}
	writeJSON(w, http.StatusCreated, backend.AccountResponse{Email: req.Email})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req backend.CredentialsRequest
	if s.decodeJSON(w, r, &req) != nil {
		return
	}
	if err := s.store.VerifyAccount(req.Email, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, ErrBadCredentials.Error())
		return
	}
	token, err := s.issueToken(req.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issuance failed")
		return
	}
	writeJSON(w, http.StatusOK, backend.SessionResponse{Token: token, Email: req.Email})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless, so there is nothing to revoke server-side.
	// The endpoint exists so clients have an explicit sign-out call.
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (s *Server) handleAppendMessage(w http.ResponseWriter, r *http.Request) {
	var req backend.AppendRequest
	if s.decodeJSON(w, r, &req) != nil {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "message text is required")
		return
	}
	user := req.User
	if user == "" {
		user = requestEmail(r)
	}
	msg := s.store.Append(model.Message{Text: req.Text, User: user, Image: req.Image})
	writeJSON(w, http.StatusCreated, backend.AppendResponse{ID: msg.ID})
}

// handleSubscribe upgrades to a websocket and streams full snapshots:
// one immediately on connect, then one after every append.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	updates, cancel := s.store.Subscribe()
	defer cancel()

	// Drain the client side so close frames are noticed.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(msgs []model.Message) bool {
		if err := conn.WriteJSON(backend.SnapshotPayload{Messages: msgs}); err != nil {
			return false
		}
		return true
	}

	if !send(s.store.Snapshot()) {
		return
	}
	for {
		select {
		case snapshot := <-updates:
			if !send(snapshot) {
				return
			}
		case <-closed:
			return
		}
	}
}
