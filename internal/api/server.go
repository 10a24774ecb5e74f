// Package api serves session internals over HTTP: read-only status and
// history endpoints for anyone, cache administration behind a bearer
// token.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/talgya/slaycast/internal/session"
)

// Server exposes one session's counters and caches.
type Server struct {
	Session  *session.Session
	Listen   string
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/history", s.handleHistory)

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/cache/clear", s.adminOnly(s.handleClearCache))

	return mux
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	slog.Info("status API starting", "addr", s.Listen, "admin_auth", s.AdminKey != "")
	go func() {
		if err := http.ListenAndServe(s.Listen, s.Handler()); err != nil {
			slog.Error("status API error", "error", err)
		}
	}()
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require POST with bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Session.Stats())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"history": s.Session.History(),
	})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.ClearCaches(); err != nil {
		slog.Error("cache clear failed", "error", err)
		http.Error(w, "cache clear failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"cleared": true})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
