// Package server exposes the portal's runtime services to the dashboard
// shell over a small JSON surface. It owns no rendering; the shell asks
// the router what to draw and drives the session and notification
// services through these endpoints.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/careview/portal/pkg/notify"
	"github.com/careview/portal/pkg/portal"
	"github.com/careview/portal/pkg/router"
)

// Server serves the shell-facing API.
type Server struct {
	portal *portal.Portal
	mux    *http.ServeMux
}

// New creates a server over the given portal.
func New(p *portal.Portal) *Server {
	s := &Server{portal: p, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.portal.Health.LivenessHandler())
	s.mux.HandleFunc("GET /readyz", s.portal.Health.ReadinessHandler())

	s.mux.HandleFunc("POST /api/login", s.handleLogin)
	s.mux.HandleFunc("POST /api/logout", s.handleLogout)
	s.mux.HandleFunc("GET /api/session", s.handleSession)
	s.mux.HandleFunc("GET /api/view", s.handleView)

	s.mux.HandleFunc("GET /api/notifications", s.handleListNotifications)
	s.mux.HandleFunc("POST /api/notifications", s.handleAddNotification)
	s.mux.HandleFunc("DELETE /api/notifications", s.handleClearNotifications)
	s.mux.HandleFunc("DELETE /api/notifications/{id}", s.handleRemoveNotification)
}

// loginRequest is the POST /api/login body.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse reports the attempt outcome and the resulting state.
type loginResponse struct {
	OK    bool         `json:"ok"`
	State sessionReply `json:"state"`
}

// sessionReply mirrors session.State for the shell.
type sessionReply struct {
	Phase   string `json:"phase"`
	Session any    `json:"session,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Login never errors; invalid credentials are just ok=false.
	ok := s.portal.Sessions.Login(r.Context(), req.Email, req.Password)
	writeJSON(w, http.StatusOK, loginResponse{OK: ok, State: s.currentReply()})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.portal.Sessions.Logout()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.currentReply())
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = router.PathRoot
	}
	view := router.Resolve(s.portal.Sessions.Current(), path)
	writeJSON(w, http.StatusOK, view)
}

// notificationsReply is the GET /api/notifications body. Count feeds the
// badge; items are oldest first.
type notificationsReply struct {
	Count int                   `json:"count"`
	Items []notify.Notification `json:"items"`
}

func (s *Server) handleListNotifications(w http.ResponseWriter, _ *http.Request) {
	items := s.portal.Bus.Snapshot()
	writeJSON(w, http.StatusOK, notificationsReply{Count: len(items), Items: items})
}

// addNotificationRequest is the POST /api/notifications body.
type addNotificationRequest struct {
	Kind           string `json:"kind"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	ExpiresAfterMS int64  `json:"expires_after_ms,omitempty"`
}

func (s *Server) handleAddNotification(w http.ResponseWriter, r *http.Request) {
	var req addNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	expiry := time.Duration(req.ExpiresAfterMS) * time.Millisecond
	if req.ExpiresAfterMS == 0 {
		expiry = s.portal.Config().Notifications.DefaultExpiry
	}

	id := s.portal.Bus.Add(notify.Input{
		Kind:         notify.Kind(req.Kind),
		Title:        req.Title,
		Message:      req.Message,
		ExpiresAfter: expiry,
	})
	writeJSON(w, http.StatusCreated, map[string]uint64{"id": id})
}

func (s *Server) handleRemoveNotification(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid notification id", http.StatusBadRequest)
		return
	}

	// Idempotent; removing an unknown id is fine.
	s.portal.Bus.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, _ *http.Request) {
	s.portal.Bus.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) currentReply() sessionReply {
	st := s.portal.Sessions.Current()
	reply := sessionReply{Phase: string(st.Phase)}
	if st.Session != nil {
		reply.Session = st.Session
	}
	return reply
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("server: encoding response", "error", err)
	}
}
