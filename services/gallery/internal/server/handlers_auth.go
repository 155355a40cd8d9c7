package server

import (
	"errors"
	"net/http"

	"catgallery/internal/util"
	"catgallery/pkg/domain"
	"catgallery/services/gallery/internal/app"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string            `json:"message"`
	User    domain.PublicUser `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.registerLimiter, "too many registration attempts") {
		s.audit(r, "gallery.register", "rate_limited")
		return
	}
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	err := s.app.Register(r.Context(), req.Username, req.Email, req.Password)
	switch {
	case err == nil:
		s.audit(r, "gallery.register", "success")
		writeMessage(w, http.StatusCreated, "User registered successfully")
	case errors.Is(err, app.ErrFieldsRequired), errors.Is(err, app.ErrUserExists):
		s.audit(r, "gallery.register", "rejected", "reason", err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.audit(r, "gallery.register", "error")
		internalError(w, r, "Error registering user", err)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		s.audit(r, "gallery.login", "rate_limited")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := s.app.Login(r.Context(), req.Email, req.Password, sessionFromRequest(r))
	switch {
	case err == nil:
	case errors.Is(err, app.ErrFieldsRequired):
		s.audit(r, "gallery.login", "rejected", "reason", "missing_fields")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, app.ErrInvalidCredentials):
		s.audit(r, "gallery.login", "fail", "reason", "invalid_credentials")
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	case errors.Is(err, app.ErrSessionSave):
		s.audit(r, "gallery.login", "error", "reason", "session_save")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	default:
		s.audit(r, "gallery.login", "error")
		internalError(w, r, "Error logging in", err)
		return
	}

	s.setTokenCookie(w, res.Token, res.TokenExpires)
	s.setSessionCookie(w, res.Session)
	s.audit(r, "gallery.login", "success", "user_id", res.User.ID)
	writeJSON(w, http.StatusOK, loginResponse{Message: "Login successful", User: res.User})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	had, err := s.app.Logout(r.Context(), sessionFromRequest(r))
	if err != nil {
		s.audit(r, "gallery.logout", "error")
		internalError(w, r, "Failed to logout", err)
		return
	}
	s.revokeRequestToken(r)
	s.clearCookies(w)
	if !had {
		writeMessage(w, http.StatusOK, "No active session")
		return
	}
	s.audit(r, "gallery.logout", "success")
	writeMessage(w, http.StatusOK, "Logout successful")
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.app.Status(sessionFromRequest(r)))
}

func (s *Server) handleCleanupSessions(w http.ResponseWriter, r *http.Request, user domain.PublicUser) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	n, err := s.app.CleanupSessions(r.Context(), user.ID)
	if err != nil {
		s.audit(r, "gallery.sessions.cleanup", "error", "user_id", user.ID)
		internalError(w, r, "Error cleaning up sessions", err)
		return
	}
	util.LoggerFromContext(r.Context()).Info("sessions cleaned up", "user_id", user.ID, "deleted", n)
	s.audit(r, "gallery.sessions.cleanup", "success", "user_id", user.ID)
	writeMessage(w, http.StatusOK, "Sessions cleaned up successfully")
}
