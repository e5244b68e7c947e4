package handlers

import (
	"net/http"
	"strconv"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/validate"
)

// handleLogin signs an admin in. The login limiter keys on the submitted
// email so a credential-stuffing run against one account locks that
// account's attempts, not the whole office.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if !s.limiters.Login.IsAllowed(req.Email) {
		s.audit.Write(req.Email, "login", "throttled", nil)
		retry := int(s.limiters.Login.ResetTime(req.Email).Seconds() + 1)
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many login attempts"})
		return
	}

	token, admin, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		s.audit.Write(req.Email, "login", "failed", map[string]string{"ip": clientIP(r)})
		s.writeError(w, err)
		return
	}
	s.audit.Write(admin.Email, "login", "ok", map[string]string{"ip": clientIP(r)})
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "admin": admin})
}

// handleContactForm takes a public enquiry.
func (s *Server) handleContactForm(w http.ResponseWriter, r *http.Request) {
	var in validate.LeadInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	lead, err := s.leads.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

// handleTrackCase serves the public case tracker.
func (s *Server) handleTrackCase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	lead, err := s.leads.TrackByPhone(r.Context(), req.Phone)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if lead == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no case found for this number"})
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// handleSubscribe adds a newsletter recipient.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.content.Subscribe(r.Context(), req.Email); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"subscribed": true})
}

func (s *Server) handleListNews(w http.ResponseWriter, r *http.Request) {
	items, err := s.content.AllNews(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.content.AllCases(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cases)
}
