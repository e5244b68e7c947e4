// Package handlers exposes the firm's HTTP surface: the public site API
// and the authenticated back office.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/api"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/auth"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/hub"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/audit"
	rl "github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/ratelimit"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/services"
)

// Server wires HTTP routes to services.
type Server struct {
	auth     *auth.Service
	leads    *services.LeadService
	vault    *services.VaultService
	content  *services.ContentService
	billing  *services.BillingService
	counsel  *services.CounselService
	activity *services.ActivityService
	mailer   *services.Mailer
	limiters *rl.Set
	feed     *hub.Hub
	audit    *audit.Logger
	log      zerolog.Logger
}

// New constructs the server handler.
func New(authSvc *auth.Service, leads *services.LeadService, vault *services.VaultService, content *services.ContentService, billing *services.BillingService, counsel *services.CounselService, activity *services.ActivityService, mailer *services.Mailer, limiters *rl.Set, feed *hub.Hub, auditLog *audit.Logger, log zerolog.Logger) *Server {
	return &Server{
		auth:     authSvc,
		leads:    leads,
		vault:    vault,
		content:  content,
		billing:  billing,
		counsel:  counsel,
		activity: activity,
		mailer:   mailer,
		limiters: limiters,
		feed:     feed,
		audit:    auditLog,
		log:      log,
	}
}

// Routes builds the full mux, middleware included.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Public site.
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/leads", s.handleContactForm)
	mux.HandleFunc("POST /api/track", s.handleTrackCase)
	mux.HandleFunc("POST /api/newsletter", s.handleSubscribe)
	mux.HandleFunc("GET /api/news", s.handleListNews)
	mux.HandleFunc("GET /api/cases", s.handleListCases)

	// Back office.
	mux.Handle("POST /api/auth/logout", s.requireAdmin(s.handleLogout))
	mux.Handle("POST /api/admin/password", s.requireAdmin(s.handleChangePassword))
	mux.Handle("GET /api/admin/leads", s.requireAdmin(s.handleAdminLeads))
	mux.Handle("PATCH /api/admin/leads/{id}/status", s.requireAdmin(s.handleLeadStatus))
	mux.Handle("PATCH /api/admin/leads/{id}/notes", s.requireAdmin(s.handleLeadNotes))
	mux.Handle("PUT /api/admin/leads/{id}/portfolio", s.requireAdmin(s.handleLeadPortfolio))
	mux.Handle("DELETE /api/admin/leads/{id}", s.requireAdmin(s.handleLeadDelete))
	mux.Handle("POST /api/admin/leads/{id}/files", s.requireAdmin(s.handleFileUpload))
	mux.Handle("POST /api/admin/leads/{id}/reassign-files", s.requireAdmin(s.handleReassignFiles))
	mux.Handle("GET /api/admin/files/{id}", s.requireAdmin(s.handleFileDownload))
	mux.Handle("GET /api/admin/leads/{id}/invoices", s.requireAdmin(s.handleLeadInvoices))
	mux.Handle("GET /api/admin/invoices", s.requireAdmin(s.handleInvoices))
	mux.Handle("POST /api/admin/invoices", s.requireAdmin(s.handleInvoiceCreate))
	mux.Handle("PATCH /api/admin/invoices/{id}/status", s.requireAdmin(s.handleInvoiceStatus))
	mux.Handle("POST /api/admin/news", s.requireAdmin(s.handleNewsCreate))
	mux.Handle("DELETE /api/admin/news/{id}", s.requireAdmin(s.handleNewsDelete))
	mux.Handle("POST /api/admin/cases", s.requireAdmin(s.handleCaseCreate))
	mux.Handle("DELETE /api/admin/cases/{id}", s.requireAdmin(s.handleCaseDelete))
	mux.Handle("GET /api/admin/activity", s.requireAdmin(s.handleActivity))
	mux.Handle("GET /api/admin/emails", s.requireAdmin(s.handleSentEmails))
	mux.Handle("GET /api/admin/subscribers", s.requireAdmin(s.handleSubscribers))
	mux.Handle("POST /api/admin/ai/audit", s.requireAdmin(s.handleAIAudit))
	mux.Handle("POST /api/admin/ai/research", s.requireAdmin(s.handleAIResearch))
	mux.Handle("POST /api/admin/ai/draft", s.requireAdmin(s.handleAIDraft))
	mux.Handle("POST /api/admin/ai/image", s.requireAdmin(s.handleAIImage))
	mux.Handle("POST /api/admin/limiters/{name}/reset", s.requireAdmin(s.handleLimiterReset))
	mux.Handle("POST /api/admin/limiters/clear", s.requireAdmin(s.handleLimiterClear))
	mux.Handle("GET /api/admin/feed", s.requireAdmin(s.handleFeed))

	return s.recoverPanic(s.logRequests(s.throttleAPI(mux)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps service failures onto the closed status set the clients
// are written against.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrThrottled):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "too many requests"})
	case errors.Is(err, services.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrWeakPassword):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrNotAdmin), errors.Is(err, api.ErrCredentialInvalid):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	case errors.Is(err, api.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, api.ErrRateLimited):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "upstream throttled"})
	case errors.Is(err, api.ErrNetworkUnavailable):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "upstream unavailable"})
	default:
		s.log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 100<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %v: %w", err, services.ErrInvalidInput)
	}
	return nil
}
