package handlers

import (
	"net/http"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
)

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		s.auth.SignOut(token)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"signedOut": true})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	admin := adminFrom(r.Context())
	if err := s.auth.ChangePassword(r.Context(), admin.Email, req.CurrentPassword, req.NewPassword); err != nil {
		s.audit.Write(admin.Email, "password_change", "failed", nil)
		s.writeError(w, err)
		return
	}
	s.audit.Write(admin.Email, "password_change", "ok", nil)
	writeJSON(w, http.StatusOK, map[string]bool{"changed": true})
}

func (s *Server) handleAdminLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := s.leads.All(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leads)
}

func (s *Server) handleLeadStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.LeadStatus `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	if err := s.leads.UpdateStatus(r.Context(), id, req.Status); err != nil {
		s.writeError(w, err)
		return
	}
	s.activity.Record(r.Context(), adminFrom(r.Context()), "Updated lead status", id)
	s.feed.LeadUpdated(id)
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Server) handleLeadNotes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes    string `json:"notes"`
		IsPublic bool   `json:"isPublic"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	if err := s.leads.UpdateNotes(r.Context(), id, req.Notes, req.IsPublic); err != nil {
		s.writeError(w, err)
		return
	}
	s.feed.LeadUpdated(id)
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Server) handleLeadPortfolio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Timeline []models.TimelineEvent `json:"timeline"`
		Files    []models.CaseFile      `json:"files"`
		Notify   bool                   `json:"notify"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	if err := s.leads.UpdatePortfolio(r.Context(), id, req.Timeline, req.Files, req.Notify); err != nil {
		s.writeError(w, err)
		return
	}
	s.activity.Record(r.Context(), adminFrom(r.Context()), "Updated case portfolio", id)
	s.feed.LeadUpdated(id)
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Server) handleLeadDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.leads.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.activity.Record(r.Context(), adminFrom(r.Context()), "Deleted lead", id)
	s.feed.LeadDeleted(id)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LeadPhone string `json:"leadPhone"`
		FileName  string `json:"fileName"`
		DataURL   string `json:"dataUrl"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	stored, err := s.vault.Upload(r.Context(), adminFrom(r.Context()), r.PathValue("id"), req.LeadPhone, req.FileName, req.DataURL)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

func (s *Server) handleReassignFiles(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromLeadID string `json:"fromLeadId"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	moved, err := s.leads.ReassignFiles(r.Context(), r.PathValue("id"), req.FromLeadID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"moved": moved})
}

func (s *Server) handleFileDownload(w http.ResponseWriter, r *http.Request) {
	stored, data, err := s.vault.Download(r.Context(), adminFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", stored.FileType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+stored.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.billing.All(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleLeadInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := s.billing.ByLead(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invoices)
}

func (s *Server) handleInvoiceCreate(w http.ResponseWriter, r *http.Request) {
	var inv models.Invoice
	if err := decodeBody(r, &inv); err != nil {
		s.writeError(w, err)
		return
	}
	created, err := s.billing.Create(r.Context(), adminFrom(r.Context()), inv)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status models.InvoiceStatus `json:"status"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.billing.UpdateStatus(r.Context(), adminFrom(r.Context()), r.PathValue("id"), req.Status); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Server) handleNewsCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		models.NewsItem
		Broadcast bool `json:"broadcast"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	item, err := s.content.CreateNews(r.Context(), req.NewsItem, req.Broadcast)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.activity.Record(r.Context(), adminFrom(r.Context()), "Published news", item.ID)
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleNewsDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.content.DeleteNews(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.activity.Record(r.Context(), adminFrom(r.Context()), "Deleted news", id)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleCaseCreate(w http.ResponseWriter, r *http.Request) {
	var cs models.CaseStudy
	if err := decodeBody(r, &cs); err != nil {
		s.writeError(w, err)
		return
	}
	created, err := s.content.CreateCase(r.Context(), cs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.activity.Record(r.Context(), adminFrom(r.Context()), "Published case study", created.ID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleCaseDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.content.DeleteCase(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.activity.Record(r.Context(), adminFrom(r.Context()), "Deleted case study", id)
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	entries, err := s.activity.Recent(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSentEmails(w http.ResponseWriter, r *http.Request) {
	records, err := s.mailer.Sent(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleSubscribers(w http.ResponseWriter, r *http.Request) {
	emails, err := s.content.Subscribers(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, emails)
}

func (s *Server) handleAIAudit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image string `json:"image"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	text, err := s.counsel.AuditDocument(r.Context(), adminFrom(r.Context()).UID, req.Image)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"analysis": text})
}

func (s *Server) handleAIResearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic string `json:"topic"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.counsel.Research(r.Context(), adminFrom(r.Context()).UID, req.Topic)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAIDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocType string `json:"docType"`
		Details string `json:"details"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	text, err := s.counsel.Draft(r.Context(), adminFrom(r.Context()).UID, req.DocType, req.Details)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"draft": text})
}

func (s *Server) handleAIImage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	dataURL, err := s.counsel.ThematicImage(r.Context(), adminFrom(r.Context()).UID, req.Prompt)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"image": dataURL})
}

// handleLimiterReset clears one key on a named limiter, e.g. to unblock a
// client who tripped the tracker limit while on the phone with the firm.
func (s *Server) handleLimiterReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	name := r.PathValue("name")
	limiter := s.limiters.ByName(name)
	if limiter == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown limiter"})
		return
	}
	limiter.Reset(req.Key)
	s.audit.Write(adminFrom(r.Context()).Email, "limiter_reset", "ok", map[string]string{"limiter": name, "key": req.Key})
	writeJSON(w, http.StatusOK, map[string]bool{"reset": true})
}

func (s *Server) handleLimiterClear(w http.ResponseWriter, r *http.Request) {
	s.limiters.ClearAll()
	s.audit.Write(adminFrom(r.Context()).Email, "limiter_clear", "ok", nil)
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.feed.ServeHTTP(w, r)
}
