package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/api"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/ratelimit"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/validate"
)

// Notifier pushes lead events somewhere a human sees them promptly.
type Notifier interface {
	LeadReceived(lead models.Lead)
}

// NopNotifier is used when no notification channel is configured.
type NopNotifier struct{}

func (NopNotifier) LeadReceived(models.Lead) {}

// LeadService is the CRM core: intake, pipeline updates and the client
// case tracker.
type LeadService struct {
	store    *api.Docstore
	counsel  *CounselService
	mailer   *Mailer
	contact  ratelimit.Limiter
	tracking ratelimit.Limiter
	activity *ActivityService
	notifier Notifier
	log      zerolog.Logger
}

// NewLeads creates the lead service. contact throttles public intake,
// tracking throttles the case tracker.
func NewLeads(store *api.Docstore, counsel *CounselService, mailer *Mailer, contact, tracking ratelimit.Limiter, activity *ActivityService, notifier Notifier, log zerolog.Logger) *LeadService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &LeadService{
		store:    store,
		counsel:  counsel,
		mailer:   mailer,
		contact:  contact,
		tracking: tracking,
		activity: activity,
		notifier: notifier,
		log:      log,
	}
}

// Create takes a public contact-form submission. The phone number keys the
// contact-form limiter: it is what a spammer cannot cheaply vary while
// still being reachable.
func (s *LeadService) Create(ctx context.Context, in validate.LeadInput) (models.Lead, error) {
	if !s.contact.IsAllowed(in.Phone) {
		return models.Lead{}, ErrThrottled
	}
	if !validate.IsValidLead(in) {
		return models.Lead{}, fmt.Errorf("lead submission rejected: %w", ErrInvalidInput)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	lead := models.Lead{
		Name:      validate.SanitizeText(in.Name),
		Phone:     in.Phone,
		Email:     in.Email,
		Category:  validate.SanitizeText(in.Category),
		Details:   validate.SanitizeText(in.Details),
		Status:    models.LeadNew,
		CreatedAt: now,
		UpdatedAt: now,
		Timeline:  []models.TimelineEvent{},
		Files:     []models.CaseFile{},
	}

	// Intake summary is a nicety; a slow or broken model never blocks a
	// prospective client.
	if summary, err := s.counsel.Summarize(ctx, lead.Details); err != nil {
		s.log.Warn().Err(err).Msg("intake summary generation failed")
	} else {
		lead.AISummary = summary
	}

	fields, err := api.FieldsOf(lead)
	if err != nil {
		return models.Lead{}, err
	}
	doc, err := s.store.Create(ctx, collLeads, fields)
	if err != nil {
		return models.Lead{}, fmt.Errorf("store lead: %w", err)
	}
	lead.ID = doc.ID

	s.notifier.LeadReceived(lead)
	return lead, nil
}

// All lists every lead, newest first.
func (s *LeadService) All(ctx context.Context) ([]models.Lead, error) {
	docs, err := s.store.List(ctx, collLeads, api.Query{OrderBy: "createdAt", Desc: true})
	if err != nil {
		return nil, err
	}
	leads := make([]models.Lead, 0, len(docs))
	for _, doc := range docs {
		var lead models.Lead
		if err := doc.Decode(&lead); err != nil {
			s.log.Warn().Err(err).Str("id", doc.ID).Msg("skipping malformed lead")
			continue
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// UpdateStatus moves a lead along the pipeline.
func (s *LeadService) UpdateStatus(ctx context.Context, id string, status models.LeadStatus) error {
	if !models.ValidLeadStatus(status) {
		return fmt.Errorf("status %q: %w", status, ErrInvalidInput)
	}
	return s.store.Update(ctx, collLeads, id, map[string]any{
		"status":    status,
		"updatedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

// UpdateNotes stores attorney notes; isPublic controls whether the client
// tracker may show them.
func (s *LeadService) UpdateNotes(ctx context.Context, id, notes string, isPublic bool) error {
	return s.store.Update(ctx, collLeads, id, map[string]any{
		"notes":        validate.SanitizeText(notes),
		"isNotePublic": isPublic,
		"updatedAt":    time.Now().UTC().Format(time.RFC3339),
	})
}

// UpdatePortfolio replaces a lead's timeline and file list. With notify set,
// the client is mailed the latest timeline entry as a milestone update.
func (s *LeadService) UpdatePortfolio(ctx context.Context, id string, timeline []models.TimelineEvent, files []models.CaseFile, notify bool) error {
	for i := range timeline {
		timeline[i].Title = validate.SanitizeText(timeline[i].Title)
		timeline[i].Description = validate.SanitizeText(timeline[i].Description)
	}
	for i := range files {
		files[i].Name = validate.SanitizeFilename(files[i].Name)
	}
	err := s.store.Update(ctx, collLeads, id, map[string]any{
		"timeline":  timeline,
		"files":     files,
		"updatedAt": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if notify && len(timeline) > 0 {
		s.mailMilestone(ctx, id, timeline[len(timeline)-1])
	}
	return nil
}

// mailMilestone is best effort: the portfolio update already landed, so a
// mail failure is logged, never surfaced.
func (s *LeadService) mailMilestone(ctx context.Context, id string, event models.TimelineEvent) {
	doc, err := s.store.Get(ctx, collLeads, id)
	if err != nil {
		s.log.Warn().Err(err).Str("lead", id).Msg("milestone mail skipped, lead lookup failed")
		return
	}
	var lead models.Lead
	if err := doc.Decode(&lead); err != nil || !validate.IsValidEmail(lead.Email) {
		s.log.Warn().Str("lead", id).Msg("milestone mail skipped, no usable client email")
		return
	}
	_, err = s.mailer.Send(ctx, OutgoingEmail{
		To:      lead.Email,
		Subject: "อัปเดตความคืบหน้าคดีของคุณ: " + event.Title,
		Body:    fmt.Sprintf("เรียนคุณ %s\n\nคดีของท่านมีความคืบหน้า: %s\n%s", lead.Name, event.Title, event.Description),
		Type:    models.EmailMilestone,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("lead", id).Msg("milestone mail failed")
	}
}

// Delete removes a lead.
func (s *LeadService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, collLeads, id)
}

// TrackByPhone serves the public case tracker. An unknown phone yields
// (nil, nil), indistinguishable from a typo on purpose. Private notes are
// scrubbed before the lead leaves the back office.
func (s *LeadService) TrackByPhone(ctx context.Context, phone string) (*models.Lead, error) {
	if !s.tracking.IsAllowed(phone) {
		return nil, ErrThrottled
	}
	if !validate.IsValidPhone(phone) {
		return nil, fmt.Errorf("phone rejected: %w", ErrInvalidInput)
	}

	doc, err := s.store.First(ctx, collLeads, api.Query{WhereField: "phone", WhereValue: phone})
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var lead models.Lead
	if err := doc.Decode(&lead); err != nil {
		return nil, fmt.Errorf("decode lead: %w", err)
	}
	if !lead.IsNotePublic {
		lead.Notes = ""
	}

	fileDocs, err := s.store.List(ctx, collCaseFiles, api.Query{WhereField: "leadId", WhereValue: lead.ID})
	if err != nil {
		s.log.Warn().Err(err).Str("lead", lead.ID).Msg("case file lookup failed")
		return &lead, nil
	}
	files := make([]models.CaseFile, 0, len(fileDocs))
	for _, fd := range fileDocs {
		var stored models.StoredFile
		if err := fd.Decode(&stored); err != nil {
			continue
		}
		files = append(files, models.CaseFile{
			ID:         stored.ID,
			Name:       stored.FileName,
			URL:        stored.URL,
			Type:       "other",
			FileSize:   models.FormatFileSize(stored.FileSize),
			UploadDate: stored.UploadedAt,
		})
	}
	lead.Files = files
	return &lead, nil
}

// ReassignFiles repoints every case file from one lead to another. Used
// when a duplicate intake is merged into the real client record.
func (s *LeadService) ReassignFiles(ctx context.Context, newLeadID, oldLeadID string) (int, error) {
	docs, err := s.store.List(ctx, collCaseFiles, api.Query{WhereField: "leadId", WhereValue: oldLeadID})
	if err != nil {
		return 0, err
	}
	moved := 0
	for _, doc := range docs {
		err := s.store.Update(ctx, collCaseFiles, doc.ID, map[string]any{
			"leadId":    newLeadID,
			"updatedAt": time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return moved, fmt.Errorf("reassign file %s: %w", doc.ID, err)
		}
		moved++
	}
	s.log.Info().Int("moved", moved).Str("from", oldLeadID).Str("to", newLeadID).Msg("case files reassigned")
	return moved, nil
}
