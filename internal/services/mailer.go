package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/api"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
)

// OutgoingEmail is a message the back office wants delivered.
type OutgoingEmail struct {
	To       string
	Subject  string
	Body     string
	Type     models.EmailType
	CanReply bool
}

// Mailer records every outbound message in sent_emails and then dispatches
// it through the transactional email API. Without mail credentials it runs
// record-only, which is what a development instance wants.
type Mailer struct {
	store      *api.Docstore
	email      *api.EmailClient
	serviceID  string
	templateID string
	replyTo    string
	noReply    string
	log        zerolog.Logger
}

// NewMailer creates the mailer.
func NewMailer(store *api.Docstore, email *api.EmailClient, serviceID, templateID, replyTo, noReply string, log zerolog.Logger) *Mailer {
	return &Mailer{
		store:      store,
		email:      email,
		serviceID:  serviceID,
		templateID: templateID,
		replyTo:    replyTo,
		noReply:    noReply,
		log:        log,
	}
}

// Send records and dispatches one message. The record is authoritative;
// dispatch is best effort.
func (m *Mailer) Send(ctx context.Context, msg OutgoingEmail) (models.EmailRecord, error) {
	record := models.EmailRecord{
		To:        msg.To,
		Subject:   msg.Subject,
		Body:      msg.Body,
		Type:      msg.Type,
		CanReply:  msg.CanReply,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	fields, err := api.FieldsOf(record)
	if err != nil {
		return models.EmailRecord{}, err
	}
	doc, err := m.store.Create(ctx, collSentEmails, fields)
	if err != nil {
		return models.EmailRecord{}, err
	}
	record.ID = doc.ID

	if m.email.Configured() && m.serviceID != "" && m.templateID != "" {
		replyTo := m.noReply
		if msg.CanReply {
			replyTo = m.replyTo
		}
		params := map[string]string{
			"to_email": msg.To,
			"subject":  msg.Subject,
			"message":  msg.Body,
			"type":     string(msg.Type),
			"reply_to": replyTo,
		}
		if err := m.email.Send(ctx, m.serviceID, m.templateID, params); err != nil {
			m.log.Warn().Err(err).Str("to", msg.To).Msg("email dispatch failed, message recorded only")
		}
	}
	return record, nil
}

// Sent lists the outbound mail log, newest first.
func (m *Mailer) Sent(ctx context.Context) ([]models.EmailRecord, error) {
	docs, err := m.store.List(ctx, collSentEmails, api.Query{OrderBy: "timestamp", Desc: true})
	if err != nil {
		return nil, err
	}
	records := make([]models.EmailRecord, 0, len(docs))
	for _, doc := range docs {
		var record models.EmailRecord
		if err := doc.Decode(&record); err != nil {
			m.log.Warn().Err(err).Str("id", doc.ID).Msg("skipping malformed email record")
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
