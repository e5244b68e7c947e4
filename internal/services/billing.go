package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/api"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/validate"
)

// BillingService issues and tracks client invoices.
type BillingService struct {
	store    *api.Docstore
	activity *ActivityService
	log      zerolog.Logger
}

// NewBilling creates the billing service.
func NewBilling(store *api.Docstore, activity *ActivityService, log zerolog.Logger) *BillingService {
	return &BillingService{store: store, activity: activity, log: log}
}

// Create issues a new invoice. The amount is recomputed from the line items
// so the stored total always matches them.
func (s *BillingService) Create(ctx context.Context, actor models.AdminUser, inv models.Invoice) (models.Invoice, error) {
	if inv.LeadID == "" {
		return models.Invoice{}, fmt.Errorf("invoice lead required: %w", ErrInvalidInput)
	}
	if len(inv.Items) == 0 {
		return models.Invoice{}, fmt.Errorf("invoice needs at least one line item: %w", ErrInvalidInput)
	}
	var total float64
	for i, item := range inv.Items {
		if item.Description == "" || item.Price < 0 {
			return models.Invoice{}, fmt.Errorf("invoice line %d rejected: %w", i+1, ErrInvalidInput)
		}
		inv.Items[i].Description = validate.SanitizeText(item.Description)
		total += item.Price
	}
	inv.Amount = total
	inv.ClientName = validate.SanitizeText(inv.ClientName)
	if inv.Status == "" {
		inv.Status = models.InvoiceUnpaid
	}
	if !models.ValidInvoiceStatus(inv.Status) {
		return models.Invoice{}, fmt.Errorf("invoice status %q rejected: %w", inv.Status, ErrInvalidInput)
	}
	inv.Date = time.Now().UTC().Format(time.RFC3339)

	fields, err := api.FieldsOf(inv)
	if err != nil {
		return models.Invoice{}, err
	}
	doc, err := s.store.Create(ctx, collInvoices, fields)
	if err != nil {
		return models.Invoice{}, fmt.Errorf("store invoice: %w", err)
	}
	inv.ID = doc.ID

	s.activity.Record(ctx, actor, "Issued invoice", inv.ID)
	return inv, nil
}

// All lists invoices, newest first.
func (s *BillingService) All(ctx context.Context) ([]models.Invoice, error) {
	docs, err := s.store.List(ctx, collInvoices, api.Query{OrderBy: "date", Desc: true})
	if err != nil {
		return nil, err
	}
	return decodeInvoices(docs, s.log), nil
}

// ByLead lists a single client's invoices.
func (s *BillingService) ByLead(ctx context.Context, leadID string) ([]models.Invoice, error) {
	docs, err := s.store.List(ctx, collInvoices, api.Query{WhereField: "leadId", WhereValue: leadID})
	if err != nil {
		return nil, err
	}
	return decodeInvoices(docs, s.log), nil
}

// UpdateStatus moves an invoice through its lifecycle.
func (s *BillingService) UpdateStatus(ctx context.Context, actor models.AdminUser, id string, status models.InvoiceStatus) error {
	if !models.ValidInvoiceStatus(status) {
		return fmt.Errorf("invoice status %q rejected: %w", status, ErrInvalidInput)
	}
	if err := s.store.Update(ctx, collInvoices, id, map[string]any{"status": string(status)}); err != nil {
		return err
	}
	s.activity.Record(ctx, actor, "Updated invoice status", id)
	return nil
}

func decodeInvoices(docs []api.Document, log zerolog.Logger) []models.Invoice {
	out := make([]models.Invoice, 0, len(docs))
	for _, doc := range docs {
		var inv models.Invoice
		if err := doc.Decode(&inv); err != nil {
			log.Warn().Err(err).Str("id", doc.ID).Msg("skipping malformed invoice")
			continue
		}
		out = append(out, inv)
	}
	return out
}
