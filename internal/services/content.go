package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/api"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/validate"
)

// ContentService runs the public-site CMS: news, case portfolio and the
// newsletter list.
type ContentService struct {
	store  *api.Docstore
	mailer *Mailer
	log    zerolog.Logger
}

// NewContent creates the CMS service.
func NewContent(store *api.Docstore, mailer *Mailer, log zerolog.Logger) *ContentService {
	return &ContentService{store: store, mailer: mailer, log: log}
}

// AllNews lists articles, newest first.
func (s *ContentService) AllNews(ctx context.Context) ([]models.NewsItem, error) {
	docs, err := s.store.List(ctx, collNews, api.Query{OrderBy: "date", Desc: true})
	if err != nil {
		return nil, err
	}
	items := make([]models.NewsItem, 0, len(docs))
	for _, doc := range docs {
		var item models.NewsItem
		if err := doc.Decode(&item); err != nil {
			s.log.Warn().Err(err).Str("id", doc.ID).Msg("skipping malformed news item")
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// CreateNews publishes an article. With broadcast set, every newsletter
// subscriber gets a notification mail.
func (s *ContentService) CreateNews(ctx context.Context, item models.NewsItem, broadcast bool) (models.NewsItem, error) {
	if item.Title == "" {
		return models.NewsItem{}, fmt.Errorf("news title required: %w", ErrInvalidInput)
	}
	if !validImageRef(item.Image) {
		return models.NewsItem{}, fmt.Errorf("news image rejected: %w", ErrInvalidInput)
	}
	item.Title = validate.SanitizeText(item.Title)
	item.Description = validate.SanitizeText(item.Description)
	item.Date = thaiDate(time.Now())

	fields, err := api.FieldsOf(item)
	if err != nil {
		return models.NewsItem{}, err
	}
	doc, err := s.store.Create(ctx, collNews, fields)
	if err != nil {
		return models.NewsItem{}, fmt.Errorf("store news: %w", err)
	}
	item.ID = doc.ID

	if broadcast {
		subscribers, err := s.Subscribers(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("broadcast skipped, subscriber list unavailable")
			return item, nil
		}
		for _, email := range subscribers {
			_, err := s.mailer.Send(ctx, OutgoingEmail{
				To:      email,
				Subject: "ใหม่: " + item.Title,
				Body:    fmt.Sprintf("อ่านบทความล่าสุดจาก Thanathep Law: %s\n\n%s", item.Title, item.Description),
				Type:    models.EmailBroadcast,
			})
			if err != nil {
				s.log.Warn().Err(err).Str("to", email).Msg("broadcast mail failed")
			}
		}
	}
	return item, nil
}

// DeleteNews removes an article.
func (s *ContentService) DeleteNews(ctx context.Context, id string) error {
	return s.store.Delete(ctx, collNews, id)
}

// AllCases lists the case portfolio, most recent year first.
func (s *ContentService) AllCases(ctx context.Context) ([]models.CaseStudy, error) {
	docs, err := s.store.List(ctx, collCases, api.Query{OrderBy: "year", Desc: true})
	if err != nil {
		return nil, err
	}
	cases := make([]models.CaseStudy, 0, len(docs))
	for _, doc := range docs {
		var cs models.CaseStudy
		if err := doc.Decode(&cs); err != nil {
			s.log.Warn().Err(err).Str("id", doc.ID).Msg("skipping malformed case study")
			continue
		}
		cases = append(cases, cs)
	}
	return cases, nil
}

// CreateCase publishes a case study.
func (s *ContentService) CreateCase(ctx context.Context, cs models.CaseStudy) (models.CaseStudy, error) {
	if cs.Title == "" {
		return models.CaseStudy{}, fmt.Errorf("case title required: %w", ErrInvalidInput)
	}
	for _, img := range append([]string{cs.MainImage}, cs.Gallery...) {
		if !validImageRef(img) {
			return models.CaseStudy{}, fmt.Errorf("case image rejected: %w", ErrInvalidInput)
		}
	}
	cs.Title = validate.SanitizeText(cs.Title)
	cs.Description = validate.SanitizeText(cs.Description)

	fields, err := api.FieldsOf(cs)
	if err != nil {
		return models.CaseStudy{}, err
	}
	doc, err := s.store.Create(ctx, collCases, fields)
	if err != nil {
		return models.CaseStudy{}, fmt.Errorf("store case study: %w", err)
	}
	cs.ID = doc.ID
	return cs, nil
}

// DeleteCase removes a case study.
func (s *ContentService) DeleteCase(ctx context.Context, id string) error {
	return s.store.Delete(ctx, collCases, id)
}

// Subscribe adds an email to the newsletter list, ignoring duplicates.
func (s *ContentService) Subscribe(ctx context.Context, email string) error {
	if !validate.IsValidEmail(email) {
		return fmt.Errorf("subscriber email rejected: %w", ErrInvalidInput)
	}
	_, err := s.store.First(ctx, collSubscribers, api.Query{WhereField: "email", WhereValue: email})
	if err == nil {
		return nil // already subscribed
	}
	if !errors.Is(err, api.ErrNotFound) {
		return err
	}
	_, err = s.store.Create(ctx, collSubscribers, map[string]any{
		"email":     email,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	})
	return err
}

// Subscribers returns every newsletter email.
func (s *ContentService) Subscribers(ctx context.Context) ([]string, error) {
	docs, err := s.store.List(ctx, collSubscribers, api.Query{})
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(docs))
	for _, doc := range docs {
		var sub models.Subscriber
		if err := doc.Decode(&sub); err != nil || sub.Email == "" {
			continue
		}
		emails = append(emails, sub.Email)
	}
	return emails, nil
}

// validImageRef accepts an http(s) URL or an inline image data URL. Empty
// means no image.
func validImageRef(ref string) bool {
	return ref == "" || validate.IsValidURL(ref) || validate.IsValidBase64(ref)
}

// thaiDate renders a date the way the site shows it: day/month/year in the
// Buddhist era.
func thaiDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year()+543)
}
