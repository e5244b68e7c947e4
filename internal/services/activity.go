package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/api"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
)

// ActivityService writes the back-office activity trail to the
// activity_logs collection.
type ActivityService struct {
	store *api.Docstore
	log   zerolog.Logger
}

// NewActivity creates the activity service.
func NewActivity(store *api.Docstore, log zerolog.Logger) *ActivityService {
	return &ActivityService{store: store, log: log}
}

// Record appends one entry. Failures are logged and swallowed: losing an
// activity row must not fail the operation it describes.
func (a *ActivityService) Record(ctx context.Context, actor models.AdminUser, action, targetID string) {
	userID := actor.UID
	if userID == "" {
		userID = "unknown"
	}
	userName := actor.Email
	if userName == "" {
		userName = "Unknown User"
	}
	fields := map[string]any{
		"userId":    userID,
		"userName":  userName,
		"action":    action,
		"targetId":  targetID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := a.store.Create(ctx, collActivity, fields); err != nil {
		a.log.Warn().Err(err).Str("action", action).Msg("activity log write failed")
	}
}

// Recent returns the last hundred entries, newest first.
func (a *ActivityService) Recent(ctx context.Context) ([]models.ActivityLog, error) {
	docs, err := a.store.List(ctx, collActivity, api.Query{OrderBy: "timestamp", Desc: true, Limit: 100})
	if err != nil {
		return nil, err
	}
	entries := make([]models.ActivityLog, 0, len(docs))
	for _, doc := range docs {
		var entry models.ActivityLog
		if err := doc.Decode(&entry); err != nil {
			a.log.Warn().Err(err).Str("id", doc.ID).Msg("skipping malformed activity entry")
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
