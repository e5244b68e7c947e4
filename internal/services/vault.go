package services

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/api"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/ratelimit"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/validate"
)

// VaultService stores case documents: bytes in object storage, metadata in
// the case_files collection.
type VaultService struct {
	store    *api.Docstore
	blobs    api.ObjectStore
	mailer   *Mailer
	limiter  ratelimit.Limiter
	activity *ActivityService
	maxMB    int
	log      zerolog.Logger
}

// NewVault creates the vault. maxMB caps a single upload.
func NewVault(store *api.Docstore, blobs api.ObjectStore, mailer *Mailer, limiter ratelimit.Limiter, activity *ActivityService, maxMB int, log zerolog.Logger) *VaultService {
	return &VaultService{
		store:    store,
		blobs:    blobs,
		mailer:   mailer,
		limiter:  limiter,
		activity: activity,
		maxMB:    maxMB,
		log:      log,
	}
}

// Upload validates and stores one file submitted as a base64 data URL. The
// lead's phone keys the upload limiter so one client cannot flood the
// vault.
func (s *VaultService) Upload(ctx context.Context, actor models.AdminUser, leadID, leadPhone, fileName, dataURL string) (models.StoredFile, error) {
	if !s.limiter.IsAllowed(leadPhone) {
		return models.StoredFile{}, ErrThrottled
	}
	if !validate.IsValidBase64(dataURL) {
		return models.StoredFile{}, fmt.Errorf("upload must be a base64 data URL: %w", ErrInvalidInput)
	}
	mime, payload := splitDataURL(dataURL)
	if !validate.IsValidMimeType(mime, nil) {
		return models.StoredFile{}, fmt.Errorf("file type %s not allowed: %w", mime, ErrInvalidInput)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("broken base64 payload: %w", ErrInvalidInput)
	}
	if !validate.IsValidFileSize(int64(len(data)), s.maxMB) {
		return models.StoredFile{}, fmt.Errorf("file exceeds %dMB limit: %w", s.maxMB, ErrInvalidInput)
	}

	now := time.Now().UTC()
	safeName := validate.SanitizeFilename(fileName)
	storagePath := fmt.Sprintf("%d_%s", now.UnixMilli(), safeName)
	sum := sha256.Sum256(data)

	url, err := s.blobs.Upload(ctx, storagePath, mime, data)
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("object storage upload: %w", err)
	}

	stored := models.StoredFile{
		LeadID:      leadID,
		LeadPhone:   leadPhone,
		FileName:    safeName,
		FileSize:    int64(len(data)),
		FileType:    mime,
		StoragePath: storagePath,
		URL:         url,
		Checksum:    hex.EncodeToString(sum[:]),
		UploadedAt:  now.Format(time.RFC3339),
		UploadedBy:  actor.Email,
		IsArchived:  false,
	}
	fields, err := api.FieldsOf(stored)
	if err != nil {
		return models.StoredFile{}, err
	}
	doc, err := s.store.Create(ctx, collCaseFiles, fields)
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("store file metadata: %w", err)
	}
	stored.ID = doc.ID

	s.activity.Record(ctx, actor, "FILE_UPLOADED", stored.ID)
	s.mailVaultNotice(ctx, leadID, stored)
	return stored, nil
}

// mailVaultNotice tells the client a new document landed in their vault.
// Best effort: the file is already stored.
func (s *VaultService) mailVaultNotice(ctx context.Context, leadID string, stored models.StoredFile) {
	doc, err := s.store.Get(ctx, collLeads, leadID)
	if err != nil {
		s.log.Warn().Err(err).Str("lead", leadID).Msg("vault mail skipped, lead lookup failed")
		return
	}
	var lead models.Lead
	if err := doc.Decode(&lead); err != nil || !validate.IsValidEmail(lead.Email) {
		s.log.Warn().Str("lead", leadID).Msg("vault mail skipped, no usable client email")
		return
	}
	_, err = s.mailer.Send(ctx, OutgoingEmail{
		To:      lead.Email,
		Subject: "มีเอกสารใหม่ในคลังเอกสารคดีของคุณ",
		Body:    fmt.Sprintf("เรียนคุณ %s\n\nสำนักงานได้เพิ่มเอกสาร %s (%s) ในคลังเอกสารคดีของท่าน", lead.Name, stored.FileName, models.FormatFileSize(stored.FileSize)),
		Type:    models.EmailVault,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("lead", leadID).Msg("vault mail failed")
	}
}

// Download fetches a stored file's metadata and bytes. The MIME type is
// re-checked against the allow-list: a record predating a policy tightening
// must not keep serving.
func (s *VaultService) Download(ctx context.Context, actor models.AdminUser, fileID string) (models.StoredFile, []byte, error) {
	doc, err := s.store.Get(ctx, collCaseFiles, fileID)
	if err != nil {
		return models.StoredFile{}, nil, err
	}
	var stored models.StoredFile
	if err := doc.Decode(&stored); err != nil {
		return models.StoredFile{}, nil, fmt.Errorf("decode file metadata: %w", err)
	}
	if !validate.IsValidMimeType(stored.FileType, nil) {
		return models.StoredFile{}, nil, fmt.Errorf("file type %s no longer allowed: %w", stored.FileType, ErrInvalidInput)
	}
	data, err := s.blobs.Fetch(ctx, stored.StoragePath)
	if err != nil {
		return models.StoredFile{}, nil, fmt.Errorf("object storage fetch: %w", err)
	}
	if sum := sha256.Sum256(data); hex.EncodeToString(sum[:]) != stored.Checksum {
		return models.StoredFile{}, nil, fmt.Errorf("checksum mismatch for %s", stored.ID)
	}

	s.activity.Record(ctx, actor, "FILE_DOWNLOADED", stored.ID)
	return stored, data, nil
}
