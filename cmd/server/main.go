package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/api"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/auth"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/config"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/handlers"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/hub"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/models"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/notify"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/audit"
	rl "github.com/NattapongPailom/THANATHEPLAW-firm/internal/security/ratelimit"
	"github.com/NattapongPailom/THANATHEPLAW-firm/internal/services"
	"github.com/NattapongPailom/THANATHEPLAW-firm/pkg/logger"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logg := logger.New(cfg.Logging.Level)

	docs := api.NewDocstore(cfg.Docstore.BaseURL, cfg.Docstore.Token)
	idp := api.NewIdentityClient(cfg.Identity.BaseURL, cfg.Identity.APIKey)
	genai := api.NewGenAI(cfg.GenAI.BaseURL, cfg.GenAI.APIKey)
	email := api.NewEmailClient(cfg.Mail.BaseURL, cfg.Mail.PublicKey)

	var blobs api.ObjectStore
	if cfg.Blob.BaseURL != "" {
		blobs = api.NewBlobClient(cfg.Blob.BaseURL, cfg.Blob.Token)
	} else {
		local, err := api.NewLocalBlobStore(cfg.Blob.LocalRoot)
		if err != nil {
			log.Fatalf("local vault init: %v", err)
		}
		logg.Warn().Str("root", cfg.Blob.LocalRoot).Msg("no object storage configured, vault files stay on local disk")
		blobs = local
	}

	var limiters *rl.Set
	switch cfg.Security.LimiterBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Security.RedisAddr})
		limiters = rl.NewRedisSet(rdb, logg)
		logg.Info().Str("addr", cfg.Security.RedisAddr).Msg("rate limiting backed by redis")
	default:
		limiters = rl.NewSet()
	}

	auditLog := audit.New(cfg.Security.AuditLogPath)
	authSvc := auth.New(idp, docs, []byte(cfg.Security.SessionSecret), cfg.SessionTTL(), logg)

	feed := hub.New(logg)
	var notifier services.Notifier = feed
	if cfg.NotifyEnabled() {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.AdminChatIDs, logg)
		if err != nil {
			logg.Error().Err(err).Msg("telegram notifier unavailable, continuing without alerts")
		} else {
			notifier = fanout{feed, tg}
		}
	}

	activity := services.NewActivity(docs, logg)
	counsel := services.NewCounsel(genai, limiters.AIGeneration, logg)
	mailer := services.NewMailer(docs, email, cfg.Mail.ServiceID, cfg.Mail.TemplateID, cfg.Mail.ReplyTo, cfg.Mail.NoReply, logg)
	leads := services.NewLeads(docs, counsel, mailer, limiters.ContactForm, limiters.CaseTracking, activity, notifier, logg)
	vault := services.NewVault(docs, blobs, mailer, limiters.FileUpload, activity, cfg.Blob.MaxFileMB, logg)
	content := services.NewContent(docs, mailer, logg)
	billing := services.NewBilling(docs, activity, logg)

	server := handlers.New(authSvc, leads, vault, content, billing, counsel, activity, mailer, limiters, feed, auditLog, logg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Expired sessions pile up in memory without a sweeper.
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				authSvc.Sessions().Sweep()
			}
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logg.Info().Str("addr", cfg.Server.Addr).Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error().Err(err).Msg("server stopped")
	}
}

// fanout delivers each lead event to every configured channel.
type fanout []services.Notifier

func (f fanout) LeadReceived(lead models.Lead) {
	for _, n := range f {
		n.LeadReceived(lead)
	}
}
