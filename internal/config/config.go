package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds all configuration loaded from env or YAML.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Docstore DocstoreConfig `yaml:"docstore"`
	Blob     BlobConfig     `yaml:"blob"`
	Identity IdentityConfig `yaml:"identity"`
	Mail     MailConfig     `yaml:"mail"`
	GenAI    GenAIConfig    `yaml:"genai"`
	Telegram TelegramConfig `yaml:"telegram"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DocstoreConfig points at the hosted document database.
type DocstoreConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// BlobConfig selects object storage. With an empty base URL, files land
// in a sandboxed local directory instead.
type BlobConfig struct {
	BaseURL   string `yaml:"base_url"`
	Token     string `yaml:"token"`
	LocalRoot string `yaml:"local_root"`
	MaxFileMB int    `yaml:"max_file_mb"`
}

// IdentityConfig points at the hosted identity provider.
type IdentityConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// MailConfig holds the transactional email API settings. All optional;
// without them outbound mail is recorded but not dispatched.
type MailConfig struct {
	BaseURL    string `yaml:"base_url"`
	PublicKey  string `yaml:"public_key"`
	ServiceID  string `yaml:"service_id"`
	TemplateID string `yaml:"template_id"`
	ReplyTo    string `yaml:"reply_to"`
	NoReply    string `yaml:"no_reply"`
}

// GenAIConfig holds the generative AI API settings.
type GenAIConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// TelegramConfig describes the lead-alert bot. Optional.
type TelegramConfig struct {
	Token        string  `yaml:"token"`
	AdminChatIDs []int64 `yaml:"admin_chat_ids"`
}

// SecurityConfig stores session and rate limiter settings.
type SecurityConfig struct {
	SessionSecret   string `yaml:"session_secret"`
	SessionTTLHours int    `yaml:"session_ttl_hours"`
	LimiterBackend  string `yaml:"limiter_backend"`
	RedisAddr       string `yaml:"redis_addr"`
	AuditLogPath    string `yaml:"audit_log_path"`
}

// LoggingConfig controls log level/output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML config (if present) and overrides with env vars.
func Load(path string) (*AppConfig, error) {
	cfg := defaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			b, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("parse yaml: %w", err)
			}
		}
	}

	overrideFromEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{Addr: ":8080"},
		Blob: BlobConfig{
			LocalRoot: "vault",
			MaxFileMB: 50,
		},
		Security: SecurityConfig{
			SessionTTLHours: 1,
			LimiterBackend:  "memory",
			AuditLogPath:    "audit.log",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func overrideFromEnv(cfg *AppConfig) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DOCSTORE_BASE_URL"); v != "" {
		cfg.Docstore.BaseURL = v
	}
	if v := os.Getenv("DOCSTORE_TOKEN"); v != "" {
		cfg.Docstore.Token = v
	}
	if v := os.Getenv("BLOB_BASE_URL"); v != "" {
		cfg.Blob.BaseURL = v
	}
	if v := os.Getenv("BLOB_TOKEN"); v != "" {
		cfg.Blob.Token = v
	}
	if v := os.Getenv("MAX_FILE_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Blob.MaxFileMB = n
		}
	}
	if v := os.Getenv("IDENTITY_BASE_URL"); v != "" {
		cfg.Identity.BaseURL = v
	}
	if v := os.Getenv("IDENTITY_API_KEY"); v != "" {
		cfg.Identity.APIKey = v
	}
	if v := os.Getenv("MAIL_BASE_URL"); v != "" {
		cfg.Mail.BaseURL = v
	}
	if v := os.Getenv("MAIL_PUBLIC_KEY"); v != "" {
		cfg.Mail.PublicKey = v
	}
	if v := os.Getenv("MAIL_SERVICE_ID"); v != "" {
		cfg.Mail.ServiceID = v
	}
	if v := os.Getenv("MAIL_TEMPLATE_ID"); v != "" {
		cfg.Mail.TemplateID = v
	}
	if v := os.Getenv("GENAI_BASE_URL"); v != "" {
		cfg.GenAI.BaseURL = v
	}
	if v := os.Getenv("GENAI_API_KEY"); v != "" {
		cfg.GenAI.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_ADMIN_CHAT_IDS"); v != "" {
		ids := strings.Split(v, ",")
		cfg.Telegram.AdminChatIDs = make([]int64, 0, len(ids))
		for _, id := range ids {
			if trimmed := strings.TrimSpace(id); trimmed != "" {
				if parsed, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
					cfg.Telegram.AdminChatIDs = append(cfg.Telegram.AdminChatIDs, parsed)
				}
			}
		}
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		cfg.Security.SessionSecret = v
	}
	if v := os.Getenv("SESSION_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Security.SessionTTLHours = n
		}
	}
	if v := os.Getenv("LIMITER_BACKEND"); v != "" {
		cfg.Security.LimiterBackend = strings.ToLower(v)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Security.RedisAddr = v
	}
	if v := os.Getenv("AUDIT_LOG_PATH"); v != "" {
		cfg.Security.AuditLogPath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func (c *AppConfig) validate() error {
	if c.Docstore.BaseURL == "" {
		return errors.New("docstore base url required")
	}
	if c.Identity.BaseURL == "" {
		return errors.New("identity base url required")
	}
	if len(c.Security.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 bytes")
	}
	if c.Security.SessionTTLHours <= 0 {
		return errors.New("session ttl must be >0")
	}
	if c.Blob.MaxFileMB <= 0 {
		return errors.New("max file mb must be >0")
	}
	backend := strings.ToLower(c.Security.LimiterBackend)
	switch backend {
	case "memory":
		c.Security.LimiterBackend = backend
	case "redis":
		c.Security.LimiterBackend = backend
		if c.Security.RedisAddr == "" {
			return errors.New("redis addr required for redis limiter backend")
		}
	default:
		return fmt.Errorf("invalid limiter backend: %s", c.Security.LimiterBackend)
	}
	return nil
}

// SessionTTL returns the admin session lifetime as a duration.
func (c *AppConfig) SessionTTL() time.Duration {
	return time.Duration(c.Security.SessionTTLHours) * time.Hour
}

// NotifyEnabled reports whether Telegram lead alerts are configured.
func (c *AppConfig) NotifyEnabled() bool {
	return c.Telegram.Token != "" && len(c.Telegram.AdminChatIDs) > 0
}
