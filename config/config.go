package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go-jobalert-scheduler/pkg/validation"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const configFileEnv = "ALERTS_CONFIG_FILE"

type Config struct {
	Port        string
	DBUrl       string
	SiteURL     string
	Environment string
	LogLevel    string
	// SMTP Configuration (Brevo)
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPFromEmail string // Verified sender email (different from SMTP login)
	// SMS gateway
	SMSGatewayURL   string
	SMSGatewayToken string
	SMSSenderID     string
	// Redis Configuration
	RedisURL      string
	RedisPassword string
	// Alert passes
	AlertCronDaily    string
	AlertCronWeekly   string
	AlertConcurrency  int
	AlertMatchLimit   int
	BackfillPoolSize  int
	DispatchLockTTL   time.Duration
	MailQueueKey      string
	MailWorkerEnabled bool
	// Pass archive (S3 compatible)
	ArchiveBucket string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	// Admin API
	AdminJWTSecret   string
	AdminCORSOrigins []string
	// Audit Configuration
	AuditLogToDB bool // Whether to persist dispatch events to database

	// Loaded from ALERTS_CONFIG_FILE
	Schedules []Schedule `validate:"dive"`
	Social    Social
}

// Schedule binds one notification type to a cron expression.
type Schedule struct {
	Type string `yaml:"type" validate:"required,notification_type"`
	Cron string `yaml:"cron" validate:"required,cron_spec"`
}

type Social struct {
	Targets []SocialTarget `yaml:"targets" validate:"dive"`
	// Webhooks maps a platform name to the endpoint that relays posts to it.
	// Platforms without a webhook are handled by the log-only client.
	Webhooks map[string]string `yaml:"webhooks" validate:"dive,keys,social_platform,endkeys,required,url"`
}

type SocialTarget struct {
	Platform string `yaml:"platform" validate:"required,social_platform"`
	TargetID string `yaml:"target_id" validate:"required"`
}

// fileConfig is the YAML document shape.
type fileConfig struct {
	Schedules []Schedule `yaml:"schedules"`
	Social    Social     `yaml:"social"`
}

func LoadConfig() (*Config, error) {
	// Only effective locally; production has no .env file
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DBUrl:       getEnv("DATABASE_URL", ""),
		SiteURL:     strings.TrimRight(getEnv("SITE_URL", "http://localhost:3000"), "/"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		// SMTP Configuration
		SMTPHost:      getEnv("SMTP_HOST", "smtp-relay.brevo.com"),
		SMTPPort:      getEnv("SMTP_PORT", "587"),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail: getEnv("SMTP_FROM_EMAIL", "alerts@localhost"),
		// SMS gateway
		SMSGatewayURL:   getEnv("SMS_GATEWAY_URL", ""),
		SMSGatewayToken: getEnv("SMS_GATEWAY_TOKEN", ""),
		SMSSenderID:     getEnv("SMS_SENDER_ID", ""),
		// Redis Configuration
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		// Alert passes
		AlertCronDaily:    getEnv("ALERT_CRON_DAILY", "0 6 * * *"),
		AlertCronWeekly:   getEnv("ALERT_CRON_WEEKLY", "0 7 * * 1"),
		AlertConcurrency:  getEnvInt("ALERT_CONCURRENCY", 4),
		AlertMatchLimit:   getEnvInt("ALERT_MATCH_LIMIT", 10),
		BackfillPoolSize:  getEnvInt("ALERT_BACKFILL_POOL", 100),
		DispatchLockTTL:   getEnvDuration("DISPATCH_LOCK_TTL", 2*time.Minute),
		MailQueueKey:      getEnv("MAIL_QUEUE_KEY", "queue:outbound_messages"),
		MailWorkerEnabled: getEnvBool("MAIL_WORKER_ENABLED", true),
		// Pass archive
		ArchiveBucket: getEnv("ARCHIVE_BUCKET", ""),
		S3Region:      getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:    getEnv("S3_ENDPOINT", ""),
		S3AccessKey:   getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:   getEnv("S3_SECRET_ACCESS_KEY", ""),
		// Admin API
		AdminJWTSecret:   getEnv("ADMIN_JWT_SECRET", ""),
		AdminCORSOrigins: getEnvList("ADMIN_CORS_ORIGINS"),
		// Audit Configuration
		AuditLogToDB: getEnvBool("AUDIT_LOG_TO_DB", true),
	}

	if path := os.Getenv(configFileEnv); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if len(cfg.Schedules) == 0 {
		cfg.Schedules = []Schedule{
			{Type: "daily_job_alert", Cron: cfg.AlertCronDaily},
			{Type: "weekly_job_alert", Cron: cfg.AlertCronWeekly},
			{Type: "subscriber_digest", Cron: cfg.AlertCronDaily},
			{Type: "saved_alert_match", Cron: cfg.AlertCronDaily},
		}
	}

	if err := validation.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(validation.FormatValidationErrors(err), "; "))
	}

	// Basic checks to avoid confusing failures later
	if cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Application may fail to connect.")
	}
	if cfg.RedisURL == "" {
		log.Println("WARNING: REDIS_URL not configured. Dispatch locks fall back to in-process locks and the mail queue is unavailable.")
	}
	if cfg.AdminJWTSecret == "" {
		log.Println("WARNING: ADMIN_JWT_SECRET not configured. Admin API will reject every request.")
	}

	return cfg, nil
}

// applyFile overlays the YAML file on top of the environment defaults.
func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: cannot read %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("config: cannot parse %s: %w", path, err)
	}

	if len(fc.Schedules) > 0 {
		c.Schedules = fc.Schedules
	}
	if len(fc.Social.Targets) > 0 {
		c.Social.Targets = fc.Social.Targets
	}
	if len(fc.Social.Webhooks) > 0 {
		c.Social.Webhooks = fc.Social.Webhooks
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s", "2m") or plain seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
