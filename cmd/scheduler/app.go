package main

import (
	"context"
	"errors"
	"fmt"

	"go-jobalert-scheduler/config"
	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/internal/repository/postgres"
	redisrepo "go-jobalert-scheduler/internal/repository/redis"
	"go-jobalert-scheduler/internal/usecase"
	"go-jobalert-scheduler/pkg/archive"
	"go-jobalert-scheduler/pkg/audit"
	"go-jobalert-scheduler/pkg/auth"
	"go-jobalert-scheduler/pkg/database"
	"go-jobalert-scheduler/pkg/email"
	"go-jobalert-scheduler/pkg/logger"
	redisclient "go-jobalert-scheduler/pkg/redis"
	"go-jobalert-scheduler/pkg/social"
	"go-jobalert-scheduler/pkg/validation"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
)

const (
	serviceName = "jobalert-scheduler"
	tokenIssuer = "jobalert-scheduler"
)

// app holds every wired dependency. Commands build one, use what they need
// and close it.
type app struct {
	cfg    *config.Config
	db     *pgxpool.Pool
	redis  *goredis.Client
	audit  *audit.Logger
	queue  *redisrepo.MessageQueue
	tokens *auth.TokenManager

	alertUC  domain.AlertUsecase
	socialUC domain.SocialUsecase
	exportUC domain.ExportUsecase
	healthUC usecase.HealthUsecase
}

func newApp(ctx context.Context) (*app, error) {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Setup Logger
	logger.Init(cfg.LogLevel)

	// 3. Setup Database
	dbPool, err := database.NewPostgresConnection(ctx, cfg.DBUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &app{
		cfg:    cfg,
		db:     dbPool,
		audit:  audit.New(serviceName, cfg.Environment),
		tokens: auth.NewTokenManager(cfg.AdminJWTSecret, tokenIssuer),
	}

	// 4. Setup Redis (optional)
	var lock domain.DispatchLock
	rdb, err := redisclient.NewClient(ctx, redisclient.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword})
	switch {
	case err == nil:
		a.redis = rdb
		lock = redisrepo.NewDispatchLock(rdb)
	case errors.Is(err, redisclient.ErrNotConfigured):
		logger.Log.Warn("Redis not configured, using in-process dispatch locks")
	default:
		logger.Log.Error("Redis unavailable, using in-process dispatch locks", "error", err)
	}
	a.queue = redisrepo.NewMessageQueue(a.redis, cfg.MailQueueKey)

	// 5. Setup Repositories
	recipientRepo := postgres.NewRecipientRepository(dbPool)
	jobRepo := postgres.NewJobRepository(dbPool)
	notificationRepo := postgres.NewNotificationRepository(dbPool)
	socialRepo := postgres.NewSocialPostRepository(dbPool)

	if cfg.AuditLogToDB {
		a.audit.SetPersistFunc(postgres.NewDispatchEventRepository(dbPool).CreatePersistFunc())
	}

	// 6. Setup Pass Archive (optional)
	var passArchive domain.PassArchive
	if cfg.ArchiveBucket != "" {
		archiveCfg := archive.Config{
			Bucket:          cfg.ArchiveBucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Endpoint:        cfg.S3Endpoint,
		}
		s3Client, err := archive.NewS3Client(ctx, archiveCfg)
		if err != nil {
			a.close()
			return nil, err
		}
		passArchive = archive.NewS3Archive(s3Client, archiveCfg)
	}

	// 7. Setup UseCases
	validate := validation.New()
	dispatcher := usecase.NewDispatcher(
		notificationRepo,
		a.queue,
		lock,
		usecase.NewRenderer(cfg.SiteURL),
		a.audit,
		usecase.DispatcherConfig{LockTTL: cfg.DispatchLockTTL},
	)
	a.alertUC = usecase.NewAlertUsecase(usecase.AlertPassDeps{
		Recipients: recipientRepo,
		Extractor:  usecase.NewProfileExtractor(recipientRepo, validate),
		Pool:       usecase.NewPoolBuilder(jobRepo),
		Dispatcher: dispatcher,
		Archive:    passArchive,
		Audit:      a.audit,
		Config: usecase.AlertPassConfig{
			Concurrency:      cfg.AlertConcurrency,
			MatchLimit:       cfg.AlertMatchLimit,
			BackfillPoolSize: cfg.BackfillPoolSize,
		},
	})

	targets := socialTargets(cfg)
	a.socialUC = usecase.NewSocialUsecase(
		jobRepo,
		socialRepo,
		social.Registry(targets, cfg.Social.Webhooks),
		a.audit,
		usecase.SocialConfig{SiteURL: cfg.SiteURL, Targets: targets},
	)
	a.exportUC = usecase.NewExportUsecase(notificationRepo)

	checks := map[string]usecase.PingFunc{"database": dbPool.Ping}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return redisclient.HealthCheck(ctx, a.redis) }
	}
	a.healthUC = usecase.NewHealthUsecase(checks)

	return a, nil
}

// senders picks a delivery channel per message channel. Without SMTP
// credentials or an SMS gateway the channel goes to the log.
func (a *app) senders() map[domain.Channel]email.Sender {
	out := map[domain.Channel]email.Sender{
		domain.ChannelEmail: email.LogSender{Channel: domain.ChannelEmail},
		domain.ChannelSMS:   email.LogSender{Channel: domain.ChannelSMS},
	}
	svc := email.NewEmailService(email.SMTPConfig{
		Host:      a.cfg.SMTPHost,
		Port:      a.cfg.SMTPPort,
		Username:  a.cfg.SMTPUsername,
		Password:  a.cfg.SMTPPassword,
		FromEmail: a.cfg.SMTPFromEmail,
	})
	if svc.IsConfigured() {
		out[domain.ChannelEmail] = svc
	} else {
		logger.Log.Warn("Email service not fully configured - alerts will only be logged")
	}

	sms := email.NewSMSGateway(email.SMSConfig{
		GatewayURL: a.cfg.SMSGatewayURL,
		Token:      a.cfg.SMSGatewayToken,
		SenderID:   a.cfg.SMSSenderID,
	})
	if sms.IsConfigured() {
		out[domain.ChannelSMS] = sms
	} else {
		logger.Log.Warn("SMS gateway not configured - SMS alerts will only be logged")
	}
	return out
}

func (a *app) close() {
	_ = a.audit.Sync()
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}

func socialTargets(cfg *config.Config) []domain.SocialTarget {
	out := make([]domain.SocialTarget, 0, len(cfg.Social.Targets))
	for _, t := range cfg.Social.Targets {
		out = append(out, domain.SocialTarget{Platform: t.Platform, TargetID: t.TargetID})
	}
	return out
}
