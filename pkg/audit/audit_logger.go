package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EventType represents the type of dispatch event
type EventType string

const (
	EventNotificationSent    EventType = "notification_sent"
	EventNotificationSkipped EventType = "notification_skipped"
	EventNotificationFailed  EventType = "notification_failed"
	EventSocialPostCreated   EventType = "social_post_created"
	EventSocialPostDeleted   EventType = "social_post_deleted"
	EventSocialDeleteFailed  EventType = "social_delete_failed"
	EventSocialPostFailed    EventType = "social_post_failed"
	EventPassCompleted       EventType = "pass_completed"
)

// Event is one auditable step of the scheduler.
type Event struct {
	Timestamp    time.Time              `json:"timestamp"`
	Service      string                 `json:"service"`
	Environment  string                 `json:"env"`
	Level        string                 `json:"level"`
	Event        EventType              `json:"event"`
	SubjectType  string                 `json:"subject_type,omitempty"` // "recipient", "job", "run"
	SubjectValue string                 `json:"subject_value,omitempty"`
	RunID        string                 `json:"run_id,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// Logger writes dispatch events through zap and optionally persists them.
// A nil *Logger discards everything.
type Logger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
	persistFunc func(ctx context.Context, event Event) error
}

// New builds the audit logger with a production zap config on stdout.
func New(serviceName, environment string) *Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.LevelKey = "level"
	config.EncoderConfig.MessageKey = "message"
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	return NewWithZap(logger, serviceName, environment)
}

// NewWithZap wraps an existing zap logger, e.g. zaptest or zap.NewNop in tests.
func NewWithZap(logger *zap.Logger, serviceName, environment string) *Logger {
	return &Logger{
		zapLogger:   logger,
		serviceName: serviceName,
		environment: environment,
	}
}

// SetPersistFunc sets the function to persist events to database
func (l *Logger) SetPersistFunc(f func(ctx context.Context, event Event) error) {
	if l == nil {
		return
	}
	l.persistFunc = f
}

// Log records one event.
func (l *Logger) Log(ctx context.Context, event Event) {
	if l == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Service = l.serviceName
	event.Environment = l.environment

	level := zapcore.InfoLevel
	switch event.Event {
	case EventNotificationSkipped:
		level = zapcore.DebugLevel
	case EventSocialDeleteFailed, EventSocialPostFailed:
		level = zapcore.WarnLevel
	case EventNotificationFailed:
		level = zapcore.ErrorLevel
	}
	event.Level = level.String()

	fields := []zap.Field{
		zap.String("service", event.Service),
		zap.String("env", event.Environment),
		zap.String("event", string(event.Event)),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectValue != "" {
		fields = append(fields, zap.String("subject_value", event.SubjectValue))
	}
	if event.RunID != "" {
		fields = append(fields, zap.String("run_id", event.RunID))
	}
	if len(event.Details) > 0 {
		detailsJSON, _ := json.Marshal(event.Details)
		fields = append(fields, zap.String("details", string(detailsJSON)))
	}

	l.zapLogger.Log(level, string(event.Event), fields...)

	if l.persistFunc != nil {
		go func(e Event) {
			// request/pass context may already be cancelled
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := l.persistFunc(ctx, e); err != nil {
				l.zapLogger.Error("Failed to persist audit event", zap.Error(err))
			}
		}(event)
	}
}

// NotificationSent records a handoff to the mail/SMS queue.
func (l *Logger) NotificationSent(ctx context.Context, recipientID, channel, notificationType string, jobCount int) {
	l.Log(ctx, Event{
		Event:        EventNotificationSent,
		SubjectType:  "recipient",
		SubjectValue: HashValue(recipientID),
		Details: map[string]interface{}{
			"channel":           channel,
			"notification_type": notificationType,
			"jobs":              jobCount,
		},
	})
}

// NotificationSkipped records why a recipient received nothing.
func (l *Logger) NotificationSkipped(ctx context.Context, recipientID, reason string) {
	l.Log(ctx, Event{
		Event:        EventNotificationSkipped,
		SubjectType:  "recipient",
		SubjectValue: HashValue(recipientID),
		Details:      map[string]interface{}{"reason": reason},
	})
}

// NotificationFailed records a failed handoff. Nothing retries it.
func (l *Logger) NotificationFailed(ctx context.Context, recipientID, channel string, err error) {
	l.Log(ctx, Event{
		Event:        EventNotificationFailed,
		SubjectType:  "recipient",
		SubjectValue: HashValue(recipientID),
		Details:      map[string]interface{}{"channel": channel, "error": err.Error()},
	})
}

// SocialPost records a social bookkeeping step for a job.
func (l *Logger) SocialPost(ctx context.Context, event EventType, jobID int64, platform, targetID string, err error) {
	details := map[string]interface{}{"platform": platform, "target_id": targetID}
	if err != nil {
		details["error"] = err.Error()
	}
	l.Log(ctx, Event{
		Event:        event,
		SubjectType:  "job",
		SubjectValue: strconv.FormatInt(jobID, 10),
		Details:      details,
	})
}

// PassCompleted records the summary counters of a scheduling pass.
func (l *Logger) PassCompleted(ctx context.Context, runID string, details map[string]interface{}) {
	l.Log(ctx, Event{
		Event:       EventPassCompleted,
		SubjectType: "run",
		RunID:       runID,
		Details:     details,
	})
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.zapLogger.Sync()
}

// MaskEmail masks an email for logging (e.g., "j***@example.com")
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	atIndex := -1
	for i, c := range email {
		if c == '@' {
			atIndex = i
			break
		}
	}
	if atIndex <= 1 {
		return "***" + email[1:]
	}
	return string(email[0]) + "***" + email[atIndex:]
}

// HashValue creates a SHA256 hash of a value (for logging without PII)
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}

