package domain

import (
	"context"
	"fmt"
	"time"
)

type NotificationType string

const (
	NotificationDailyAlert       NotificationType = "daily_job_alert"
	NotificationWeeklyAlert      NotificationType = "weekly_job_alert"
	NotificationSubscriberDigest NotificationType = "subscriber_digest"
	NotificationSavedAlertMatch  NotificationType = "saved_alert_match"
)

// ParseNotificationType validates a raw type value.
func ParseNotificationType(s string) (NotificationType, error) {
	t := NotificationType(s)
	switch t {
	case NotificationDailyAlert, NotificationWeeklyAlert, NotificationSubscriberDigest, NotificationSavedAlertMatch:
		return t, nil
	}
	return "", fmt.Errorf("unknown notification type %q", s)
}

// Period is the length of the publish window a notification type covers.
func (t NotificationType) Period() time.Duration {
	if t == NotificationWeeklyAlert {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// RecipientKind is the account kind a notification type is sent to.
func (t NotificationType) RecipientKind() RecipientKind {
	switch t {
	case NotificationSubscriberDigest:
		return RecipientSubscriber
	case NotificationSavedAlertMatch:
		return RecipientAlert
	default:
		return RecipientUser
	}
}

// WindowEndingAt returns the window of this type that closes at end.
func (t NotificationType) WindowEndingAt(end time.Time) Window {
	return Window{From: end.Add(-t.Period()), To: end}
}

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// NotificationKey identifies one logical notification. At most one record exists per key.
type NotificationKey struct {
	RecipientID   string           `json:"recipient_id"`
	RecipientKind RecipientKind    `json:"recipient_kind"`
	Type          NotificationType `json:"notification_type"`
	WindowStart   time.Time        `json:"window_start"`
	Channel       Channel          `json:"channel"`
}

// String renders the key for lock names and log lines.
func (k NotificationKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%d:%s", k.RecipientKind, k.RecipientID, k.Type, k.WindowStart.Unix(), k.Channel)
}

// NotificationRecord is the idempotency marker written after a successful handoff.
type NotificationRecord struct {
	Key    NotificationKey `json:"key"`
	JobIDs []int64         `json:"job_ids"`
	SentAt time.Time       `json:"sent_at"`
}

type NotificationLedger interface {
	Exists(ctx context.Context, key NotificationKey) (bool, error)
	// Record inserts the marker if absent. inserted is false when the key was already present.
	Record(ctx context.Context, record NotificationRecord) (inserted bool, err error)
}

// NotificationLedgerReader lists ledger entries for exports.
type NotificationLedgerReader interface {
	ListSent(ctx context.Context, from, to time.Time) ([]NotificationRecord, error)
}

// NotificationRepository is a ledger that can also be listed.
type NotificationRepository interface {
	NotificationLedger
	NotificationLedgerReader
}

// Message is the rendered payload handed off to the mail/SMS channel.
type Message struct {
	ID          string           `json:"id"`
	Channel     Channel          `json:"channel"`
	To          []string         `json:"to"`
	Subject     string           `json:"subject"`
	HTMLBody    string           `json:"html_body,omitempty"`
	TextBody    string           `json:"text_body"`
	Tag         NotificationType `json:"tag"`
	RecipientID string           `json:"recipient_id"`
	CreatedAt   time.Time        `json:"created_at"`
}

// MessageQueue accepts messages for asynchronous delivery. Enqueue returns once
// the message is queued, not once it is delivered.
type MessageQueue interface {
	Enqueue(ctx context.Context, msg Message) error
}

// DispatchLock guards the check-handoff-record sequence of one notification key
// against overlapping passes.
type DispatchLock interface {
	// Acquire returns ok=false without error when another holder owns the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

type DispatchOutcome string

const (
	OutcomeSent              DispatchOutcome = "sent"
	OutcomeSkippedIneligible DispatchOutcome = "skipped_ineligible"
	OutcomeSkippedDuplicate  DispatchOutcome = "skipped_duplicate"
	OutcomeSkippedEmpty      DispatchOutcome = "skipped_empty"
	OutcomeSkippedLocked     DispatchOutcome = "skipped_locked"
	OutcomeFailed            DispatchOutcome = "failed"
	OutcomeDryRun            DispatchOutcome = "dry_run"
)

// DeliveryResult is the outcome of one channel of one dispatch.
type DeliveryResult struct {
	Channel Channel         `json:"channel"`
	Outcome DispatchOutcome `json:"outcome"`
}

// DispatchRequest is everything the dispatcher needs for one recipient.
type DispatchRequest struct {
	Profile *RecipientProfile
	Jobs    []JobPosting
	Type    NotificationType
	Window  Window
	DryRun  bool
}
