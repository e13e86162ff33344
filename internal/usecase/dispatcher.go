package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/audit"
	"go-jobalert-scheduler/pkg/logger"
)

const defaultLockTTL = 2 * time.Minute

type DispatcherConfig struct {
	LockTTL time.Duration
}

// Dispatcher hands rendered alerts off to the message queue at most once per
// notification key.
type Dispatcher struct {
	ledger   domain.NotificationLedger
	queue    domain.MessageQueue
	lock     domain.DispatchLock
	renderer *Renderer
	audit    *audit.Logger
	cfg      DispatcherConfig
	now      func() time.Time
}

func NewDispatcher(
	ledger domain.NotificationLedger,
	queue domain.MessageQueue,
	lock domain.DispatchLock,
	renderer *Renderer,
	auditLogger *audit.Logger,
	cfg DispatcherConfig,
) *Dispatcher {
	if lock == nil {
		lock = NewLocalLock()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	return &Dispatcher{
		ledger:   ledger,
		queue:    queue,
		lock:     lock,
		renderer: renderer,
		audit:    auditLogger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Channels lists the channels a profile can be reached on, email first.
func Channels(p *domain.RecipientProfile) []domain.Channel {
	var out []domain.Channel
	if p.Email != "" {
		out = append(out, domain.ChannelEmail)
	}
	if p.SMSOptIn && p.Mobile != "" {
		out = append(out, domain.ChannelSMS)
	}
	return out
}

// Dispatch delivers one recipient's ranked jobs on every reachable channel.
// Ineligible recipients get a single skipped result and no error. The returned
// error joins the handoff failures of all channels.
func (d *Dispatcher) Dispatch(ctx context.Context, req domain.DispatchRequest) ([]domain.DeliveryResult, error) {
	p := req.Profile
	if p == nil || !p.Found || !p.Eligibility.Eligible() {
		id := ""
		if p != nil {
			id = p.ID
		}
		d.audit.NotificationSkipped(ctx, id, string(domain.OutcomeSkippedIneligible))
		return []domain.DeliveryResult{{Outcome: domain.OutcomeSkippedIneligible}}, nil
	}
	if len(req.Jobs) == 0 {
		d.audit.NotificationSkipped(ctx, p.ID, string(domain.OutcomeSkippedEmpty))
		return []domain.DeliveryResult{{Outcome: domain.OutcomeSkippedEmpty}}, nil
	}

	channels := Channels(p)
	if len(channels) == 0 {
		d.audit.NotificationSkipped(ctx, p.ID, "no_channel")
		return []domain.DeliveryResult{{Outcome: domain.OutcomeSkippedIneligible}}, nil
	}

	var (
		results []domain.DeliveryResult
		errs    []error
	)
	for _, ch := range channels {
		key := domain.NotificationKey{
			RecipientID:   p.ID,
			RecipientKind: p.Kind,
			Type:          req.Type,
			WindowStart:   req.Window.From.UTC(),
			Channel:       ch,
		}
		outcome, err := d.dispatchChannel(ctx, key, req)
		results = append(results, domain.DeliveryResult{Channel: ch, Outcome: outcome})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch, err))
		}
	}

	return results, errors.Join(errs...)
}

func (d *Dispatcher) dispatchChannel(ctx context.Context, key domain.NotificationKey, req domain.DispatchRequest) (domain.DispatchOutcome, error) {
	release, ok, err := d.lock.Acquire(ctx, key.String(), d.cfg.LockTTL)
	if err != nil {
		return domain.OutcomeFailed, fmt.Errorf("acquire dispatch lock: %w", err)
	}
	if !ok {
		logger.Log.Debug("Notification in flight elsewhere", "key", key.String())
		return domain.OutcomeSkippedLocked, nil
	}
	defer release()

	sent, err := d.ledger.Exists(ctx, key)
	if err != nil {
		return domain.OutcomeFailed, fmt.Errorf("check ledger: %w", err)
	}
	if sent {
		d.audit.NotificationSkipped(ctx, key.RecipientID, string(domain.OutcomeSkippedDuplicate))
		return domain.OutcomeSkippedDuplicate, nil
	}

	msg, err := d.renderer.Render(key.Channel, req.Profile, req.Jobs, req.Type)
	if err != nil {
		return domain.OutcomeFailed, fmt.Errorf("render: %w", err)
	}

	if req.DryRun {
		logger.Log.Info("Dry run, message not queued", "key", key.String(), "subject", msg.Subject, "jobs", len(req.Jobs))
		return domain.OutcomeDryRun, nil
	}

	if err := d.queue.Enqueue(ctx, msg); err != nil {
		logger.Log.Error("Failed to hand off notification", "key", key.String(), "error", err)
		d.audit.NotificationFailed(ctx, key.RecipientID, string(key.Channel), err)
		return domain.OutcomeFailed, fmt.Errorf("enqueue: %w", err)
	}

	record := domain.NotificationRecord{
		Key:    key,
		JobIDs: jobIDs(req.Jobs),
		SentAt: d.now().UTC(),
	}
	inserted, err := d.ledger.Record(ctx, record)
	if err != nil {
		// The message is already queued; a missing marker can only cause a resend.
		logger.Log.Error("Failed to record notification", "key", key.String(), "error", err)
		return domain.OutcomeSent, fmt.Errorf("record ledger: %w", err)
	}
	if !inserted {
		logger.Log.Warn("Ledger marker already present after handoff", "key", key.String())
	}

	d.audit.NotificationSent(ctx, key.RecipientID, string(key.Channel), string(key.Type), len(req.Jobs))
	return domain.OutcomeSent, nil
}

func jobIDs(jobs []domain.JobPosting) []int64 {
	ids := make([]int64, len(jobs))
	for i, j := range jobs {
		ids[i] = j.ID
	}
	return ids
}

// LocalLock is an in-process DispatchLock used when redis is not configured.
type LocalLock struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocalLock() *LocalLock {
	return &LocalLock{held: make(map[string]time.Time), now: time.Now}
}

func (l *LocalLock) Acquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return nil, false, nil
	}
	l.held[key] = now.Add(ttl)

	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, true, nil
}
