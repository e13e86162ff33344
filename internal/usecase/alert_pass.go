package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/internal/matching"
	"go-jobalert-scheduler/pkg/apperror"
	"go-jobalert-scheduler/pkg/audit"
	"go-jobalert-scheduler/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency  = 4
	defaultBackfillPool = 100
)

type AlertPassConfig struct {
	Concurrency int
	MatchLimit  int
	// BackfillPoolSize bounds the generic Live pool used to pad sparse matches.
	BackfillPoolSize int
}

type AlertPassDeps struct {
	Recipients domain.RecipientRepository
	Extractor  *ProfileExtractor
	Pool       *PoolBuilder
	Dispatcher *Dispatcher
	Archive    domain.PassArchive
	Audit      *audit.Logger
	Config     AlertPassConfig
}

type alertPass struct {
	recipients domain.RecipientRepository
	extractor  *ProfileExtractor
	pool       *PoolBuilder
	dispatcher *Dispatcher
	archive    domain.PassArchive
	audit      *audit.Logger
	cfg        AlertPassConfig
	now        func() time.Time
}

func NewAlertUsecase(deps AlertPassDeps) domain.AlertUsecase {
	cfg := deps.Config
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.MatchLimit <= 0 {
		cfg.MatchLimit = matching.DefaultLimit
	}
	if cfg.BackfillPoolSize <= 0 {
		cfg.BackfillPoolSize = defaultBackfillPool
	}
	return &alertPass{
		recipients: deps.Recipients,
		extractor:  deps.Extractor,
		pool:       deps.Pool,
		dispatcher: deps.Dispatcher,
		archive:    deps.Archive,
		audit:      deps.Audit,
		cfg:        cfg,
		now:        time.Now,
	}
}

// DefaultWindow is the window a pass of type t covers when none is given. It
// starts at a UTC midnight and stops one nanosecond before the most recent one,
// so reruns on the same day share keys and consecutive windows never overlap.
func DefaultWindow(t domain.NotificationType, now time.Time) domain.Window {
	midnight := now.UTC().Truncate(24 * time.Hour)
	w := t.WindowEndingAt(midnight)
	w.To = midnight.Add(-time.Nanosecond)
	return w
}

// Run executes one pass. A cancelled context stops the pass between recipients
// and returns the partial summary together with the context error.
func (p *alertPass) Run(ctx context.Context, req domain.RunRequest) (*domain.PassSummary, error) {
	if _, err := domain.ParseNotificationType(string(req.Type)); err != nil {
		return nil, apperror.BadRequest(err.Error())
	}
	window := req.Window
	if window.From.IsZero() && window.To.IsZero() {
		window = DefaultWindow(req.Type, p.now())
	}
	if window.IsEmpty() {
		return nil, apperror.BadRequest("window start must not be after window end")
	}

	summary := &domain.PassSummary{
		RunID:     uuid.NewString(),
		Type:      req.Type,
		Window:    window,
		Outcomes:  make(map[domain.DispatchOutcome]int),
		StartedAt: p.now().UTC(),
	}
	log := logger.Log.With("run_id", summary.RunID, "type", req.Type)
	log.Info("Alert pass started", "from", window.From, "to", window.To, "dry_run", req.DryRun)

	refs, err := p.targets(ctx, req)
	if err != nil {
		return nil, err
	}
	set, err := p.pool.Build(ctx, window, domain.JobLive)
	if err != nil {
		return nil, err
	}
	backfill, err := p.pool.LivePool(ctx, p.cfg.BackfillPoolSize)
	if err != nil {
		return nil, err
	}
	summary.PoolSize = len(set.Jobs)
	summary.Recipients = len(refs)

	var mu sync.Mutex
	tally := func(results []domain.DeliveryResult, failed bool) {
		mu.Lock()
		defer mu.Unlock()
		for _, r := range results {
			summary.Outcomes[r.Outcome]++
		}
		if failed {
			summary.Errors++
		}
	}

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results, err := p.processRecipient(ctx, ref, req, window, set.Jobs, backfill)
			if err != nil {
				log.Error("Recipient failed", "recipient_id", ref.ID, "kind", ref.Kind, "error", err)
			}
			tally(results, err != nil)
			return nil
		})
	}
	_ = g.Wait()

	summary.FinishedAt = p.now().UTC()
	summary.Cancelled = ctx.Err() != nil

	p.finish(ctx, summary)
	log.Info("Alert pass finished",
		"recipients", summary.Recipients,
		"pool", summary.PoolSize,
		"outcomes", summary.Outcomes,
		"errors", summary.Errors,
		"duration", summary.Duration(),
		"cancelled", summary.Cancelled)

	if summary.Cancelled {
		return summary, ctx.Err()
	}
	return summary, nil
}

func (p *alertPass) targets(ctx context.Context, req domain.RunRequest) ([]domain.RecipientRef, error) {
	kind := req.Type.RecipientKind()
	if len(req.Recipients) == 0 {
		refs, err := p.recipients.ListEligible(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("list %s recipients: %w", kind, err)
		}
		return refs, nil
	}

	refs := make([]domain.RecipientRef, 0, len(req.Recipients))
	for _, ref := range req.Recipients {
		if ref.Kind == "" {
			ref.Kind = kind
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (p *alertPass) processRecipient(
	ctx context.Context,
	ref domain.RecipientRef,
	req domain.RunRequest,
	window domain.Window,
	pool, backfill []domain.JobPosting,
) ([]domain.DeliveryResult, error) {
	profile, err := p.extractor.Extract(ctx, ref.ID, ref.Kind)
	if err != nil {
		return nil, err
	}
	if !profile.Found || !profile.Eligibility.Eligible() {
		return []domain.DeliveryResult{{Outcome: domain.OutcomeSkippedIneligible}}, nil
	}

	ranked := matching.Rank(profile, pool, backfill, p.cfg.MatchLimit)
	for _, dim := range ranked.Skipped {
		logger.Log.Warn("Skipped malformed filter dimension", "recipient_id", ref.ID, "kind", ref.Kind, "dimension", dim)
	}

	return p.dispatcher.Dispatch(ctx, domain.DispatchRequest{
		Profile: profile,
		Jobs:    ranked.Jobs,
		Type:    req.Type,
		Window:  window,
		DryRun:  req.DryRun,
	})
}

// finish archives the summary and writes the audit event. Both run even when
// the pass itself was cancelled.
func (p *alertPass) finish(ctx context.Context, summary *domain.PassSummary) {
	ctx = context.WithoutCancel(ctx)

	details := map[string]interface{}{
		"type":       summary.Type,
		"pool_size":  summary.PoolSize,
		"recipients": summary.Recipients,
		"errors":     summary.Errors,
		"cancelled":  summary.Cancelled,
		"duration":   summary.Duration().String(),
	}
	for outcome, n := range summary.Outcomes {
		details[string(outcome)] = n
	}
	p.audit.PassCompleted(ctx, summary.RunID, details)

	if p.archive == nil {
		return
	}
	if err := p.archive.Archive(ctx, summary); err != nil {
		logger.Log.Error("Failed to archive pass summary", "run_id", summary.RunID, "error", err)
	}
}
