// Package scheduler fires alert passes on their cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Entry binds one notification type to a cron expression.
type Entry struct {
	Type domain.NotificationType
	Spec string
}

// Scheduler wraps robfig/cron. Overlapping ticks of the same type are
// skipped; the dispatcher's lock covers passes started elsewhere.
type Scheduler struct {
	cron    *cron.Cron
	alerts  domain.AlertUsecase
	entries []Entry
	ids     map[cron.EntryID]domain.NotificationType
}

// slogAdapter feeds cron's own messages into the service logger.
type slogAdapter struct{}

func (slogAdapter) Info(msg string, keysAndValues ...interface{}) {
	logger.Log.Debug("cron: "+msg, keysAndValues...)
}

func (slogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

// New builds a scheduler evaluating specs in UTC.
func New(alerts domain.AlertUsecase, entries []Entry) *Scheduler {
	log := slogAdapter{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		alerts:  alerts,
		entries: entries,
		ids:     make(map[cron.EntryID]domain.NotificationType),
	}
}

// Start registers every entry and starts ticking. ctx bounds the passes.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, e := range s.entries {
		typ := e.Type
		id, err := s.cron.AddFunc(e.Spec, func() { s.runPass(ctx, typ) })
		if err != nil {
			return fmt.Errorf("cron.AddFunc %s %q: %w", typ, e.Spec, err)
		}
		s.ids[id] = typ
		logger.Log.Info("Scheduled alert pass", "type", typ, "spec", e.Spec)
	}
	s.cron.Start()
	return nil
}

// Stop stops ticking and waits for running passes to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Log.Info("Scheduler stopped")
}

// Next reports when each registered type fires next.
func (s *Scheduler) Next() map[domain.NotificationType]time.Time {
	next := make(map[domain.NotificationType]time.Time)
	for _, entry := range s.cron.Entries() {
		if typ, ok := s.ids[entry.ID]; ok {
			next[typ] = entry.Next
		}
	}
	return next
}

func (s *Scheduler) runPass(ctx context.Context, typ domain.NotificationType) {
	if ctx.Err() != nil {
		return
	}
	summary, err := s.alerts.Run(ctx, domain.RunRequest{Type: typ})
	if err != nil {
		logger.Log.Error("Scheduled alert pass failed", "type", typ, "error", err)
		return
	}
	logger.Log.Info("Scheduled alert pass finished",
		"type", typ,
		"run_id", summary.RunID,
		"recipients", summary.Recipients,
		"outcomes", summary.Outcomes,
		"duration", summary.Duration().String(),
	)
}
