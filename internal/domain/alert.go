package domain

import (
	"context"
	"time"
)

// RunRequest describes one scheduling pass.
type RunRequest struct {
	Type NotificationType `json:"type" validate:"required,notification_type"`
	// Window defaults to the type's period ending now when empty.
	Window Window `json:"window"`
	DryRun bool   `json:"dry_run"`
	// Recipients restricts the pass to these ids; all eligible recipients otherwise.
	Recipients []RecipientRef `json:"recipients,omitempty"`
}

// PassSummary reports the outcome of one pass.
type PassSummary struct {
	RunID      string                  `json:"run_id"`
	Type       NotificationType        `json:"type"`
	Window     Window                  `json:"window"`
	PoolSize   int                     `json:"pool_size"`
	Recipients int                     `json:"recipients"`
	Outcomes   map[DispatchOutcome]int `json:"outcomes"`
	Errors     int                     `json:"errors"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
	Cancelled  bool                    `json:"cancelled"`
}

// Duration returns how long the pass ran.
func (s PassSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

type AlertUsecase interface {
	Run(ctx context.Context, req RunRequest) (*PassSummary, error)
}

// PublishEvent is emitted by the recruiter workflow when a job goes live.
type PublishEvent struct {
	JobID     int64    `json:"job_id"`
	Platforms []string `json:"platforms,omitempty"`
}

type SocialUsecase interface {
	OnPublish(ctx context.Context, jobID int64, platforms []string) ([]SocialPostRecord, error)
	OnRemove(ctx context.Context, jobID int64) error
	ListPosts(ctx context.Context, jobID int64) ([]SocialPostRecord, error)
}

// ExportRequest selects ledger rows for an admin download.
type ExportRequest struct {
	From   time.Time
	To     time.Time
	Format string
}

type ExportUsecase interface {
	ExportNotifications(ctx context.Context, req ExportRequest) ([]byte, string, error)
}

// PassArchive stores finished pass summaries outside the database.
type PassArchive interface {
	Archive(ctx context.Context, summary *PassSummary) error
}
