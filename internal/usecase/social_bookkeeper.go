package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-jobalert-scheduler/internal/domain"
	"go-jobalert-scheduler/pkg/apperror"
	"go-jobalert-scheduler/pkg/audit"
	"go-jobalert-scheduler/pkg/logger"
)

type SocialConfig struct {
	SiteURL string
	// Targets are the pages and groups a job is cross-posted to.
	Targets []domain.SocialTarget
}

type socialBookkeeper struct {
	jobs      domain.JobRepository
	posts     domain.SocialPostRepository
	platforms map[string]domain.SocialPlatform
	audit     *audit.Logger
	cfg       SocialConfig
	now       func() time.Time
}

func NewSocialUsecase(
	jobs domain.JobRepository,
	posts domain.SocialPostRepository,
	platforms map[string]domain.SocialPlatform,
	auditLogger *audit.Logger,
	cfg SocialConfig,
) domain.SocialUsecase {
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	return &socialBookkeeper{
		jobs:      jobs,
		posts:     posts,
		platforms: platforms,
		audit:     auditLogger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// OnPublish retires every Posted record of the job and then posts it to the
// selected platforms. An empty platform list selects every configured target.
// Remote failures are logged and audited; only store failures are returned.
func (s *socialBookkeeper) OnPublish(ctx context.Context, jobID int64, platforms []string) ([]domain.SocialPostRecord, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperror.NotFound(fmt.Sprintf("job %d not found", jobID))
	}
	if err != nil {
		return nil, fmt.Errorf("load job %d: %w", jobID, err)
	}
	if !job.IsLive() {
		return nil, apperror.Conflict(fmt.Sprintf("job %d is %s, only live jobs can be published", jobID, job.Status), domain.ErrJobNotLive)
	}

	targets, err := s.selectTargets(platforms)
	if err != nil {
		return nil, err
	}

	stuck, errs := s.retire(ctx, jobID)

	payload := s.payload(job)
	var created []domain.SocialPostRecord
	for _, target := range targets {
		prev := domain.SocialPostNone
		if _, ok := stuck[target]; ok {
			prev = domain.SocialPostPosted
		}
		if !domain.IsSocialTransitionAllowed(prev, domain.SocialPostPosted) {
			logger.Log.Warn("Skipping re-post, previous post still recorded as posted",
				"job_id", jobID, "platform", target.Platform, "target_id", target.TargetID)
			continue
		}

		rec, err := s.post(ctx, job.ID, target, payload)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if rec != nil {
			created = append(created, *rec)
		}
	}

	return created, errors.Join(errs...)
}

// OnRemove retires every Posted record of a job that left the board.
func (s *socialBookkeeper) OnRemove(ctx context.Context, jobID int64) error {
	_, errs := s.retire(ctx, jobID)
	return errors.Join(errs...)
}

func (s *socialBookkeeper) ListPosts(ctx context.Context, jobID int64) ([]domain.SocialPostRecord, error) {
	return s.posts.ListByJob(ctx, jobID)
}

// retire deletes each Posted record remotely and marks it Deleted locally
// whatever the remote outcome. Keys whose local transition failed are returned
// so that no second Posted record is created for them.
func (s *socialBookkeeper) retire(ctx context.Context, jobID int64) (map[domain.SocialTarget]struct{}, []error) {
	stuck := make(map[domain.SocialTarget]struct{})

	posted, err := s.posts.ListPosted(ctx, jobID)
	if err != nil {
		// Nothing is known about the existing posts, so nothing may be re-posted.
		for _, t := range s.cfg.Targets {
			stuck[t] = struct{}{}
		}
		return stuck, []error{fmt.Errorf("list posted records of job %d: %w", jobID, err)}
	}

	var errs []error
	for _, rec := range posted {
		if !domain.IsSocialTransitionAllowed(rec.Status, domain.SocialPostDeleted) {
			continue
		}

		if platform, ok := s.platforms[rec.Platform]; ok {
			if err := platform.Delete(ctx, rec.TargetID, rec.PostID); err != nil {
				logger.Log.Warn("Remote delete failed, marking deleted anyway",
					"job_id", jobID, "platform", rec.Platform, "target_id", rec.TargetID, "post_id", rec.PostID, "error", err)
				s.audit.SocialPost(ctx, audit.EventSocialDeleteFailed, jobID, rec.Platform, rec.TargetID, err)
			}
		} else {
			logger.Log.Warn("No client for platform, marking deleted locally only", "job_id", jobID, "platform", rec.Platform)
		}

		if err := s.posts.MarkDeleted(ctx, rec.ID, s.now().UTC()); err != nil {
			stuck[rec.Target()] = struct{}{}
			errs = append(errs, fmt.Errorf("mark social post %d deleted: %w", rec.ID, err))
			continue
		}
		s.audit.SocialPost(ctx, audit.EventSocialPostDeleted, jobID, rec.Platform, rec.TargetID, nil)
	}

	return stuck, errs
}

// post publishes to one target and records it. A nil record with nil error
// means the remote call failed and was only logged.
func (s *socialBookkeeper) post(ctx context.Context, jobID int64, target domain.SocialTarget, payload domain.SocialPostPayload) (*domain.SocialPostRecord, error) {
	platform, ok := s.platforms[target.Platform]
	if !ok {
		logger.Log.Warn("No client for platform", "job_id", jobID, "platform", target.Platform)
		return nil, nil
	}

	postID, err := platform.Post(ctx, target.TargetID, payload)
	if err != nil {
		logger.Log.Warn("Social post failed", "job_id", jobID, "platform", target.Platform, "target_id", target.TargetID, "error", err)
		s.audit.SocialPost(ctx, audit.EventSocialPostFailed, jobID, target.Platform, target.TargetID, err)
		return nil, nil
	}

	rec := &domain.SocialPostRecord{
		JobID:     jobID,
		Platform:  target.Platform,
		TargetID:  target.TargetID,
		PostID:    postID,
		Status:    domain.SocialPostPosted,
		CreatedAt: s.now().UTC(),
	}
	if err := s.posts.Create(ctx, rec); err != nil {
		// Unrecorded remote posts cannot be cleaned up later.
		if delErr := platform.Delete(ctx, target.TargetID, postID); delErr != nil {
			logger.Log.Error("Orphaned social post", "job_id", jobID, "platform", target.Platform, "post_id", postID, "error", delErr)
		}
		if errors.Is(err, domain.ErrDuplicate) {
			logger.Log.Warn("Concurrent post recorded first", "job_id", jobID, "platform", target.Platform, "target_id", target.TargetID)
			return nil, nil
		}
		return nil, fmt.Errorf("record social post for job %d: %w", jobID, err)
	}

	s.audit.SocialPost(ctx, audit.EventSocialPostCreated, jobID, target.Platform, target.TargetID, nil)
	return rec, nil
}

func (s *socialBookkeeper) selectTargets(platforms []string) ([]domain.SocialTarget, error) {
	if len(platforms) == 0 {
		return s.cfg.Targets, nil
	}

	wanted := make(map[string]bool, len(platforms))
	for _, p := range platforms {
		if _, ok := s.platforms[p]; !ok {
			return nil, apperror.BadRequest(fmt.Sprintf("unknown platform %q", p))
		}
		wanted[p] = true
	}

	var out []domain.SocialTarget
	for _, t := range s.cfg.Targets {
		if wanted[t.Platform] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *socialBookkeeper) payload(job *domain.JobPosting) domain.SocialPostPayload {
	link := fmt.Sprintf("%s/jobs/%d", s.cfg.SiteURL, job.ID)
	if job.Slug != "" {
		link = s.cfg.SiteURL + "/jobs/" + job.Slug
	}
	msg := job.Title
	if job.CompanyName != "" {
		msg = fmt.Sprintf("%s at %s", job.Title, job.CompanyName)
	}
	return domain.SocialPostPayload{
		JobID:   job.ID,
		Message: msg,
		Link:    link,
	}
}
