package usecase

import (
	"context"
	"fmt"
	"sort"

	"go-jobalert-scheduler/internal/domain"
)

// PoolBuilder selects the jobs a pass matches recipients against.
type PoolBuilder struct {
	jobs domain.JobRepository
}

func NewPoolBuilder(jobs domain.JobRepository) *PoolBuilder {
	return &PoolBuilder{jobs: jobs}
}

// Build returns jobs with the status published inside the inclusive window,
// newest first. An empty window or an empty store yields an empty set.
func (b *PoolBuilder) Build(ctx context.Context, window domain.Window, status domain.JobStatus) (domain.MatchCandidateSet, error) {
	set := domain.MatchCandidateSet{Window: window}
	if window.IsEmpty() {
		return set, nil
	}

	jobs, err := b.jobs.FetchByStatusInWindow(ctx, status, window)
	if err != nil {
		return set, fmt.Errorf("fetch %s jobs: %w", status, err)
	}

	// The store contract is not trusted for either the filter or the order.
	filtered := make([]domain.JobPosting, 0, len(jobs))
	for _, job := range jobs {
		if job.Status == status && window.Contains(job.PublishedAt) {
			filtered = append(filtered, job)
		}
	}
	sortByRecency(filtered)
	set.Jobs = filtered

	return set, nil
}

// LivePool returns up to limit Live jobs regardless of publish time, newest first.
// It is the source the ranker backfills from.
func (b *PoolBuilder) LivePool(ctx context.Context, limit int) ([]domain.JobPosting, error) {
	if limit <= 0 {
		return nil, nil
	}
	jobs, err := b.jobs.FetchByStatus(ctx, domain.JobLive, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch live pool: %w", err)
	}

	filtered := make([]domain.JobPosting, 0, len(jobs))
	for _, job := range jobs {
		if job.IsLive() {
			filtered = append(filtered, job)
		}
	}
	sortByRecency(filtered)
	return filtered, nil
}

func sortByRecency(jobs []domain.JobPosting) {
	sort.SliceStable(jobs, func(i, j int) bool {
		if !jobs[i].PublishedAt.Equal(jobs[j].PublishedAt) {
			return jobs[i].PublishedAt.After(jobs[j].PublishedAt)
		}
		return jobs[i].ID > jobs[j].ID
	})
}
